package delta

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Diagnostic codes.
const (
	// CodeMissingInverse flags a relationship created without an inverse.
	CodeMissingInverse = "missing-inverse"
	// CodeDefaultDeleteRule flags a relationship whose delete rule was
	// defaulted.
	CodeDefaultDeleteRule = "default-delete-rule"
)

// Diagnostic is a non-fatal finding recorded while applying an operation.
// Diagnostics are only kept for operations that were applied.
type Diagnostic struct {
	Op       int    `json:"op"`
	Entity   string `json:"entity"`
	Property string `json:"property,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Property == "" {
		return fmt.Sprintf("%s: %s (%s)", d.Entity, d.Message, d.Code)
	}
	return fmt.Sprintf("%s.%s: %s (%s)", d.Entity, d.Property, d.Message, d.Code)
}

// Result summarizes one Apply call.
type Result struct {
	// ID identifies the batch in log records.
	ID uuid.UUID
	// OK is true when every operation of the batch was applied.
	OK bool
	// Applied counts the operations written to the model. Rejected counts
	// the failed ones under either policy; under AbortOnError that is at most
	// one. NotRun counts the operations left after an abort.
	Applied  int
	Rejected int
	NotRun   int
	// Diagnostics holds the warnings of the applied operations.
	Diagnostics []Diagnostic
	// Errors holds one entry per rejected operation.
	Errors []*OpError
}

// Err returns the errors of the rejected operations joined, or nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// DiagnosticsFor returns the diagnostics recorded for entity.
func (r *Result) DiagnosticsFor(entity string) []Diagnostic {
	var ds []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Entity == entity {
			ds = append(ds, d)
		}
	}
	return ds
}
