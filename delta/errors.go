package delta

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is matched by every ParseError.
var ErrMalformed = errors.New("mogenerator: malformed delta")

// ParseError reports a delta element that does not have the expected shape:
// a missing required field, a value of the wrong type or a name outside its
// enumeration.
type ParseError struct {
	// Index is the position of the operation in the batch, or -1 when the
	// top-level value itself is malformed.
	Index int
	// Entity is the target entity name, if it could be read.
	Entity string
	// Field is the path of the offending key, e.g. "attributes[1].type".
	Field   string
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("mogenerator: malformed delta")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " operation %d", e.Index)
	}
	if e.Entity != "" {
		fmt.Fprintf(&b, " (%s)", e.Entity)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrMalformed.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// IsParseError returns true if the error is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// OpError reports the failure of one operation of a batch. Err holds the
// cause: a *ParseError, or one or more *schema.ReferenceError and
// *schema.CollisionError values joined.
type OpError struct {
	Index  int
	Kind   string
	Entity string
	Err    error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("mogenerator: operation %d (%s %s) rejected: %s",
		e.Index, e.Kind, e.Entity, strings.ReplaceAll(e.Err.Error(), "mogenerator: ", ""))
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// IsOpError returns true if the error is, or wraps, an OpError.
func IsOpError(err error) bool {
	var e *OpError
	return errors.As(err, &e)
}
