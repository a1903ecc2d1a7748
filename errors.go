package mogenerator

import (
	"errors"

	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
)

// Sentinel errors of the sub packages, re-exported so that callers of the
// entry points need a single import.
var (
	// ErrCycle is returned when the entities cannot be ordered.
	ErrCycle = graph.ErrCycle

	// ErrUnresolved is matched by references to missing entities or
	// relationships.
	ErrUnresolved = schema.ErrUnresolved

	// ErrCollision is matched by names that already exist in their scope.
	ErrCollision = schema.ErrCollision

	// ErrMalformed is matched by delta specifications that do not have the
	// expected shape.
	ErrMalformed = delta.ErrMalformed
)

// IsCycle returns true if the error reports a dependency cycle.
func IsCycle(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCycle)
}

// IsUnresolved returns true if the error is, or wraps, an unresolved reference.
func IsUnresolved(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnresolved)
}

// IsCollision returns true if the error is, or wraps, a name collision.
func IsCollision(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCollision)
}

// IsMalformed returns true if the error is, or wraps, a delta parse error.
func IsMalformed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMalformed)
}
