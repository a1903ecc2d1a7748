package schema

import (
	"errors"
	"strings"
)

// Sentinel errors for model integrity failures.
var (
	// ErrUnresolved indicates a destination, inverse or subentity name
	// that does not resolve in the model.
	ErrUnresolved = errors.New("mogenerator: unresolved reference")
	// ErrCollision indicates a name that already exists in its scope.
	ErrCollision = errors.New("mogenerator: name collision")
)

// Reference kinds reported by ReferenceError.
const (
	RefDestination = "destination"
	RefInverse     = "inverse"
	RefSubentity   = "subentity"
	RefEntity      = "entity"
)

// ReferenceError reports a name that does not resolve against the model.
type ReferenceError struct {
	Entity   string // Entity holding the reference.
	Property string // Relationship name (if applicable).
	Kind     string // One of the Ref* constants.
	Target   string // The unresolved name.
	Message  string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("mogenerator: unresolved ")
	b.WriteString(e.Kind)
	b.WriteString(" ")
	b.WriteString(quote(e.Target))
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Property != "" {
		b.WriteString(" property ")
		b.WriteString(e.Property)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrUnresolved.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnresolved
}

// NewReferenceError creates a new ReferenceError.
func NewReferenceError(entity, property, kind, target string) *ReferenceError {
	return &ReferenceError{
		Entity:   entity,
		Property: property,
		Kind:     kind,
		Target:   target,
	}
}

// Collision kinds reported by CollisionError.
const (
	KindEntity       = "entity"
	KindAttribute    = "attribute"
	KindRelationship = "relationship"
	KindSubentity    = "subentity"
)

// CollisionError reports an entity, attribute or relationship whose name is
// already taken in its scope.
type CollisionError struct {
	Entity   string
	Property string // Empty for entity collisions.
	Kind     string // One of the Kind* constants.
	Message  string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	var b strings.Builder
	b.WriteString("mogenerator: ")
	b.WriteString(e.Kind)
	b.WriteString(" ")
	if e.Property != "" {
		b.WriteString(quote(e.Property))
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	} else {
		b.WriteString(quote(e.Entity))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else {
		b.WriteString(" already exists")
	}
	return b.String()
}

// Is reports whether the target matches ErrCollision.
func (e *CollisionError) Is(target error) bool {
	return target == ErrCollision
}

// NewCollisionError creates a new CollisionError.
func NewCollisionError(entity, property, kind string) *CollisionError {
	return &CollisionError{
		Entity:   entity,
		Property: property,
		Kind:     kind,
	}
}

// IsReferenceError returns true if the error is, or wraps, a ReferenceError.
func IsReferenceError(err error) bool {
	var e *ReferenceError
	return errors.As(err, &e)
}

// IsCollisionError returns true if the error is, or wraps, a CollisionError.
func IsCollisionError(err error) bool {
	var e *CollisionError
	return errors.As(err, &e)
}

func quote(s string) string {
	return `"` + s + `"`
}
