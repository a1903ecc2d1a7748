package delta

import (
	"errors"

	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// Operation discriminators as they appear in the "operation" key.
const (
	KindAddEntity    = "add entity"
	KindExtendEntity = "extend entity"
)

type (
	// Operation is one parsed delta instruction: *AddEntity, *ExtendEntity
	// or *Malformed.
	Operation interface {
		// Kind returns the operation discriminator.
		Kind() string
		// Entity returns the name of the target entity, if known.
		Entity() string
	}

	// Batch is an ordered sequence of operations.
	Batch []Operation

	// AttributeSpec describes an attribute to create.
	AttributeSpec struct {
		Name     string
		Type     field.Type
		Optional bool
		Indexed  bool
	}

	// RelationshipSpec describes a relationship to create. A nil DeleteRule
	// means the entry did not name one and the default applies.
	RelationshipSpec struct {
		Name        string
		Destination string
		Inverse     string
		DeleteRule  *edge.DeleteRule
		MinCount    *int
		MaxCount    *int
		Optional    bool
		Transient   bool
	}

	// AddEntity creates a new entity.
	AddEntity struct {
		Name          string
		ClassName     string
		Attributes    []AttributeSpec
		Relationships []RelationshipSpec
		Subentities   []string
	}

	// ExtendEntity appends properties to an existing entity.
	ExtendEntity struct {
		Name          string
		Attributes    []AttributeSpec
		Relationships []RelationshipSpec
	}

	// Malformed stands in for an element that could not be parsed. It is kept
	// in the batch so that the applier policy decides what happens next.
	Malformed struct {
		// Op is the raw discriminator, if one was readable.
		Op  string
		Err *ParseError
	}
)

// Kind implements Operation.
func (*AddEntity) Kind() string { return KindAddEntity }

// Entity implements Operation.
func (op *AddEntity) Entity() string { return op.Name }

// Kind implements Operation.
func (*ExtendEntity) Kind() string { return KindExtendEntity }

// Entity implements Operation.
func (op *ExtendEntity) Entity() string { return op.Name }

// Kind implements Operation.
func (op *Malformed) Kind() string {
	if op.Op != "" {
		return op.Op
	}
	return "malformed"
}

// Entity implements Operation.
func (op *Malformed) Entity() string { return op.Err.Entity }

// Err returns the parse errors of all malformed operations, joined.
func (b Batch) Err() error {
	var errs []error
	for _, op := range b {
		if m, ok := op.(*Malformed); ok {
			errs = append(errs, m.Err)
		}
	}
	return errors.Join(errs...)
}

// Rule returns the delete rule to apply, and whether it was defaulted.
func (r RelationshipSpec) Rule() (edge.DeleteRule, bool) {
	if r.DeleteRule == nil {
		return edge.DefaultDeleteRule, true
	}
	return *r.DeleteRule, false
}
