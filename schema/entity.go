package schema

import (
	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

type (
	// Entity describes one record type of the model.
	Entity struct {
		// Name is unique within the model.
		Name string `json:"name"`
		// ClassName is the optional custom class name of the entity.
		ClassName string `json:"className,omitempty"`
		// Attributes holds the scalar properties in declaration order.
		Attributes []*Attribute `json:"attributes,omitempty"`
		// Relationships holds the references to other entities in declaration order.
		Relationships []*Relationship `json:"relationships,omitempty"`
		// Subentities lists the names of the child entities. They are
		// separate entities of the same model, not owned by this one.
		Subentities []string `json:"subentities,omitempty"`
	}

	// Attribute is a scalar property of an entity.
	Attribute struct {
		Name     string     `json:"name"`
		Type     field.Type `json:"type"`
		Optional bool       `json:"optional,omitempty"`
		Indexed  bool       `json:"indexed,omitempty"`
	}

	// Relationship is a named reference from its owning entity to the
	// destination entity. Destination and Inverse are names resolved against
	// the model on demand.
	Relationship struct {
		Name        string          `json:"name"`
		Destination string          `json:"destination"`
		Inverse     string          `json:"inverse,omitempty"`
		DeleteRule  edge.DeleteRule `json:"deleteRule"`
		// MinCount and MaxCount are nil when unconstrained.
		MinCount  *int `json:"minCount,omitempty"`
		MaxCount  *int `json:"maxCount,omitempty"`
		Optional  bool `json:"optional,omitempty"`
		Transient bool `json:"transient,omitempty"`
	}
)

// NewEntity returns an empty entity with the given name.
func NewEntity(name string) *Entity {
	return &Entity{Name: name}
}

// Attribute returns the attribute with the given name.
func (e *Entity) Attribute(name string) (*Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Relationship returns the relationship with the given name.
func (e *Entity) Relationship(name string) (*Relationship, bool) {
	for _, r := range e.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// HasProperty reports if an attribute or a relationship is named name.
// Attributes and relationships share one namespace.
func (e *Entity) HasProperty(name string) bool {
	if _, ok := e.Attribute(name); ok {
		return true
	}
	_, ok := e.Relationship(name)
	return ok
}

// HasSubentity reports if name is listed as a subentity of e.
func (e *Entity) HasSubentity(name string) bool {
	for _, s := range e.Subentities {
		if s == name {
			return true
		}
	}
	return false
}

// AddAttribute appends a to the entity. It fails if the name is taken.
func (e *Entity) AddAttribute(a *Attribute) error {
	if e.HasProperty(a.Name) {
		return NewCollisionError(e.Name, a.Name, KindAttribute)
	}
	e.Attributes = append(e.Attributes, a)
	return nil
}

// AddRelationship appends r to the entity. It fails if the name is taken.
// The destination is not resolved here, see Model.Validate.
func (e *Entity) AddRelationship(r *Relationship) error {
	if e.HasProperty(r.Name) {
		return NewCollisionError(e.Name, r.Name, KindRelationship)
	}
	e.Relationships = append(e.Relationships, r)
	return nil
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		Name:      e.Name,
		ClassName: e.ClassName,
	}
	for _, a := range e.Attributes {
		ac := *a
		c.Attributes = append(c.Attributes, &ac)
	}
	for _, r := range e.Relationships {
		c.Relationships = append(c.Relationships, r.Clone())
	}
	if e.Subentities != nil {
		c.Subentities = append([]string(nil), e.Subentities...)
	}
	return c
}

// ToMany reports if the relationship may hold more than one object.
// An absent MaxCount is unconstrained, hence to-many.
func (r *Relationship) ToMany() bool {
	return r.MaxCount == nil || *r.MaxCount != 1
}

// Clone returns a deep copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	c := *r
	if r.MinCount != nil {
		n := *r.MinCount
		c.MinCount = &n
	}
	if r.MaxCount != nil {
		n := *r.MaxCount
		c.MaxCount = &n
	}
	return &c
}

// Count is a helper for building MinCount and MaxCount values.
func Count(n int) *int { return &n }
