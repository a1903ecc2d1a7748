package schema

import (
	"errors"
	"slices"
)

// Model is the in-memory graph of entity descriptions. Entities are keyed by
// name and iterate in insertion order. A Model performs no locking; callers
// sharing one across goroutines must serialize access.
type Model struct {
	entities []*Entity
	byName   map[string]*Entity
}

// New returns a model holding the given entities. It fails on duplicate names.
func New(entities ...*Entity) (*Model, error) {
	m := &Model{byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := m.Add(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(entities ...*Entity) *Model {
	m, err := New(entities...)
	if err != nil {
		panic(err)
	}
	return m
}

// Add registers e in the model. It fails if the name is already taken.
func (m *Model) Add(e *Entity) error {
	if m.byName == nil {
		m.byName = make(map[string]*Entity)
	}
	if _, ok := m.byName[e.Name]; ok {
		return NewCollisionError(e.Name, "", KindEntity)
	}
	m.byName[e.Name] = e
	m.entities = append(m.entities, e)
	return nil
}

// Entity returns the entity registered under name.
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Has reports if an entity named name exists.
func (m *Model) Has(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// Entities returns the entities in insertion order. The returned slice
// is a copy; the entities are shared.
func (m *Model) Entities() []*Entity {
	return slices.Clone(m.entities)
}

// Names returns the entity names in insertion order.
func (m *Model) Names() []string {
	names := make([]string, len(m.entities))
	for i, e := range m.entities {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entities.
func (m *Model) Len() int { return len(m.entities) }

// Index returns the insertion position of the named entity, or -1.
func (m *Model) Index(name string) int {
	return slices.IndexFunc(m.entities, func(e *Entity) bool { return e.Name == name })
}

// Superentity returns the entity that lists name among its subentities.
func (m *Model) Superentity(name string) (*Entity, bool) {
	for _, e := range m.entities {
		if e.HasSubentity(name) {
			return e, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{byName: make(map[string]*Entity, len(m.entities))}
	for _, e := range m.entities {
		ec := e.Clone()
		c.entities = append(c.entities, ec)
		c.byName[ec.Name] = ec
	}
	return c
}

// Validate checks that every destination, inverse and subentity reference
// resolves. All failures are reported, joined.
func (m *Model) Validate() error {
	var errs []error
	for _, e := range m.entities {
		for _, r := range e.Relationships {
			if err := m.ResolveRelationship(e, r); err != nil {
				errs = append(errs, err)
			}
		}
		for _, s := range e.Subentities {
			if !m.Has(s) {
				errs = append(errs, NewReferenceError(e.Name, "", RefSubentity, s))
			}
		}
	}
	return errors.Join(errs...)
}

// ResolveRelationship resolves the destination and, if set, the inverse of
// the relationship r owned by e. The inverse must exist on the destination
// and point back to e.
func (m *Model) ResolveRelationship(e *Entity, r *Relationship) error {
	dest, ok := m.Entity(r.Destination)
	if !ok {
		return NewReferenceError(e.Name, r.Name, RefDestination, r.Destination)
	}
	if r.Inverse == "" {
		return nil
	}
	inv, ok := dest.Relationship(r.Inverse)
	if !ok {
		return NewReferenceError(e.Name, r.Name, RefInverse, r.Inverse)
	}
	if inv.Destination != e.Name {
		err := NewReferenceError(e.Name, r.Name, RefInverse, r.Inverse)
		err.Message = "inverse points to " + inv.Destination
		return err
	}
	return nil
}
