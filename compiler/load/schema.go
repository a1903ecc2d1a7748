package load

import (
	"encoding/json"
	"fmt"

	"github.com/mschmiderer/mogenerator/schema"
	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// Schema is the serialized form of a schema.Model. Enumerations are kept as
// their text names so that every encoding stores the same document.
type Schema struct {
	Entities []*Entity `json:"entities" yaml:"entities" msgpack:"entities"`
}

// Entity is the serialized form of a schema.Entity.
type Entity struct {
	Name          string   `json:"name" yaml:"name" msgpack:"name"`
	ClassName     string   `json:"className,omitempty" yaml:"className,omitempty" msgpack:"className,omitempty"`
	Attributes    []*Field `json:"attributes,omitempty" yaml:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Relationships []*Edge  `json:"relationships,omitempty" yaml:"relationships,omitempty" msgpack:"relationships,omitempty"`
	Subentities   []string `json:"subentities,omitempty" yaml:"subentities,omitempty" msgpack:"subentities,omitempty"`
}

// Field is the serialized form of a schema.Attribute.
type Field struct {
	Name     string `json:"name" yaml:"name" msgpack:"name"`
	Type     string `json:"type" yaml:"type" msgpack:"type"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty" msgpack:"optional,omitempty"`
	Indexed  bool   `json:"indexed,omitempty" yaml:"indexed,omitempty" msgpack:"indexed,omitempty"`
}

// Edge is the serialized form of a schema.Relationship.
type Edge struct {
	Name        string `json:"name" yaml:"name" msgpack:"name"`
	Destination string `json:"destination" yaml:"destination" msgpack:"destination"`
	Inverse     string `json:"inverse,omitempty" yaml:"inverse,omitempty" msgpack:"inverse,omitempty"`
	DeleteRule  string `json:"deleteRule,omitempty" yaml:"deleteRule,omitempty" msgpack:"deleteRule,omitempty"`
	MinCount    *int   `json:"minCount,omitempty" yaml:"minCount,omitempty" msgpack:"minCount,omitempty"`
	MaxCount    *int   `json:"maxCount,omitempty" yaml:"maxCount,omitempty" msgpack:"maxCount,omitempty"`
	Optional    bool   `json:"optional,omitempty" yaml:"optional,omitempty" msgpack:"optional,omitempty"`
	Transient   bool   `json:"transient,omitempty" yaml:"transient,omitempty" msgpack:"transient,omitempty"`
}

// NewField creates a serialized field from an attribute.
func NewField(a *schema.Attribute) *Field {
	return &Field{
		Name:     a.Name,
		Type:     a.Type.String(),
		Optional: a.Optional,
		Indexed:  a.Indexed,
	}
}

// NewEdge creates a serialized edge from a relationship.
func NewEdge(r *schema.Relationship) *Edge {
	e := &Edge{
		Name:        r.Name,
		Destination: r.Destination,
		Inverse:     r.Inverse,
		DeleteRule:  r.DeleteRule.String(),
		Optional:    r.Optional,
		Transient:   r.Transient,
	}
	if r.MinCount != nil {
		e.MinCount = schema.Count(*r.MinCount)
	}
	if r.MaxCount != nil {
		e.MaxCount = schema.Count(*r.MaxCount)
	}
	return e
}

// NewSchema creates the serialized form of m.
func NewSchema(m *schema.Model) *Schema {
	s := &Schema{Entities: make([]*Entity, 0, m.Len())}
	for _, e := range m.Entities() {
		se := &Entity{
			Name:        e.Name,
			ClassName:   e.ClassName,
			Subentities: e.Subentities,
		}
		for _, a := range e.Attributes {
			se.Attributes = append(se.Attributes, NewField(a))
		}
		for _, r := range e.Relationships {
			se.Relationships = append(se.Relationships, NewEdge(r))
		}
		s.Entities = append(s.Entities, se)
	}
	return s
}

// Model builds a schema.Model from the serialized form. Unknown type or rule
// names fail, and so does a model whose references do not resolve.
func (s *Schema) Model() (*schema.Model, error) {
	m, err := schema.New()
	if err != nil {
		return nil, err
	}
	for _, se := range s.Entities {
		e := &schema.Entity{
			Name:        se.Name,
			ClassName:   se.ClassName,
			Subentities: se.Subentities,
		}
		for _, f := range se.Attributes {
			a, err := f.attribute()
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", se.Name, err)
			}
			if err := e.AddAttribute(a); err != nil {
				return nil, err
			}
		}
		for _, ed := range se.Relationships {
			r, err := ed.relationship()
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", se.Name, err)
			}
			if err := e.AddRelationship(r); err != nil {
				return nil, err
			}
		}
		if err := m.Add(e); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *Field) attribute() (*schema.Attribute, error) {
	t, err := field.ParseType(f.Type)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", f.Name, err)
	}
	return &schema.Attribute{
		Name:     f.Name,
		Type:     t,
		Optional: f.Optional,
		Indexed:  f.Indexed,
	}, nil
}

func (e *Edge) relationship() (*schema.Relationship, error) {
	rule := edge.DefaultDeleteRule
	if e.DeleteRule != "" {
		var err error
		if rule, err = edge.ParseDeleteRule(e.DeleteRule); err != nil {
			return nil, fmt.Errorf("relationship %q: %w", e.Name, err)
		}
	}
	r := &schema.Relationship{
		Name:        e.Name,
		Destination: e.Destination,
		Inverse:     e.Inverse,
		DeleteRule:  rule,
		Optional:    e.Optional,
		Transient:   e.Transient,
	}
	if e.MinCount != nil {
		r.MinCount = schema.Count(*e.MinCount)
	}
	if e.MaxCount != nil {
		r.MaxCount = schema.Count(*e.MaxCount)
	}
	return r, nil
}

// MarshalSchema encodes m into JSON that can be decoded with UnmarshalSchema.
func MarshalSchema(m *schema.Model) ([]byte, error) {
	return json.Marshal(NewSchema(m))
}

// UnmarshalSchema decodes a JSON buffer into a model.
func UnmarshalSchema(buf []byte) (*schema.Model, error) {
	s := &Schema{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	return s.Model()
}
