package gen

import (
	"go/token"

	"github.com/dave/jennifer/jen"

	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
	"github.com/mschmiderer/mogenerator/schema/field"
)

type (
	// Graph holds the types to generate, in dependency order.
	Graph struct {
		*Config
		// Nodes are the entity types, each one after the types it references.
		Nodes []*Type
		model *schema.Model
	}

	// Type is the Go mapping of one entity.
	Type struct {
		*schema.Entity
		// GoName is the exported struct name: the class name if the entity
		// has one, otherwise the entity name.
		GoName string
		// SliceName names the slice type of the struct.
		SliceName string
		// Super is the type of the superentity, embedded in the struct.
		Super  *Type
		Fields []*Field
		Edges  []*Edge
	}

	// Field is the Go mapping of an attribute.
	Field struct {
		*schema.Attribute
		StructField string
	}

	// Edge is the Go mapping of a relationship.
	Edge struct {
		*schema.Relationship
		StructField string
		// Type is the destination type.
		Type *Type
	}
)

// NewGraph maps the entities of m to Go types. The model must validate and
// must be orderable with the configured filter.
func NewGraph(c *Config, m *schema.Model) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if err := c.defaults(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, NewSchemaError("", "", "model does not validate", err)
	}
	sorted, err := graph.Sort(m, c.Filter)
	if err != nil {
		return nil, NewGenerationError("order", "", "", err)
	}
	g := &Graph{Config: c, model: m}
	byName := make(map[string]*Type, len(sorted))
	goNames := map[string]string{
		"Entity":      "the Entity interface",
		"EntityNames": "the EntityNames list",
		"New":         "the New constructor",
	}
	for _, e := range sorted {
		name := e.ClassName
		if name == "" {
			name = e.Name
		}
		t := &Type{Entity: e, GoName: pascal(name)}
		if !token.IsIdentifier(t.GoName) {
			return nil, NewSchemaError(e.Name, "", "name does not map to a Go identifier", nil)
		}
		if other, ok := goNames[t.GoName]; ok {
			return nil, NewSchemaError(e.Name, "", "Go name "+t.GoName+" already used by "+other, nil)
		}
		goNames[t.GoName] = "entity " + e.Name
		byName[e.Name] = t
		g.Nodes = append(g.Nodes, t)
	}
	for _, t := range g.Nodes {
		t.SliceName = plural(t.GoName)
		if other, ok := goNames[t.SliceName]; ok {
			return nil, NewSchemaError(t.Name, "", "slice type "+t.SliceName+" already used by "+other, nil)
		}
		goNames[t.SliceName] = "the slice type of " + t.Name
	}
	for _, t := range g.Nodes {
		if err := t.resolve(m, byName); err != nil {
			return nil, err
		}
	}
	// Superentities are embedded by value, so their chain must end.
	for _, t := range g.Nodes {
		seen := map[*Type]bool{t: true}
		for s := t.Super; s != nil; s = s.Super {
			if seen[s] {
				return nil, NewSchemaError(t.Name, "", "cyclic subentity chain through "+s.Name, nil)
			}
			seen[s] = true
		}
	}
	return g, nil
}

// Model returns the model the graph was built from.
func (g *Graph) Model() *schema.Model { return g.model }

// EntityNames returns the entity names in dependency order.
func (g *Graph) EntityNames() []string {
	names := make([]string, len(g.Nodes))
	for i, t := range g.Nodes {
		names[i] = t.Name
	}
	return names
}

func (t *Type) resolve(m *schema.Model, byName map[string]*Type) error {
	used := map[string]string{}
	if super, ok := m.Superentity(t.Name); ok {
		t.Super = byName[super.Name]
		used[t.Super.GoName] = super.Name
	}
	claim := func(prop, name string) error {
		if !token.IsIdentifier(name) {
			return NewSchemaError(t.Name, prop, "name does not map to a Go identifier", nil)
		}
		if other, ok := used[name]; ok {
			return NewSchemaError(t.Name, prop, "struct field "+name+" already used by "+other, nil)
		}
		used[name] = prop
		return nil
	}
	for _, a := range t.Attributes {
		f := &Field{Attribute: a, StructField: pascal(a.Name)}
		if err := claim(a.Name, f.StructField); err != nil {
			return err
		}
		t.Fields = append(t.Fields, f)
	}
	for _, r := range t.Relationships {
		e := &Edge{Relationship: r, StructField: pascal(r.Name), Type: byName[r.Destination]}
		if err := claim(r.Name, e.StructField); err != nil {
			return err
		}
		t.Edges = append(t.Edges, e)
	}
	return nil
}

// Receiver returns the receiver name of the type's methods.
func (t *Type) Receiver() string { return receiver(t.GoName) }

// Filename returns the name of the file holding the type.
func (t *Type) Filename() string { return snake(t.GoName) + ".go" }

// Nilable reports if the Go type of the field already has a nil value.
func (f *Field) Nilable() bool {
	switch f.Type {
	case field.TypeBinaryData, field.TypeTransformable, field.TypeUndefined, field.TypeDecimal:
		return true
	default:
		return false
	}
}

// BaseType returns the Go type of the attribute, ignoring optionality.
func (f *Field) BaseType() jen.Code {
	switch f.Type {
	case field.TypeInteger16:
		return jen.Int16()
	case field.TypeInteger32:
		return jen.Int32()
	case field.TypeInteger64:
		return jen.Int64()
	case field.TypeDecimal:
		return jen.Op("*").Qual("math/big", "Rat")
	case field.TypeDouble:
		return jen.Float64()
	case field.TypeFloat:
		return jen.Float32()
	case field.TypeString, field.TypeObjectID:
		return jen.String()
	case field.TypeBoolean:
		return jen.Bool()
	case field.TypeDate:
		return jen.Qual("time", "Time")
	case field.TypeBinaryData:
		return jen.Index().Byte()
	default:
		return jen.Any()
	}
}

// GoType returns the Go type of the struct field. Optional attributes are
// pointers unless the base type is nilable.
func (f *Field) GoType() jen.Code {
	if f.Optional && !f.Nilable() {
		return jen.Op("*").Add(f.BaseType())
	}
	return f.BaseType()
}

// Tags returns the struct tags of the field.
func (f *Field) Tags() map[string]string {
	tag := f.Name
	if f.Optional {
		tag += ",omitempty"
	}
	return map[string]string{"json": tag}
}

// GoType returns the Go type of the relationship field.
func (e *Edge) GoType() jen.Code {
	if e.ToMany() {
		return jen.Index().Op("*").Id(e.Type.GoName)
	}
	return jen.Op("*").Id(e.Type.GoName)
}

// Tags returns the struct tags of the edge. Transient edges are not encoded.
func (e *Edge) Tags() map[string]string {
	if e.Transient {
		return map[string]string{"json": "-"}
	}
	return map[string]string{"json": e.Name + ",omitempty"}
}
