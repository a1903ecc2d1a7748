package graphql

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// GraphQL names used by the exporter.
const (
	// FieldID is the identifier field of every object type.
	FieldID = "id"
	// NodeInterface is the Relay node interface.
	NodeInterface = "Node"
	// QueryType is the root query type.
	QueryType = "Query"
	// RelationshipDirective annotates relationship fields.
	RelationshipDirective = "relationship"
	// DeleteRuleEnum is the enum of delete rules.
	DeleteRuleEnum = "DeleteRule"
)

// scalars maps attribute types to GraphQL types. Custom scalars are declared
// in the order of customScalars.
var (
	scalars = map[field.Type]string{
		field.TypeUndefined:     "Any",
		field.TypeInteger16:     "Int",
		field.TypeInteger32:     "Int",
		field.TypeInteger64:     "Int64",
		field.TypeDecimal:       "Decimal",
		field.TypeDouble:        "Float",
		field.TypeFloat:         "Float",
		field.TypeString:        "String",
		field.TypeBoolean:       "Boolean",
		field.TypeDate:          "Time",
		field.TypeBinaryData:    "Bytes",
		field.TypeTransformable: "Any",
		field.TypeObjectID:      "ID",
	}
	customScalars = []string{"Int64", "Decimal", "Time", "Bytes", "Any"}
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithFilter sets the dependency filter ordering the object types.
// The default is graph.ToOneFilter.
func WithFilter(f graph.DependencyFilter) Option {
	return func(x *Exporter) {
		if f != nil {
			x.filter = f
		}
	}
}

// WithNodeInterface toggles the Relay Node interface and the node query.
// It is enabled by default.
func WithNodeInterface(enabled bool) Option {
	return func(x *Exporter) {
		x.node = enabled
	}
}

// WithQuery toggles the generation of the Query type. It is enabled by default.
func WithQuery(enabled bool) Option {
	return func(x *Exporter) {
		x.query = enabled
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(x *Exporter) {
		if l != nil {
			x.log = l
		}
	}
}

// Exporter converts models to GraphQL schema documents.
type Exporter struct {
	filter graph.DependencyFilter
	node   bool
	query  bool
	log    *slog.Logger
}

// New returns an Exporter configured by opts.
func New(opts ...Option) *Exporter {
	x := &Exporter{filter: graph.ToOneFilter, node: true, query: true, log: slog.Default()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// SDL returns the GraphQL schema of m as text.
func (x *Exporter) SDL(m *schema.Model) (string, error) {
	var buf bytes.Buffer
	if err := x.Write(&buf, m); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write formats the GraphQL schema of m to w.
func (x *Exporter) Write(w io.Writer, m *schema.Model) error {
	doc, err := x.Document(m)
	if err != nil {
		return err
	}
	formatter.NewFormatter(w, formatter.WithIndent("  ")).FormatSchemaDocument(doc)
	return nil
}

// Document builds the GraphQL schema document of m.
func (x *Exporter) Document(m *schema.Model) (*ast.SchemaDocument, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("graphql: %w", err)
	}
	sorted, err := graph.Sort(m, x.filter)
	if err != nil {
		return nil, fmt.Errorf("graphql: order types: %w", err)
	}
	b := &builder{m: m, node: x.node, names: make(map[string]string), used: make(map[string]bool)}
	b.names[QueryType] = "the query type"
	if x.node {
		b.names[NodeInterface] = "the node interface"
	}
	for _, e := range sorted {
		if err := b.claim(e); err != nil {
			return nil, err
		}
	}
	var objects ast.DefinitionList
	for _, e := range sorted {
		def, err := b.object(e)
		if err != nil {
			return nil, err
		}
		objects = append(objects, def)
		x.log.Debug("graphql type", "type", def.Name, "entity", e.Name, "fields", len(def.Fields))
	}

	doc := &ast.SchemaDocument{}
	for _, s := range customScalars {
		if b.used[s] {
			doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: s})
		}
	}
	if b.relationships {
		doc.Directives = append(doc.Directives, relationshipDirective())
		doc.Definitions = append(doc.Definitions, deleteRuleEnum())
	}
	if x.node {
		doc.Definitions = append(doc.Definitions, &ast.Definition{
			Kind:        ast.Interface,
			Name:        NodeInterface,
			Description: "An object with an ID.",
			Fields:      ast.FieldList{idField()},
		})
	}
	doc.Definitions = append(doc.Definitions, objects...)
	if x.query && len(sorted) > 0 {
		doc.Definitions = append(doc.Definitions, b.queryType(sorted))
	}
	return doc, nil
}

type builder struct {
	m             *schema.Model
	node          bool
	names         map[string]string // type names to their source
	types         map[string]string // entity names to type names
	used          map[string]bool   // referenced custom scalars
	relationships bool
}

// TypeName returns the GraphQL type name of e: the class name if set,
// otherwise the entity name, camelized.
func TypeName(e *schema.Entity) string {
	name := e.ClassName
	if name == "" {
		name = e.Name
	}
	return inflect.Camelize(name)
}

// FieldName returns the GraphQL field name of a property: created_at => createdAt.
func FieldName(name string) string {
	return inflect.CamelizeDownFirst(name)
}

func (b *builder) claim(e *schema.Entity) error {
	if b.types == nil {
		b.types = make(map[string]string)
	}
	name := TypeName(e)
	if other, ok := b.names[name]; ok {
		return fmt.Errorf("graphql: type %s of entity %s already used by %s", name, e.Name, other)
	}
	b.names[name] = "entity " + e.Name
	b.types[e.Name] = name
	return nil
}

func (b *builder) object(e *schema.Entity) (*ast.Definition, error) {
	def := &ast.Definition{Kind: ast.Object, Name: b.types[e.Name]}
	if def.Name != e.Name {
		def.Description = fmt.Sprintf("%s entity.", e.Name)
	}
	if b.node {
		def.Interfaces = []string{NodeInterface}
	}
	chain, err := b.chain(e)
	if err != nil {
		return nil, err
	}
	if len(chain) > 1 {
		def.Description = strings.TrimSpace(def.Description + " Subentity of " + chain[len(chain)-2].Name + ".")
	}
	used := map[string]string{FieldID: "the identifier"}
	def.Fields = append(def.Fields, idField())
	for _, owner := range chain {
		for _, a := range owner.Attributes {
			f, err := b.attribute(a)
			if err != nil {
				return nil, fmt.Errorf("graphql: %s.%s: %w", owner.Name, a.Name, err)
			}
			if other, ok := used[f.Name]; ok {
				return nil, fmt.Errorf("graphql: field %s.%s of %s.%s already used by %s", def.Name, f.Name, owner.Name, a.Name, other)
			}
			used[f.Name] = owner.Name + "." + a.Name
			def.Fields = append(def.Fields, f)
		}
		for _, r := range owner.Relationships {
			if r.Transient {
				continue
			}
			f := b.relationship(r)
			if other, ok := used[f.Name]; ok {
				return nil, fmt.Errorf("graphql: field %s.%s of %s.%s already used by %s", def.Name, f.Name, owner.Name, r.Name, other)
			}
			used[f.Name] = owner.Name + "." + r.Name
			def.Fields = append(def.Fields, f)
		}
	}
	return def, nil
}

// chain returns the superentities of e from the root down, followed by e.
func (b *builder) chain(e *schema.Entity) ([]*schema.Entity, error) {
	chain := []*schema.Entity{e}
	seen := map[string]bool{e.Name: true}
	for cur := e; ; {
		super, ok := b.m.Superentity(cur.Name)
		if !ok {
			break
		}
		if seen[super.Name] {
			return nil, fmt.Errorf("graphql: cyclic subentity chain through %s", super.Name)
		}
		seen[super.Name] = true
		chain = append([]*schema.Entity{super}, chain...)
		cur = super
	}
	return chain, nil
}

func (b *builder) attribute(a *schema.Attribute) (*ast.FieldDefinition, error) {
	name, ok := scalars[a.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported attribute type %s", a.Type)
	}
	for _, s := range customScalars {
		if s == name {
			b.used[s] = true
		}
	}
	f := &ast.FieldDefinition{Name: FieldName(a.Name)}
	if a.Optional {
		f.Type = ast.NamedType(name, nil)
	} else {
		f.Type = ast.NonNullNamedType(name, nil)
	}
	return f, nil
}

func (b *builder) relationship(r *schema.Relationship) *ast.FieldDefinition {
	b.relationships = true
	dest := b.types[r.Destination]
	f := &ast.FieldDefinition{Name: FieldName(r.Name)}
	switch {
	case r.ToMany():
		f.Type = ast.NonNullListType(ast.NonNullNamedType(dest, nil), nil)
	case !r.Optional && r.MinCount != nil && *r.MinCount > 0:
		f.Type = ast.NonNullNamedType(dest, nil)
	default:
		f.Type = ast.NamedType(dest, nil)
	}
	dir := &ast.Directive{Name: RelationshipDirective}
	if r.Inverse != "" {
		dir.Arguments = append(dir.Arguments, &ast.Argument{
			Name:  "inverse",
			Value: &ast.Value{Kind: ast.StringValue, Raw: FieldName(r.Inverse)},
		})
	}
	dir.Arguments = append(dir.Arguments, &ast.Argument{
		Name:  "deleteRule",
		Value: &ast.Value{Kind: ast.EnumValue, Raw: enumValue(r.DeleteRule)},
	})
	f.Directives = ast.DirectiveList{dir}
	return f
}

func (b *builder) queryType(sorted []*schema.Entity) *ast.Definition {
	def := &ast.Definition{Kind: ast.Object, Name: QueryType}
	if b.node {
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        "node",
			Description: "Fetches an object given its ID.",
			Arguments: ast.ArgumentDefinitionList{
				{Name: FieldID, Type: ast.NonNullNamedType("ID", nil)},
			},
			Type: ast.NamedType(NodeInterface, nil),
		})
	}
	for _, e := range sorted {
		name := b.types[e.Name]
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name: FieldName(inflect.Pluralize(name)),
			Type: ast.NonNullListType(ast.NonNullNamedType(name, nil), nil),
		})
	}
	return def
}

func idField() *ast.FieldDefinition {
	return &ast.FieldDefinition{Name: FieldID, Type: ast.NonNullNamedType("ID", nil)}
}

// source marks the generated definitions as user defined. The formatter skips
// directive definitions whose source is builtin and needs one to check.
var source = &ast.Source{Name: "mogen.graphql"}

func relationshipDirective() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Position:    &ast.Position{Src: source},
		Name:        RelationshipDirective,
		Description: "Describes the relationship a field maps.",
		Arguments: ast.ArgumentDefinitionList{
			{Name: "inverse", Type: ast.NamedType("String", nil)},
			{Name: "deleteRule", Type: ast.NonNullNamedType(DeleteRuleEnum, nil)},
		},
		Locations: []ast.DirectiveLocation{ast.LocationFieldDefinition},
	}
}

func deleteRuleEnum() *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.Enum,
		Name:        DeleteRuleEnum,
		Description: "What happens to related objects when an object is deleted.",
	}
	for _, r := range []edge.DeleteRule{edge.NoAction, edge.Nullify, edge.Cascade, edge.Deny} {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: enumValue(r)})
	}
	return def
}

// enumValue returns the enum value of a delete rule: no-action => NO_ACTION.
func enumValue(r edge.DeleteRule) string {
	return strings.ToUpper(strings.ReplaceAll(r.String(), "-", "_"))
}
