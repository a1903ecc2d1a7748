package sqlschema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"github.com/go-openapi/inflect"

	"github.com/mschmiderer/mogenerator/dialect"
	"github.com/mschmiderer/mogenerator/graph"
	model "github.com/mschmiderer/mogenerator/schema"
	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithDialect sets the target dialect. The default is dialect.SQLite.
func WithDialect(name string) Option {
	return func(x *Exporter) {
		x.dialect = name
	}
}

// WithSchemaName sets the name of the generated schema. The default is "main".
func WithSchemaName(name string) Option {
	return func(x *Exporter) {
		x.schemaName = name
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

// Exporter converts models to SQL schemas of one dialect.
type Exporter struct {
	dialect    string
	schemaName string
	log        *slog.Logger
}

// New returns an Exporter configured by opts.
func New(opts ...Option) *Exporter {
	x := &Exporter{dialect: dialect.SQLite, schemaName: "main", log: slog.Default()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Dialect returns the target dialect.
func (x *Exporter) Dialect() string { return x.dialect }

// ForeignKeyFilter accepts the relationships of m that hold a foreign key
// column: non-transient to-one relationships. Of a one-to-one pair only the
// side owned by the entity that comes later in m holds the key.
func ForeignKeyFilter(m *model.Model) graph.DependencyFilter {
	return graph.FilterFunc(func(r *model.Relationship) bool {
		if r.Transient || r.ToMany() {
			return false
		}
		inv := inverse(m, r)
		if inv == nil || inv.Transient || inv.ToMany() {
			return true
		}
		return !before(m, inv.Destination, r.Name, r.Destination, inv.Name)
	})
}

// Schema builds the tables of m in dependency order, followed by the join
// tables.
func (x *Exporter) Schema(m *model.Model) (*schema.Schema, error) {
	types, idType, err := typeMap(x.dialect)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("sqlschema: %w", err)
	}
	order, err := tableOrder(m)
	if err != nil {
		return nil, fmt.Errorf("sqlschema: order tables: %w", err)
	}
	b := &builder{
		m:      m,
		fk:     ForeignKeyFilter(m),
		types:  types,
		idType: idType,
		s:      schema.New(x.schemaName),
		tables: make(map[string]*schema.Table, m.Len()),
		names:  make(map[string]string, m.Len()),
	}
	for _, e := range order {
		t, err := b.entityTable(e)
		if err != nil {
			return nil, err
		}
		x.log.Debug("sql table", "dialect", x.dialect, "table", t.Name, "entity", e.Name, "columns", len(t.Columns))
	}
	for _, e := range m.Entities() {
		for _, r := range e.Relationships {
			if !b.joined(e, r) {
				continue
			}
			t, err := b.joinTable(e, r)
			if err != nil {
				return nil, err
			}
			x.log.Debug("sql join table", "dialect", x.dialect, "table", t.Name, "entity", e.Name, "relationship", r.Name)
		}
	}
	return b.s, nil
}

// DDL plans the statements creating the tables of m.
func (x *Exporter) DDL(ctx context.Context, m *model.Model) ([]string, error) {
	s, err := x.Schema(m)
	if err != nil {
		return nil, err
	}
	pl, err := planner(x.dialect)
	if err != nil {
		return nil, err
	}
	changes := make([]schema.Change, len(s.Tables))
	for i, t := range s.Tables {
		changes[i] = &schema.AddTable{T: t}
	}
	plan, err := pl.PlanChanges(ctx, "create_tables", changes, unqualified)
	if err != nil {
		return nil, fmt.Errorf("sqlschema: plan %s tables: %w", x.dialect, err)
	}
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	x.log.Info("planned sql schema", "dialect", x.dialect, "tables", len(s.Tables), "statements", len(stmts))
	return stmts, nil
}

// Script joins statements into one SQL script.
func Script(stmts []string) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	return b.String()
}

// unqualified plans table names without a schema prefix.
func unqualified(o *migrate.PlanOptions) {
	q := ""
	o.SchemaQualifier = &q
}

func planner(name string) (migrate.PlanApplier, error) {
	switch name {
	case dialect.SQLite:
		return sqlite.DefaultPlan, nil
	case dialect.Postgres:
		return postgres.DefaultPlan, nil
	case dialect.MySQL:
		return mysql.DefaultPlan, nil
	default:
		return nil, fmt.Errorf("sqlschema: unsupported dialect %q", name)
	}
}

// tableOrder sorts the entities so that every table follows the tables its
// foreign keys reference, including the table of its superentity.
func tableOrder(m *model.Model) ([]*model.Entity, error) {
	c := m.Clone()
	inherits := make(map[*model.Relationship]bool)
	for _, e := range c.Entities() {
		if super, ok := c.Superentity(e.Name); ok {
			r := &model.Relationship{Destination: super.Name, MaxCount: model.Count(1)}
			e.Relationships = append(e.Relationships, r)
			inherits[r] = true
		}
	}
	fk := ForeignKeyFilter(c)
	sorted, err := graph.Sort(c, graph.FilterFunc(func(r *model.Relationship) bool {
		return inherits[r] || fk.IncludeAsDependency(r)
	}))
	if err != nil {
		return nil, err
	}
	order := make([]*model.Entity, len(sorted))
	for i, e := range sorted {
		order[i], _ = m.Entity(e.Name)
	}
	return order, nil
}

type builder struct {
	m      *model.Model
	fk     graph.DependencyFilter
	types  map[field.Type]schema.Type
	idType schema.Type
	s      *schema.Schema
	tables map[string]*schema.Table // by entity name
	names  map[string]string        // table name to its source
}

func (b *builder) newTable(name, source string) (*schema.Table, error) {
	if other, ok := b.names[name]; ok {
		return nil, fmt.Errorf("sqlschema: table %q of %s already used by %s", name, source, other)
	}
	b.names[name] = source
	t := schema.NewTable(name)
	b.s.AddTables(t)
	return t, nil
}

func (b *builder) entityTable(e *model.Entity) (*schema.Table, error) {
	t, err := b.newTable(tableName(e.Name), "entity "+e.Name)
	if err != nil {
		return nil, err
	}
	b.tables[e.Name] = t
	id := schema.NewColumn("id").SetType(b.idType)
	t.AddColumns(id)
	t.SetPrimaryKey(schema.NewPrimaryKey(id))
	if super, ok := b.m.Superentity(e.Name); ok {
		st := b.tables[super.Name]
		t.AddForeignKeys(schema.NewForeignKey(t.Name+"_"+st.Name).
			AddColumns(id).
			SetRefTable(st).
			AddRefColumns(st.Columns[0]).
			SetOnDelete(schema.Cascade))
	}
	used := map[string]string{"id": "the primary key"}
	claim := func(col, prop string) error {
		if other, ok := used[col]; ok {
			return fmt.Errorf("sqlschema: column %s.%s of %s.%s already used by %s", t.Name, col, e.Name, prop, other)
		}
		used[col] = e.Name + "." + prop
		return nil
	}
	for _, a := range e.Attributes {
		name := columnName(a.Name)
		if err := claim(name, a.Name); err != nil {
			return nil, err
		}
		typ, ok := b.types[a.Type]
		if !ok {
			return nil, fmt.Errorf("sqlschema: attribute %s.%s has unsupported type %s", e.Name, a.Name, a.Type)
		}
		c := schema.NewColumn(name).SetType(typ).SetNull(a.Optional)
		t.AddColumns(c)
		if a.Indexed {
			t.AddIndexes(schema.NewIndex(t.Name + "_" + name).AddColumns(c))
		}
	}
	for _, r := range e.Relationships {
		if !b.fk.IncludeAsDependency(r) {
			continue
		}
		name := columnName(r.Name) + "_id"
		if err := claim(name, r.Name); err != nil {
			return nil, err
		}
		ref, ok := b.tables[r.Destination]
		if !ok {
			return nil, fmt.Errorf("sqlschema: table of %s referenced by %s.%s is not created yet", r.Destination, e.Name, r.Name)
		}
		c := schema.NewColumn(name).SetType(b.idType).SetNull(nullable(r))
		t.AddColumns(c)
		t.AddForeignKeys(schema.NewForeignKey(t.Name + "_" + name).
			AddColumns(c).
			SetRefTable(ref).
			AddRefColumns(ref.Columns[0]).
			SetOnDelete(onDelete(r.DeleteRule)))
	}
	return t, nil
}

// joined reports if r of e is stored in a join table created for e. A
// many-to-many pair is stored once, on the side that comes first in the model.
func (b *builder) joined(e *model.Entity, r *model.Relationship) bool {
	if r.Transient || !r.ToMany() {
		return false
	}
	inv := inverse(b.m, r)
	if inv == nil || inv.Transient {
		return true
	}
	if !inv.ToMany() {
		return false
	}
	return !before(b.m, r.Destination, inv.Name, e.Name, r.Name)
}

func (b *builder) joinTable(e *model.Entity, r *model.Relationship) (*schema.Table, error) {
	owner, ref := b.tables[e.Name], b.tables[r.Destination]
	t, err := b.newTable(owner.Name+"_"+columnName(r.Name), "relationship "+e.Name+"."+r.Name)
	if err != nil {
		return nil, err
	}
	from := columnName(e.Name) + "_id"
	to := inflect.Singularize(columnName(r.Name)) + "_id"
	if from == to {
		return nil, fmt.Errorf("sqlschema: join table %s of %s.%s needs two columns named %s", t.Name, e.Name, r.Name, from)
	}
	c1 := schema.NewColumn(from).SetType(b.idType)
	c2 := schema.NewColumn(to).SetType(b.idType)
	t.AddColumns(c1, c2)
	t.SetPrimaryKey(schema.NewPrimaryKey(c1, c2))
	t.AddForeignKeys(
		schema.NewForeignKey(t.Name+"_"+from).
			AddColumns(c1).
			SetRefTable(owner).
			AddRefColumns(owner.Columns[0]).
			SetOnDelete(schema.Cascade),
		schema.NewForeignKey(t.Name+"_"+to).
			AddColumns(c2).
			SetRefTable(ref).
			AddRefColumns(ref.Columns[0]).
			SetOnDelete(schema.Cascade),
	)
	return t, nil
}

// inverse returns the inverse relationship of r, or nil if r has none.
func inverse(m *model.Model, r *model.Relationship) *model.Relationship {
	if r.Inverse == "" {
		return nil
	}
	dest, ok := m.Entity(r.Destination)
	if !ok {
		return nil
	}
	inv, ok := dest.Relationship(r.Inverse)
	if !ok {
		return nil
	}
	return inv
}

// before reports if relationship r1 of e1 sorts before r2 of e2, comparing
// model positions first and relationship names second.
func before(m *model.Model, e1, r1, e2, r2 string) bool {
	i1, i2 := m.Index(e1), m.Index(e2)
	if i1 != i2 {
		return i1 < i2
	}
	return r1 < r2
}

// nullable reports if the foreign key column of r accepts NULL. SET NULL
// needs a nullable column.
func nullable(r *model.Relationship) bool {
	required := !r.Optional && r.MinCount != nil && *r.MinCount > 0
	return !required || r.DeleteRule == edge.Nullify
}

func onDelete(rule edge.DeleteRule) schema.ReferenceOption {
	switch rule {
	case edge.Nullify:
		return schema.SetNull
	case edge.Cascade:
		return schema.Cascade
	case edge.Deny:
		return schema.Restrict
	default:
		return schema.NoAction
	}
}

// tableName returns the table of an entity: BlogPost => blog_posts.
func tableName(entity string) string {
	return inflect.Pluralize(columnName(entity))
}

// columnName returns the column of a property: createdAt => created_at.
func columnName(name string) string {
	return inflect.Underscore(name)
}
