// Package sqlschema maps a schema.Model onto relational tables and plans the
// DDL that creates them.
//
// Every entity becomes a table with an integer "id" primary key. Attributes
// become columns and indexed attributes get an index. To-one relationships
// hold a "<relationship>_id" foreign key whose ON DELETE action follows the
// delete rule:
//
//	no-action => NO ACTION
//	nullify   => SET NULL
//	cascade   => CASCADE
//	deny      => RESTRICT
//
// To-many relationships without a to-one inverse are stored in join tables,
// and a subentity table shares its primary key with the table of its
// superentity. Tables are emitted in dependency order, so a table always
// follows the tables it references:
//
//	stmts, err := sqlschema.New(sqlschema.WithDialect(dialect.Postgres)).DDL(ctx, m)
package sqlschema
