// Package graphql renders a schema.Model as a GraphQL schema (SDL).
//
// Every entity becomes an object type implementing the Relay Node interface,
// in dependency order. Attributes map to scalar fields; the custom scalars
// Int64, Decimal, Time, Bytes and Any are declared when used. Relationships
// map to object or list fields annotated with the @relationship directive,
// which carries the inverse and the delete rule. A subentity repeats the
// fields of its superentity. A Query type lists every entity:
//
//	sdl, err := graphql.New(graphql.WithFilter(graph.ToOneFilter)).SDL(m)
package graphql
