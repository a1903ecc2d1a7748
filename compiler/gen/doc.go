// Package gen generates Go model structs from a schema.Model.
//
// Every entity becomes a struct in its own file, named after the class name
// of the entity when it has one. Attributes map to typed fields, to-one
// relationships to pointers and to-many relationships to slices of pointers.
// A subentity embeds the struct of its superentity.
//
// The generated entities.go lists the entity names in dependency order, as
// computed by graph.Sort with the configured filter:
//
//	metrics, err := gen.Generate(ctx, m,
//	    gen.WithTarget("internal/models"),
//	    gen.WithFilter(graph.ToOneFilter),
//	)
package gen
