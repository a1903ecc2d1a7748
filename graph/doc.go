// Package graph orders the entities of a schema.Model by their dependencies.
//
// An entity depends on the destination of each of its relationships that the
// active DependencyFilter accepts. Sort places every dependency before the
// entities that need it, which is the order in which entities can be created
// so that every referenced entity already exists:
//
//	sorted, err := graph.Sort(m, nil) // nil means graph.DefaultFilter
//	if graph.IsCycleError(err) {
//	    // no order exists
//	}
//
// # Filters
//
// DefaultFilter counts every non-transient relationship. Any type with an
// IncludeAsDependency method can replace it:
//
//	small := graph.FilterFunc(func(r *schema.Relationship) bool {
//	    return r.MaxCount != nil && *r.MaxCount <= 10
//	})
//	sorted, err := graph.Sort(m, graph.AllOf(graph.DefaultFilter, small))
//
// # Cycles
//
// A relationship from an entity to itself never blocks that entity. Cycles
// between two or more distinct entities make Sort fail with a *CycleError
// naming the entities involved; a partial order is never returned.
package graph
