package graph

import (
	"errors"
	"fmt"
	"slices"

	dag "github.com/dominikbraun/graph"

	"github.com/mschmiderer/mogenerator/schema"
)

// Sort returns the entities of m in dependency order: for every relationship
// from A to B accepted by f, B precedes A. A nil filter means DefaultFilter.
//
// Relationships whose destination is their own entity never constrain the
// order. Entities that are free to go at the same step keep their model
// order, so the output is deterministic. If the dependencies contain a cycle
// no order is returned and the error is a *CycleError.
func Sort(m *schema.Model, f DependencyFilter) ([]*schema.Entity, error) {
	g, err := build(m, f)
	if err != nil {
		return nil, err
	}
	order, err := dag.StableTopologicalSort(g, byModelOrder(m))
	if err != nil {
		return nil, newCycleError(m, g)
	}
	sorted := make([]*schema.Entity, 0, len(order))
	for _, name := range order {
		e, _ := m.Entity(name)
		sorted = append(sorted, e)
	}
	return sorted, nil
}

// SortNames is like Sort but returns entity names.
func SortNames(m *schema.Model, f DependencyFilter) ([]string, error) {
	sorted, err := Sort(m, f)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.Name
	}
	return names, nil
}

// Dependencies returns, for every entity, the names of the entities it
// depends on under f, in relationship order and without duplicates.
// Self references are left out.
func Dependencies(m *schema.Model, f DependencyFilter) (map[string][]string, error) {
	if f == nil {
		f = DefaultFilter
	}
	deps := make(map[string][]string, m.Len())
	for _, e := range m.Entities() {
		deps[e.Name] = []string{}
		for _, r := range e.Relationships {
			if !m.Has(r.Destination) {
				return nil, schema.NewReferenceError(e.Name, r.Name, schema.RefDestination, r.Destination)
			}
			if r.Destination == e.Name || !f.IncludeAsDependency(r) || slices.Contains(deps[e.Name], r.Destination) {
				continue
			}
			deps[e.Name] = append(deps[e.Name], r.Destination)
		}
	}
	return deps, nil
}

// build creates the dependency graph. An edge B -> A means B must be
// placed before A.
func build(m *schema.Model, f DependencyFilter) (dag.Graph[string, string], error) {
	deps, err := Dependencies(m, f)
	if err != nil {
		return nil, err
	}
	g := dag.New(dag.StringHash, dag.Directed())
	for _, name := range m.Names() {
		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", name, err)
		}
	}
	for _, name := range m.Names() {
		for _, dep := range deps[name] {
			if err := g.AddEdge(dep, name); err != nil && !errors.Is(err, dag.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("add edge %s -> %s: %w", dep, name, err)
			}
		}
	}
	return g, nil
}

func byModelOrder(m *schema.Model) func(a, b string) bool {
	pos := make(map[string]int, m.Len())
	for i, name := range m.Names() {
		pos[name] = i
	}
	return func(a, b string) bool { return pos[a] < pos[b] }
}
