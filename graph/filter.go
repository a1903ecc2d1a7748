package graph

import (
	"fmt"
	"strings"

	"github.com/mschmiderer/mogenerator/schema"
)

// DependencyFilter decides whether a relationship counts as a dependency
// edge. Sort accepts any implementation.
type DependencyFilter interface {
	IncludeAsDependency(r *schema.Relationship) bool
}

// The FilterFunc type is an adapter to allow the use of ordinary functions
// as dependency filters.
type FilterFunc func(*schema.Relationship) bool

// IncludeAsDependency calls f(r).
func (f FilterFunc) IncludeAsDependency(r *schema.Relationship) bool { return f(r) }

var (
	// DefaultFilter counts every relationship that is not transient.
	DefaultFilter DependencyFilter = FilterFunc(func(r *schema.Relationship) bool {
		return !r.Transient
	})

	// ToOneFilter counts non-transient to-one relationships only. Those are
	// the relationships that hold a foreign key in a relational mapping.
	ToOneFilter DependencyFilter = FilterFunc(func(r *schema.Relationship) bool {
		return !r.Transient && !r.ToMany()
	})

	// NoDependencies counts nothing. Sorting with it returns the model order.
	NoDependencies DependencyFilter = FilterFunc(func(*schema.Relationship) bool {
		return false
	})
)

// AllOf returns a filter accepting a relationship only if every given filter does.
func AllOf(filters ...DependencyFilter) DependencyFilter {
	return FilterFunc(func(r *schema.Relationship) bool {
		for _, f := range filters {
			if !f.IncludeAsDependency(r) {
				return false
			}
		}
		return true
	})
}

// ParseFilter returns the predefined filter registered under name:
// "default" (or "all"), "to-one" or "none".
func ParseFilter(name string) (DependencyFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "all":
		return DefaultFilter, nil
	case "to-one", "toone":
		return ToOneFilter, nil
	case "none":
		return NoDependencies, nil
	default:
		return nil, fmt.Errorf("graph: unknown dependency filter %q", name)
	}
}
