package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	dag "github.com/dominikbraun/graph"

	"github.com/mschmiderer/mogenerator/schema"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("mogenerator: cyclic dependencies")

// CycleError reports that no topological order exists.
type CycleError struct {
	// Remaining lists, in model order, the entities that could not be placed:
	// the cycle members and everything depending on them.
	Remaining []string
	// Cycles lists the groups of entities that depend on each other.
	Cycles [][]string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString("mogenerator: cyclic dependencies")
	for i, c := range e.Cycles {
		if i == 0 {
			b.WriteString(" among ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(strings.Join(c, ", "))
	}
	if len(e.Remaining) > 0 {
		fmt.Fprintf(&b, " (%d entities unplaced)", len(e.Remaining))
	}
	return b.String()
}

// Is reports whether the target matches ErrCycle.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// IsCycleError returns true if the error is, or wraps, a CycleError.
func IsCycleError(err error) bool {
	var e *CycleError
	return errors.As(err, &e)
}

func newCycleError(m *schema.Model, g dag.Graph[string, string]) *CycleError {
	less := byModelOrder(m)
	cerr := &CycleError{}
	sccs, err := dag.StronglyConnectedComponents(g)
	if err != nil {
		return cerr
	}
	unplaced := make(map[string]bool)
	for _, c := range sccs {
		if len(c) < 2 {
			continue
		}
		slices.SortFunc(c, func(a, b string) int { return compare(less, a, b) })
		cerr.Cycles = append(cerr.Cycles, c)
		for _, name := range c {
			// Everything reachable from a cycle member depends on it.
			_ = dag.DFS(g, name, func(v string) bool {
				unplaced[v] = true
				return false
			})
		}
	}
	slices.SortFunc(cerr.Cycles, func(a, b []string) int { return compare(less, a[0], b[0]) })
	for _, name := range m.Names() {
		if unplaced[name] {
			cerr.Remaining = append(cerr.Remaining, name)
		}
	}
	return cerr
}

func compare(less func(a, b string) bool, a, b string) int {
	switch {
	case less(a, b):
		return -1
	case less(b, a):
		return 1
	default:
		return 0
	}
}
