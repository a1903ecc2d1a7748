// Package mogenerator orders and evolves object model descriptions.
//
// The model itself lives in package schema. This package holds the two entry
// points most callers need:
//
//	sorted, err := mogenerator.EntitiesInTopologicalOrder(m)
//	res, err := mogenerator.ApplyModelDelta(m, `{"operation": "add entity", "name": "Widget"}`)
//
// Packages graph and delta expose the underlying sorter, parser and applier.
package mogenerator

import (
	"encoding/json"

	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
)

// EntitiesInTopologicalOrder returns all entities of m so that every entity
// follows the destinations of its non-transient relationships.
func EntitiesInTopologicalOrder(m *schema.Model) ([]*schema.Entity, error) {
	return graph.Sort(m, graph.DefaultFilter)
}

// EntitiesInTopologicalOrderUsingFilter is like EntitiesInTopologicalOrder but
// lets f decide which relationships are dependencies.
func EntitiesInTopologicalOrderUsingFilter(m *schema.Model, f graph.DependencyFilter) ([]*schema.Entity, error) {
	return graph.Sort(m, f)
}

// ApplyModelDelta applies a delta specification to m. spec is either decoded
// data (a map or a list of maps) or JSON text given as a string, []byte or
// json.RawMessage.
//
// The result is nil only if spec has the wrong top-level shape. Otherwise the
// returned error is res.Err(): nil when every operation applied.
func ApplyModelDelta(m *schema.Model, spec any, opts ...delta.Option) (*delta.Result, error) {
	var (
		b   delta.Batch
		err error
	)
	switch v := spec.(type) {
	case string:
		b, err = delta.ParseJSON([]byte(v))
	case []byte:
		b, err = delta.ParseJSON(v)
	case json.RawMessage:
		b, err = delta.ParseJSON(v)
	default:
		b, err = delta.Parse(v)
	}
	if err != nil {
		return nil, err
	}
	return apply(m, b, opts)
}

// ApplyModelDeltaFile reads a JSON or YAML delta specification from path and
// applies it to m.
func ApplyModelDeltaFile(m *schema.Model, path string, opts ...delta.Option) (*delta.Result, error) {
	b, err := delta.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return apply(m, b, opts)
}

func apply(m *schema.Model, b delta.Batch, opts []delta.Option) (*delta.Result, error) {
	res := delta.NewApplier(opts...).Apply(m, b)
	return res, res.Err()
}
