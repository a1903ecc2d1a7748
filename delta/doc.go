// Package delta evolves a schema.Model with declarative batches of
// "add entity" and "extend entity" operations.
//
// A delta is parsed from already decoded data (or from JSON and YAML text) into
// a Batch, then applied by an Applier:
//
//	batch, err := delta.ParseJSON([]byte(`[
//	    {"operation": "add entity", "name": "Widget",
//	     "attributes": [{"name": "title", "type": "string"}]},
//	    {"operation": "extend entity", "name": "User",
//	     "relationships": [{"name": "widgets", "destination": "Widget"}]}
//	]`))
//	if err != nil {
//	    return err
//	}
//	res := delta.NewApplier(delta.WithPolicy(delta.SkipOnError)).Apply(m, batch)
//	for _, d := range res.Diagnostics {
//	    log.Println(d)
//	}
//	return res.Err()
//
// Each operation is all or nothing: it is staged and validated in full and only
// then written to the model. Missing inverses and defaulted delete rules are
// reported as Diagnostics and never reject an operation.
package delta
