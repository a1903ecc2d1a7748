package mogenerator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mschmiderer/mogenerator"
	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "cycle", err: &graph.CycleError{Cycles: [][]string{{"A", "B"}}}, check: mogenerator.IsCycle},
		{name: "unresolved", err: schema.NewReferenceError("Post", "author", schema.RefDestination, "User"), check: mogenerator.IsUnresolved},
		{name: "collision", err: schema.NewCollisionError("User", "", schema.KindEntity), check: mogenerator.IsCollision},
		{name: "malformed", err: &delta.ParseError{Index: 0, Field: "name", Message: "missing required field"}, check: mogenerator.IsMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))

			// Wrapped error
			assert.True(t, tt.check(fmt.Errorf("wrapper: %w", tt.err)))

			// Operation error
			assert.True(t, tt.check(&delta.OpError{Index: 1, Kind: delta.KindAddEntity, Entity: "X", Err: tt.err}))

			// Non-matching error
			assert.False(t, tt.check(errors.New("other error")))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	assert.Contains(t, mogenerator.ErrCycle.Error(), "cyclic")
	assert.Contains(t, mogenerator.ErrUnresolved.Error(), "unresolved")
	assert.Contains(t, mogenerator.ErrCollision.Error(), "collision")
	assert.Contains(t, mogenerator.ErrMalformed.Error(), "malformed")
}
