package delta_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/schema"
	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

func parse(t *testing.T, v any) delta.Batch {
	t.Helper()
	b, err := delta.Parse(v)
	require.NoError(t, err)
	return b
}

func userModel() *schema.Model {
	return schema.MustNew(&schema.Entity{
		Name:       "User",
		Attributes: []*schema.Attribute{{Name: "email", Type: field.TypeString, Indexed: true}},
		Relationships: []*schema.Relationship{
			{Name: "manager", Destination: "User", MaxCount: schema.Count(1), DeleteRule: edge.Nullify},
		},
	})
}

func TestApplyAddEntity(t *testing.T) {
	m := schema.MustNew()
	res := delta.NewApplier().Apply(m, parse(t, map[string]any{
		"operation":  "add entity",
		"name":       "Widget",
		"attributes": []any{map[string]any{"name": "title", "type": "string"}},
	}))
	require.True(t, res.OK)
	require.NoError(t, res.Err())
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, res.Diagnostics)

	e, ok := m.Entity("Widget")
	require.True(t, ok)
	assert.Equal(t, []*schema.Attribute{{Name: "title", Type: field.TypeString, Optional: false, Indexed: false}}, e.Attributes)
	assert.Empty(t, e.Relationships)
}

func TestApplyAddEntityFull(t *testing.T) {
	m := userModel()
	require.NoError(t, m.Add(schema.NewEntity("Gadget")))
	res := delta.NewApplier().Apply(m, parse(t, map[string]any{
		"operation": "add entity",
		"name":      "Widget",
		"className": "MOWidget",
		"relationships": []any{
			map[string]any{"name": "owner", "destination": "User", "deleteRule": "cascade", "minCount": 1, "maxCount": 1},
			map[string]any{"name": "parent", "destination": "Widget", "inverse": "children", "maxCount": 1},
			map[string]any{"name": "children", "destination": "Widget", "deleteRule": "cascade"},
		},
		"subentities": []any{"Gadget"},
	}))
	require.True(t, res.OK, "%v", res.Err())

	e, ok := m.Entity("Widget")
	require.True(t, ok)
	assert.Equal(t, "MOWidget", e.ClassName)
	assert.Equal(t, []string{"Gadget"}, e.Subentities)
	require.Len(t, e.Relationships, 3)

	owner := e.Relationships[0]
	assert.Equal(t, edge.Cascade, owner.DeleteRule)
	assert.Equal(t, 1, *owner.MinCount)
	assert.Equal(t, 1, *owner.MaxCount)

	// children had no inverse and is linked back to parent.
	children := e.Relationships[2]
	assert.Equal(t, "parent", children.Inverse)
	assert.True(t, children.ToMany())

	super, ok := m.Superentity("Gadget")
	require.True(t, ok)
	assert.Equal(t, "Widget", super.Name)
	require.NoError(t, m.Validate())
}

func TestApplyExtendEntity(t *testing.T) {
	m := userModel()
	u, _ := m.Entity("User")
	email, manager := u.Attributes[0], u.Relationships[0]

	require.NoError(t, m.Add(schema.NewEntity("Team")))
	res := delta.NewApplier().Apply(m, parse(t, map[string]any{
		"operation": "extend entity",
		"name":      "User",
		"relationships": []any{
			map[string]any{"name": "team", "destination": "Team", "maxCount": 1},
		},
	}))
	require.True(t, res.OK, "%v", res.Err())

	require.Len(t, u.Attributes, 1)
	require.Len(t, u.Relationships, 2)
	assert.Same(t, email, u.Attributes[0])
	assert.Same(t, manager, u.Relationships[0])
	assert.Equal(t, field.TypeString, email.Type)
	assert.True(t, email.Indexed)

	team := u.Relationships[1]
	assert.Equal(t, "team", team.Name)
	assert.Equal(t, "Team", team.Destination)
	assert.Equal(t, edge.Nullify, team.DeleteRule)
	assert.False(t, team.ToMany())

	codes := make(map[string]delta.Diagnostic)
	for _, d := range res.Diagnostics {
		codes[d.Code] = d
	}
	require.Contains(t, codes, delta.CodeDefaultDeleteRule)
	assert.Equal(t, "team", codes[delta.CodeDefaultDeleteRule].Property)
	assert.Equal(t, "User", codes[delta.CodeDefaultDeleteRule].Entity)
	assert.Contains(t, codes[delta.CodeDefaultDeleteRule].Message, "nullify")
	assert.Contains(t, codes, delta.CodeMissingInverse)
	assert.Len(t, res.DiagnosticsFor("User"), 2)
}

func TestApplyInverseBackLink(t *testing.T) {
	m := userModel()
	res := delta.NewApplier().Apply(m, parse(t, []any{
		map[string]any{
			"operation": "add entity",
			"name":      "Post",
			"relationships": []any{
				map[string]any{"name": "author", "destination": "User", "deleteRule": "deny", "maxCount": 1},
			},
		},
		map[string]any{
			"operation": "extend entity",
			"name":      "User",
			"relationships": []any{
				map[string]any{"name": "posts", "destination": "Post", "inverse": "author", "deleteRule": "cascade"},
			},
		},
	}))
	require.True(t, res.OK, "%v", res.Err())
	assert.Equal(t, 2, res.Applied)

	// Only the first operation left out an inverse.
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, delta.CodeMissingInverse, res.Diagnostics[0].Code)
	assert.Equal(t, 0, res.Diagnostics[0].Op)

	post, _ := m.Entity("Post")
	author, _ := post.Relationship("author")
	assert.Equal(t, "posts", author.Inverse)
	assert.Equal(t, edge.Deny, author.DeleteRule)
	require.NoError(t, m.Validate())
}

func TestApplyInverseClaimedOnce(t *testing.T) {
	m := userModel()
	res := delta.NewApplier(delta.WithPolicy(delta.SkipOnError)).Apply(m, parse(t, []any{
		map[string]any{"operation": "add entity", "name": "Post", "relationships": []any{
			map[string]any{"name": "author", "destination": "User", "deleteRule": "deny", "maxCount": 1},
		}},
		// Both relationships name the unpaired author as inverse.
		map[string]any{"operation": "extend entity", "name": "User", "relationships": []any{
			map[string]any{"name": "posts", "destination": "Post", "inverse": "author", "deleteRule": "cascade"},
			map[string]any{"name": "drafts", "destination": "Post", "inverse": "author", "deleteRule": "cascade"},
		}},
		map[string]any{"operation": "extend entity", "name": "User", "relationships": []any{
			map[string]any{"name": "posts", "destination": "Post", "inverse": "author", "deleteRule": "cascade"},
		}},
		// author is paired with posts by now.
		map[string]any{"operation": "extend entity", "name": "User", "relationships": []any{
			map[string]any{"name": "articles", "destination": "Post", "inverse": "author", "deleteRule": "cascade"},
		}},
	}))
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 2, res.Rejected)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Contains(t, res.Errors[0].Error(), "inverse already claimed by posts")
	assert.Equal(t, 3, res.Errors[1].Index)
	assert.Contains(t, res.Errors[1].Error(), "inverse already paired with posts")
	for _, e := range res.Errors {
		var rerr *schema.ReferenceError
		require.ErrorAs(t, e, &rerr)
		assert.Equal(t, schema.RefInverse, rerr.Kind)
	}

	u, _ := m.Entity("User")
	_, ok := u.Relationship("drafts")
	assert.False(t, ok)
	_, ok = u.Relationship("articles")
	assert.False(t, ok)
	post, _ := m.Entity("Post")
	author, _ := post.Relationship("author")
	assert.Equal(t, "posts", author.Inverse)
	require.NoError(t, m.Validate())
}

func TestApplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		op    map[string]any
		check func(*testing.T, error)
	}{
		{
			name: "entity collision",
			op:   map[string]any{"operation": "add entity", "name": "User"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, schema.ErrCollision))
				var cerr *schema.CollisionError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, schema.KindEntity, cerr.Kind)
			},
		},
		{
			name: "unresolved destination",
			op: map[string]any{"operation": "add entity", "name": "Post", "attributes": []any{
				map[string]any{"name": "title", "type": "string"},
			}, "relationships": []any{
				map[string]any{"name": "blog", "destination": "Blog"},
			}},
			check: func(t *testing.T, err error) {
				var rerr *schema.ReferenceError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, schema.RefDestination, rerr.Kind)
				assert.Equal(t, "Blog", rerr.Target)
				assert.Equal(t, "blog", rerr.Property)
			},
		},
		{
			name: "extend unknown entity",
			op:   map[string]any{"operation": "extend entity", "name": "Ghost"},
			check: func(t *testing.T, err error) {
				var rerr *schema.ReferenceError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, schema.RefEntity, rerr.Kind)
			},
		},
		{
			name: "attribute collides with existing attribute",
			op: map[string]any{"operation": "extend entity", "name": "User", "attributes": []any{
				map[string]any{"name": "nickname", "type": "string"},
				map[string]any{"name": "email", "type": "string"},
			}},
			check: func(t *testing.T, err error) {
				var cerr *schema.CollisionError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, "email", cerr.Property)
			},
		},
		{
			name: "relationship collides with attribute",
			op: map[string]any{"operation": "extend entity", "name": "User", "relationships": []any{
				map[string]any{"name": "email", "destination": "User"},
			}},
			check: func(t *testing.T, err error) {
				assert.True(t, schema.IsCollisionError(err))
			},
		},
		{
			name: "collision within the operation",
			op: map[string]any{"operation": "extend entity", "name": "User", "attributes": []any{
				map[string]any{"name": "age", "type": "integer16"},
				map[string]any{"name": "age", "type": "integer32"},
			}},
			check: func(t *testing.T, err error) {
				assert.True(t, schema.IsCollisionError(err))
			},
		},
		{
			name: "unknown inverse",
			op: map[string]any{"operation": "extend entity", "name": "User", "relationships": []any{
				map[string]any{"name": "boss", "destination": "User", "inverse": "nobody"},
			}},
			check: func(t *testing.T, err error) {
				var rerr *schema.ReferenceError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, schema.RefInverse, rerr.Kind)
			},
		},
		{
			name: "unresolved subentity",
			op:   map[string]any{"operation": "add entity", "name": "Admin", "subentities": []any{"Ghost"}},
			check: func(t *testing.T, err error) {
				var rerr *schema.ReferenceError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, schema.RefSubentity, rerr.Kind)
			},
		},
		{
			name: "own subentity",
			op:   map[string]any{"operation": "add entity", "name": "Admin", "subentities": []any{"Admin"}},
			check: func(t *testing.T, err error) {
				assert.True(t, schema.IsReferenceError(err))
			},
		},
		{
			name: "malformed",
			op:   map[string]any{"operation": "add entity", "name": "Admin", "attributes": []any{map[string]any{"name": "x"}}},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, delta.ErrMalformed))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := userModel()
			before := m.Clone()
			res := delta.NewApplier().Apply(m, parse(t, tt.op))
			assert.False(t, res.OK)
			assert.Equal(t, 0, res.Applied)
			assert.Equal(t, 1, res.Rejected)
			assert.Empty(t, res.Diagnostics)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, 0, res.Errors[0].Index)

			err := res.Err()
			require.Error(t, err)
			assert.True(t, delta.IsOpError(err))
			tt.check(t, err)
			assert.Equal(t, before, m, "model must be unchanged")
		})
	}
}

func TestApplyReportsEveryFailureOfAnOperation(t *testing.T) {
	m := userModel()
	res := delta.NewApplier().Apply(m, parse(t, map[string]any{
		"operation": "extend entity",
		"name":      "User",
		"attributes": []any{
			map[string]any{"name": "email", "type": "string"},
		},
		"relationships": []any{
			map[string]any{"name": "blog", "destination": "Blog"},
		},
	}))
	err := res.Err()
	assert.True(t, schema.IsCollisionError(err))
	assert.True(t, schema.IsReferenceError(err))
}

func TestApplyPolicy(t *testing.T) {
	batch := func(t *testing.T) delta.Batch {
		return parse(t, []any{
			map[string]any{"operation": "add entity", "name": "A"},
			map[string]any{"operation": "add entity", "name": "B", "relationships": []any{
				map[string]any{"name": "c", "destination": "Missing"},
			}},
			map[string]any{"operation": "bogus"},
			map[string]any{"operation": "add entity", "name": "D"},
		})
	}

	t.Run("abort", func(t *testing.T) {
		m := schema.MustNew()
		a := delta.NewApplier()
		assert.Equal(t, delta.AbortOnError, a.Policy())
		res := a.Apply(m, batch(t))
		assert.False(t, res.OK)
		assert.Equal(t, 1, res.Applied)
		assert.Equal(t, 1, res.Rejected)
		assert.Equal(t, 2, res.NotRun)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 1, res.Errors[0].Index)
		assert.Equal(t, "B", res.Errors[0].Entity)
		assert.Equal(t, []string{"A"}, m.Names())
	})

	t.Run("skip", func(t *testing.T) {
		m := schema.MustNew()
		res := delta.NewApplier(delta.WithPolicy(delta.SkipOnError)).Apply(m, batch(t))
		assert.False(t, res.OK)
		assert.Equal(t, 2, res.Applied)
		assert.Equal(t, 2, res.Rejected)
		assert.Equal(t, 0, res.NotRun)
		require.Len(t, res.Errors, 2)
		assert.Equal(t, 1, res.Errors[0].Index)
		assert.Equal(t, 2, res.Errors[1].Index)
		assert.True(t, errors.Is(res.Err(), delta.ErrMalformed))
		assert.True(t, errors.Is(res.Err(), schema.ErrUnresolved))
		assert.Equal(t, []string{"A", "D"}, m.Names())
	})

	t.Run("later operations see earlier ones", func(t *testing.T) {
		m := schema.MustNew()
		res := delta.NewApplier().Apply(m, parse(t, []any{
			map[string]any{"operation": "add entity", "name": "Blog"},
			map[string]any{"operation": "add entity", "name": "Post", "relationships": []any{
				map[string]any{"name": "blog", "destination": "Blog", "maxCount": 1},
			}},
		}))
		assert.True(t, res.OK, "%v", res.Err())
		assert.Equal(t, []string{"Blog", "Post"}, m.Names())
	})

	t.Run("empty batch", func(t *testing.T) {
		res := delta.NewApplier().Apply(schema.MustNew(), nil)
		assert.True(t, res.OK)
		assert.NoError(t, res.Err())
	})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want delta.Policy
		err  bool
	}{
		{in: "", want: delta.AbortOnError},
		{in: "abort", want: delta.AbortOnError},
		{in: "SKIP", want: delta.SkipOnError},
		{in: "skip-on-error", want: delta.SkipOnError},
		{in: "retry", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := delta.ParsePolicy(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
	assert.Equal(t, "skip", delta.SkipOnError.String())
}

func TestApplyLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	res := delta.NewApplier(delta.WithLogger(logger)).Apply(schema.MustNew(), parse(t, []any{
		map[string]any{"operation": "add entity", "name": "A"},
		map[string]any{"operation": "add entity", "name": "A"},
	}))
	out := buf.String()
	assert.Contains(t, out, "batch="+res.ID.String())
	assert.Contains(t, out, "apply delta operation")
	assert.Contains(t, out, "delta operation rejected")
	assert.Contains(t, out, "level=WARN")
}

func TestOpErrorMessage(t *testing.T) {
	err := &delta.OpError{Index: 3, Kind: delta.KindAddEntity, Entity: "User", Err: schema.NewCollisionError("User", "", schema.KindEntity)}
	assert.Equal(t, `mogenerator: operation 3 (add entity User) rejected: entity "User" already exists`, err.Error())
	assert.True(t, errors.Is(err, schema.ErrCollision))
}
