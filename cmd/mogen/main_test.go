package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschmiderer/mogenerator/compiler/load"
	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"
)

type testApp struct {
	*app
	dir    string
	model  string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestApp copies the blog model into a temporary directory.
func newTestApp(t *testing.T, environ ...string) *testApp {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "..", "compiler", "load", "testdata", "blog.yaml"))
	require.NoError(t, err)
	model := filepath.Join(dir, "blog.yaml")
	require.NoError(t, os.WriteFile(model, data, 0o600))
	ta := &testApp{dir: dir, model: model, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ta.app = &app{
		stdout:  ta.stdout,
		stderr:  ta.stderr,
		environ: append([]string{"MOGEN_MODEL=" + model, "MOGEN_LOG_LEVEL=error"}, environ...),
	}
	return ta
}

func (ta *testApp) lines() []string {
	return strings.Split(strings.TrimSpace(ta.stdout.String()), "\n")
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing command", nil},
		{"unknown command", []string{"compile"}},
		{"unknown global flag", []string{"-verbose", "sort"}},
		{"unknown command flag", []string{"sort", "-x"}},
		{"unknown filter", []string{"sort", "-filter", "many"}},
		{"unknown policy", []string{"apply", "-policy", "retry", "delta.yaml"}},
		{"missing delta file", []string{"apply"}},
		{"unknown dialect", []string{"sql", "-dialect", "oracle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			err := ta.run(context.Background(), tt.args)
			require.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRunHelp(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.run(context.Background(), []string{"help"}))
	assert.Equal(t, usage, ta.stdout.String())
}

func TestRunBadLogConfig(t *testing.T) {
	ta := newTestApp(t)
	assert.Error(t, ta.run(context.Background(), []string{"-log-level", "loud", "help"}))
	assert.Error(t, ta.run(context.Background(), []string{"-log-format", "xml", "help"}))
}

func TestSort(t *testing.T) {
	t.Run("ToOne", func(t *testing.T) {
		ta := newTestApp(t)
		require.NoError(t, ta.run(context.Background(), []string{"sort", "-filter", "to-one"}))
		assert.Equal(t, []string{"User", "Admin", "Tag", "Post", "Comment"}, ta.lines())
	})
	t.Run("Deps", func(t *testing.T) {
		ta := newTestApp(t)
		require.NoError(t, ta.run(context.Background(), []string{"sort", "-filter", "to-one", "-deps"}))
		assert.Equal(t, []string{
			"User:",
			"Admin:",
			"Tag:",
			"Post: User",
			"Comment: Post, User",
		}, ta.lines())
	})
	t.Run("None", func(t *testing.T) {
		ta := newTestApp(t)
		require.NoError(t, ta.run(context.Background(), []string{"sort", "-filter", "none"}))
		assert.Equal(t, []string{"Comment", "Post", "User", "Admin", "Tag"}, ta.lines())
	})
	t.Run("Cycle", func(t *testing.T) {
		ta := newTestApp(t)
		err := ta.run(context.Background(), []string{"sort"})
		require.ErrorIs(t, err, graph.ErrCycle)
		assert.Empty(t, ta.stdout.String())
	})
	t.Run("ModelFlag", func(t *testing.T) {
		ta := newTestApp(t)
		err := ta.run(context.Background(), []string{"-model", filepath.Join(ta.dir, "missing.yaml"), "sort"})
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

const widgetDelta = `
- operation: add entity
  name: Widget
  attributes:
    - {name: title, type: string}
  relationships:
    - {name: owner, destination: User, maxCount: 1}
`

const brokenDelta = `
- operation: extend entity
  name: Gadget
  attributes:
    - {name: size, type: integer32}
- operation: add entity
  name: Part
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestApply(t *testing.T) {
	ta := newTestApp(t)
	path := writeFile(t, ta.dir, "widget.yaml", widgetDelta)
	require.NoError(t, ta.run(context.Background(), []string{"apply", path}))

	out := ta.stdout.String()
	assert.Contains(t, out, "Widget.owner: relationship to User has no inverse ("+delta.CodeMissingInverse+")")
	assert.Contains(t, out, "("+delta.CodeDefaultDeleteRule+")")

	m, err := load.Load(ta.model)
	require.NoError(t, err)
	w, ok := m.Entity("Widget")
	require.True(t, ok)
	r, ok := w.Relationship("owner")
	require.True(t, ok)
	assert.Equal(t, "User", r.Destination)
	assert.Equal(t, 6, m.Len())
}

func TestApplyAbort(t *testing.T) {
	ta := newTestApp(t)
	before, err := os.ReadFile(ta.model)
	require.NoError(t, err)
	widget := writeFile(t, ta.dir, "widget.yaml", widgetDelta)
	broken := writeFile(t, ta.dir, "broken.yaml", brokenDelta)

	err = ta.run(context.Background(), []string{"apply", widget, broken})
	require.Error(t, err)
	assert.True(t, schema.IsReferenceError(err))
	assert.Contains(t, err.Error(), broken)

	after, err := os.ReadFile(ta.model)
	require.NoError(t, err)
	assert.Equal(t, before, after, "the model file must not change on abort")
}

func TestApplySkip(t *testing.T) {
	ta := newTestApp(t, "MOGEN_DELTA_POLICY=skip")
	broken := writeFile(t, ta.dir, "broken.yaml", brokenDelta)
	out := filepath.Join(ta.dir, "out.json")

	require.NoError(t, ta.run(context.Background(), []string{"apply", "-o", out, broken}))
	assert.Contains(t, ta.stdout.String(), "rejected:")

	m, err := load.Load(out)
	require.NoError(t, err)
	assert.True(t, m.Has("Part"))
	assert.False(t, m.Has("Gadget"))
}

func TestApplyDryRun(t *testing.T) {
	ta := newTestApp(t)
	before, err := os.ReadFile(ta.model)
	require.NoError(t, err)
	path := writeFile(t, ta.dir, "widget.yaml", widgetDelta)

	require.NoError(t, ta.run(context.Background(), []string{"apply", "-dry-run", path}))
	assert.Contains(t, ta.stdout.String(), "Widget.owner")
	after, err := os.ReadFile(ta.model)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGen(t *testing.T) {
	ta := newTestApp(t)
	out := filepath.Join(ta.dir, "blog")
	require.NoError(t, ta.run(context.Background(), []string{"gen", "-out", out, "-workers", "2"}))
	assert.Equal(t, "generated 6 files", strings.SplitN(ta.stdout.String(), " (", 2)[0])
	for _, name := range []string{"admin.go", "blog_post.go", "comment.go", "entities.go", "tag.go", "user.go"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("// Code generated by mogen. DO NOT EDIT.")), name)
		assert.Contains(t, string(data), "package blog", name)
	}
}

func TestGenPackage(t *testing.T) {
	ta := newTestApp(t, "MOGEN_OUT="+filepath.Join(t.TempDir(), "out"), "MOGEN_PACKAGE=models")
	require.NoError(t, ta.run(context.Background(), []string{"gen", "-header", "Generated models."}))
	data, err := os.ReadFile(filepath.Join(ta.cfg.Out, "entities.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "// Generated models.")
	assert.Contains(t, string(data), "package models")
}

func TestSQL(t *testing.T) {
	for _, d := range []string{"sqlite", "postgres", "mysql"} {
		t.Run(d, func(t *testing.T) {
			ta := newTestApp(t)
			require.NoError(t, ta.run(context.Background(), []string{"sql", "-dialect", d}))
			out := ta.stdout.String()
			assert.Equal(t, 6, strings.Count(out, "CREATE TABLE"))
			assert.True(t, strings.HasSuffix(out, ";\n"))
		})
	}
}

func TestSQLFile(t *testing.T) {
	ta := newTestApp(t, "MOGEN_DIALECT=pg")
	out := filepath.Join(ta.dir, "schema.sql")
	require.NoError(t, ta.run(context.Background(), []string{"sql", "-o", out}))
	assert.Empty(t, ta.stdout.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `CREATE TABLE "users"`)
}

func TestSQLExec(t *testing.T) {
	ta := newTestApp(t)
	dsn := "file:" + filepath.Join(ta.dir, "blog.db") + "?_pragma=foreign_keys(1)"
	require.NoError(t, ta.run(context.Background(), []string{"sql", "-exec", dsn}))
	assert.Contains(t, ta.stdout.String(), "executed statements=")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").Scan(&n))
	assert.Equal(t, 6, n)
}

func TestGraphQL(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.run(context.Background(), []string{"graphql"}))
	sdl := ta.stdout.String()
	assert.Contains(t, sdl, "interface Node {")
	assert.Contains(t, sdl, "type BlogPost implements Node {")
	assert.Contains(t, sdl, "type Query {")

	ta = newTestApp(t)
	out := filepath.Join(ta.dir, "schema.graphql")
	require.NoError(t, ta.run(context.Background(), []string{"graphql", "-no-node", "-no-query", "-o", out}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "interface Node")
	assert.NotContains(t, string(data), "type Query")
	assert.Contains(t, string(data), "type BlogPost {")
}

func TestGraphQLCycleWritesNothing(t *testing.T) {
	ta := newTestApp(t)
	out := filepath.Join(ta.dir, "schema.graphql")
	err := ta.run(context.Background(), []string{"graphql", "-filter", "default", "-o", out})
	require.ErrorIs(t, err, graph.ErrCycle)
	assert.NoFileExists(t, out)
}

func TestWatch(t *testing.T) {
	ta := newTestApp(t)
	out := filepath.Join(ta.dir, "models")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- ta.run(ctx, []string{"watch", "-out", out, "-debounce", "20ms"})
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "entities.go"))
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)

	m, err := load.Load(ta.model)
	require.NoError(t, err)
	require.NoError(t, m.Add(schema.NewEntity("Widget")))
	require.NoError(t, load.Save(ta.model, m))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "widget.go"))
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "mogen.env", "MOGEN_DIALECT=postgres\nMOGEN_OUT=gen\nMOGEN_DELTA_POLICY=skip\n")

	cfg, err := loadConfig(envFile, []string{"MOGEN_OUT=models/blog", "MOGEN_WORKERS=3", "HOME=/root"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "models/blog", cfg.Out)
	assert.Equal(t, delta.SkipOnError, cfg.Policy)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "model.yaml", cfg.Model)
	assert.Equal(t, "to-one", cfg.Filter)

	cfg, err = loadConfig(defaultEnvFile, nil)
	require.NoError(t, err, "a missing default env file is not an error")
	assert.Equal(t, delta.AbortOnError, cfg.Policy)
	assert.Equal(t, "sqlite", cfg.Dialect)

	_, err = loadConfig(filepath.Join(dir, "missing.env"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadConfig("", []string{"MOGEN_DELTA_POLICY=retry"})
	assert.Error(t, err)
	_, err = loadConfig("", []string{"MOGEN_WORKERS=many"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "entity", "User")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"entity":"User"`)

	buf.Reset()
	log, err = newLogger(&buf, "DEBUG", "TEXT")
	require.NoError(t, err)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
