package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mschmiderer/mogenerator"
	"github.com/mschmiderer/mogenerator/compiler/gen"
	"github.com/mschmiderer/mogenerator/compiler/load"
	"github.com/mschmiderer/mogenerator/contrib/graphql"
	"github.com/mschmiderer/mogenerator/delta"
	"github.com/mschmiderer/mogenerator/dialect"
	"github.com/mschmiderer/mogenerator/dialect/sqlschema"
	"github.com/mschmiderer/mogenerator/graph"
	"github.com/mschmiderer/mogenerator/schema"

	// Drivers for sql -exec. Their names match the dialect names.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func (a *app) loadModel() (*schema.Model, error) {
	m, err := load.Load(a.cfg.Model)
	if err != nil {
		return nil, err
	}
	a.log.Debug("model loaded", "path", a.cfg.Model, "entities", m.Len())
	return m, nil
}

// output opens path for writing, or returns stdout for "" and "-".
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (a *app) sort(args []string) error {
	fs := newFlagSet("sort")
	filter := fs.String("filter", "default", "dependency filter: default, to-one or none")
	deps := fs.Bool("deps", false, "print the dependencies of each entity")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	f, err := graph.ParseFilter(*filter)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	m, err := a.loadModel()
	if err != nil {
		return err
	}
	sorted, err := mogenerator.EntitiesInTopologicalOrderUsingFilter(m, f)
	if err != nil {
		return err
	}
	var edges map[string][]string
	if *deps {
		if edges, err = graph.Dependencies(m, f); err != nil {
			return err
		}
	}
	for _, e := range sorted {
		if !*deps {
			fmt.Fprintln(a.stdout, e.Name)
			continue
		}
		fmt.Fprintf(a.stdout, "%s:", e.Name)
		if d := edges[e.Name]; len(d) > 0 {
			fmt.Fprintf(a.stdout, " %s", strings.Join(d, ", "))
		}
		fmt.Fprintln(a.stdout)
	}
	return nil
}

func (a *app) apply(args []string) error {
	fs := newFlagSet("apply")
	policy := fs.String("policy", a.cfg.Policy.String(), "batch policy: abort or skip")
	out := fs.String("o", "", "output model file (defaults to the model file)")
	dryRun := fs.Bool("dry-run", false, "apply without saving the model")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: apply: missing delta file", errUsage)
	}
	p, err := delta.ParsePolicy(*policy)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	m, err := a.loadModel()
	if err != nil {
		return err
	}
	var rejected []error
	for _, path := range fs.Args() {
		res, err := mogenerator.ApplyModelDeltaFile(m, path, delta.WithPolicy(p), delta.WithLogger(a.log))
		if res == nil {
			return err
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(a.stdout, "%s: warning: %s\n", path, d)
		}
		a.log.Info("delta applied", "file", path, "batch", res.ID.String(),
			"applied", res.Applied, "rejected", res.Rejected, "not_run", res.NotRun)
		if err == nil {
			continue
		}
		if p == delta.AbortOnError {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(a.stdout, "%s: rejected: %v\n", path, e)
		}
		rejected = append(rejected, err)
	}
	if *dryRun {
		return nil
	}
	target := *out
	if target == "" {
		target = a.cfg.Model
	}
	if err := load.Save(target, m); err != nil {
		return err
	}
	a.log.Info("model saved", "path", target, "entities", m.Len(), "rejected", len(rejected))
	return nil
}

func (a *app) genOptions(fs *flag.FlagSet) func() ([]gen.Option, error) {
	out := fs.String("out", a.cfg.Out, "output directory")
	pkg := fs.String("package", a.cfg.Package, "package name (defaults to the output directory name)")
	filter := fs.String("filter", a.cfg.Filter, "dependency filter ordering the entity list")
	workers := fs.Int("workers", a.cfg.Workers, "number of files rendered in parallel")
	header := fs.String("header", "", "header comment of the generated files")
	return func() ([]gen.Option, error) {
		f, err := graph.ParseFilter(*filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		opts := []gen.Option{gen.WithTarget(*out), gen.WithFilter(f), gen.WithLogger(a.log)}
		if *pkg != "" {
			opts = append(opts, gen.WithPackage(*pkg))
		}
		if *workers > 0 {
			opts = append(opts, gen.WithWorkers(*workers))
		}
		if *header != "" {
			opts = append(opts, gen.WithHeader(*header))
		}
		return opts, nil
	}
}

func (a *app) gen(ctx context.Context, args []string) error {
	fs := newFlagSet("gen")
	options := a.genOptions(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}
	return a.generate(ctx, opts)
}

func (a *app) generate(ctx context.Context, opts []gen.Option) error {
	m, err := a.loadModel()
	if err != nil {
		return err
	}
	metrics, err := gen.Generate(ctx, m, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "generated %d files (%d bytes)\n", metrics.FilesGenerated, metrics.TotalBytes)
	return nil
}

func (a *app) sql(ctx context.Context, args []string) error {
	fs := newFlagSet("sql")
	name := fs.String("dialect", a.cfg.Dialect, "sql dialect: "+strings.Join(dialect.Names(), ", "))
	out := fs.String("o", "", "output file (defaults to stdout)")
	dsn := fs.String("exec", a.cfg.DSN, "execute the statements against this data source")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	d, err := dialect.Parse(*name)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	m, err := a.loadModel()
	if err != nil {
		return err
	}
	stmts, err := sqlschema.New(sqlschema.WithDialect(d), sqlschema.WithLogger(a.log)).DDL(ctx, m)
	if err != nil {
		return err
	}
	if *dsn != "" {
		return a.exec(ctx, d, *dsn, stmts)
	}
	w, closeFn, err := a.output(*out)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, sqlschema.Script(stmts))
	return errors.Join(err, closeFn())
}

func (a *app) exec(ctx context.Context, driver, dsn string, stmts []string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	stats, err := sqlschema.NewExecutor(db, sqlschema.WithExecLogger(a.log)).Exec(ctx, stmts)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "executed %s\n", stats)
	return nil
}

func (a *app) graphql(args []string) error {
	fs := newFlagSet("graphql")
	out := fs.String("o", "", "output file (defaults to stdout)")
	filter := fs.String("filter", a.cfg.Filter, "dependency filter ordering the types")
	noNode := fs.Bool("no-node", false, "omit the Node interface")
	noQuery := fs.Bool("no-query", false, "omit the Query type")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	f, err := graph.ParseFilter(*filter)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	m, err := a.loadModel()
	if err != nil {
		return err
	}
	x := graphql.New(
		graphql.WithFilter(f),
		graphql.WithNodeInterface(!*noNode),
		graphql.WithQuery(!*noQuery),
		graphql.WithLogger(a.log),
	)
	sdl, err := x.SDL(m)
	if err != nil {
		return err
	}
	w, closeFn, err := a.output(*out)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, sdl)
	return errors.Join(err, closeFn())
}
