// Command mogen orders, evolves and exports object model descriptions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: mogen [-model=<path>] [-env=<path>] [-log-level=<level>] [-log-format=text|json] <command> [<args>]

Configuration flags:

   -model      The model file (.json, .yaml, .yml, .msgpack). The environment variable
               MOGEN_MODEL is used if this flag is not set.

   -env        A dotenv file read before the environment. Defaults to .env, which may be absent.

   -log-level  debug, info, warn or error (MOGEN_LOG_LEVEL).

   -log-format text or json (MOGEN_LOG_FORMAT).

Model commands
   sort        Print the entities in dependency order
   apply       Apply delta files to the model and save it

Export commands
   gen         Generate Go model structs
   sql         Print or execute the SQL schema of the model
   graphql     Print the GraphQL schema of the model
   watch       Regenerate Go model structs whenever the model file changes

Other commands
   help        Display help message
`

// errUsage reports a command line error. The usage is printed along.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{stdout: os.Stdout, stderr: os.Stderr, environ: os.Environ()}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mogen: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, "\n"+usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ []string
	cfg     *config
	log     *slog.Logger
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mogen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		modelFlag  = fs.String("model", "", "model file path")
		envFlag    = fs.String("env", defaultEnvFile, "dotenv file path")
		levelFlag  = fs.String("log-level", "", "log level")
		formatFlag = fs.String("log-format", "", "log format")
	)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg, err := loadConfig(*envFlag, a.environ)
	if err != nil {
		return err
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *levelFlag != "" {
		cfg.LogLevel = *levelFlag
	}
	if *formatFlag != "" {
		cfg.LogFormat = *formatFlag
	}
	a.cfg = cfg
	if a.log, err = newLogger(a.stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "sort":
		return a.sort(rest)
	case "apply":
		return a.apply(rest)
	case "gen":
		return a.gen(ctx, rest)
	case "sql":
		return a.sql(ctx, rest)
	case "graphql":
		return a.graphql(rest)
	case "watch":
		return a.watch(ctx, rest)
	case "help":
		fmt.Fprint(a.stdout, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %s", errUsage, cmd)
	}
}
