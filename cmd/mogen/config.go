package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mschmiderer/mogenerator/delta"
)

const defaultEnvFile = ".env"

// config is read from MOGEN_* environment variables. Command line flags
// override it.
type config struct {
	Model     string       `env:"MODEL" envDefault:"model.yaml"`
	LogLevel  string       `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string       `env:"LOG_FORMAT" envDefault:"text"`
	Policy    delta.Policy `env:"DELTA_POLICY" envDefault:"abort"`
	Filter    string       `env:"FILTER" envDefault:"to-one"`
	Dialect   string       `env:"DIALECT" envDefault:"sqlite"`
	DSN       string       `env:"DSN"`
	Out       string       `env:"OUT" envDefault:"models"`
	Package   string       `env:"PACKAGE"`
	Workers   int          `env:"WORKERS"`
}

// loadConfig reads envFile, if present, and overlays environ on it. Only
// the default file may be missing.
func loadConfig(envFile string, environ []string) (*config, error) {
	vars := make(map[string]string)
	if envFile != "" {
		file, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist) && envFile == defaultEnvFile:
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		default:
			vars = file
		}
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	cfg := &config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "MOGEN_", Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// newLogger builds the slog logger of the command.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
