package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"runtime"

	"github.com/mschmiderer/mogenerator/graph"
)

// Config holds the code generation settings.
type Config struct {
	// Package is the name of the generated Go package.
	// Defaults to the base name of Target.
	Package string
	// Target is the output directory.
	Target string
	// Header is written at the top of each generated file.
	Header string
	// Workers bounds the number of files rendered in parallel.
	Workers int
	// Filter decides the dependency order of the generated entity list.
	// Defaults to graph.ToOneFilter.
	Filter graph.DependencyFilter
	// Logger receives progress records. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultHeader is used when no header is configured.
const DefaultHeader = "Code generated by mogen. DO NOT EDIT."

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the generated package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package must be a Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithFilter sets the dependency filter used to order entities.
func WithFilter(f graph.DependencyFilter) Option {
	return func(c *Config) error {
		if f == nil {
			return NewConfigError("Filter", nil, "filter cannot be nil")
		}
		c.Filter = f
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options and fills in the
// defaults. Target is required.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.defaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) defaults() error {
	if c.Target == "" {
		return NewConfigError("Target", nil, "missing target directory")
	}
	if c.Package == "" {
		c.Package = packageName(c.Target)
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Filter == nil {
		c.Filter = graph.ToOneFilter
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
