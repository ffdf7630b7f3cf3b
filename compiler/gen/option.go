package gen

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// DefaultOutput is the name of the file written into each package.
const DefaultOutput = "sqlwith_fromrow.go"

// DefaultHeader is the first line of every generated file.
const DefaultHeader = "Code generated by sqlwith. DO NOT EDIT."

// Config holds the generator settings.
type Config struct {
	// Output is the base name of the generated file.
	Output string
	// Header is the comment written at the top of each generated file.
	Header string
	// Dir is the directory package patterns are resolved in. Empty means
	// the current directory.
	Dir string
	// BuildFlags are passed to the build system when loading packages.
	BuildFlags []string
	// Workers bounds the number of packages rendered concurrently.
	Workers int
	// Logger receives progress and diagnostics.
	Logger *zap.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithOutput sets the base name of the generated file.
func WithOutput(name string) Option {
	return func(c *Config) error {
		switch {
		case name == "":
			return NewConfigError("Output", nil, "output file name cannot be empty")
		case filepath.Base(name) != name:
			return NewConfigError("Output", name, "output must be a file name, not a path")
		case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
			return NewConfigError("Output", name, "output must be a non-test .go file")
		}
		c.Output = name
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithDir sets the directory package patterns are resolved in.
func WithDir(dir string) Option {
	return func(c *Config) error {
		c.Dir = dir
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading client packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
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

// WithLogger sets the logger used during generation.
func WithLogger(l *zap.Logger) Option {
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

// ApplyAll applies every option and joins the errors, so a project file
// reports all of its invalid values at once.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Output:  DefaultOutput,
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  zap.NewNop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}
