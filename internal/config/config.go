// Package config reads the sqlwith project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlwith/compiler/gen"
)

// DefaultFile is the project file looked up in the working directory.
const DefaultFile = ".sqlwith.yaml"

// Config is the content of the project file. Command-line flags take
// precedence over it.
type Config struct {
	// Patterns are the packages to generate when none are given.
	Patterns []string `yaml:"patterns"`
	// Output is the base name of the generated file in each package.
	Output string `yaml:"output"`
	// Header replaces the generated-code header comment.
	Header string `yaml:"header"`
	// BuildFlags are passed to the go command, e.g. ["-tags=integration"].
	BuildFlags []string `yaml:"build_flags"`
	// Workers bounds concurrent package writes. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long the watcher waits after the last change
	// before regenerating, e.g. "300ms".
	Debounce string `yaml:"debounce"`
}

// Default returns the configuration used without a project file.
func Default() *Config {
	return &Config{
		Patterns: []string{"."},
		Output:   gen.DefaultOutput,
		Header:   gen.DefaultHeader,
		Watch: WatchConfig{
			Debounce: "300ms",
		},
	}
}

// Load reads the project file at path on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// decode merges data into c, rejecting unknown keys.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values the generator would reject late. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := c.Debounce(); err != nil {
		errs = append(errs, err)
	}
	// The remaining values are checked by the generator options themselves.
	errs = append(errs, (&gen.Config{}).ApplyAll(c.Options()...))
	return errors.Join(errs...)
}

// Debounce returns the parsed watch debounce interval.
func (c *Config) Debounce() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce must not be negative, got %s", d)
	}
	return d, nil
}

// Options returns the generator options for c.
func (c *Config) Options() []gen.Option {
	opts := []gen.Option{
		gen.WithOutput(c.Output),
		gen.WithHeader(c.Header),
	}
	if len(c.BuildFlags) > 0 {
		opts = append(opts, gen.WithBuildFlags(c.BuildFlags...))
	}
	if c.Workers > 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	return opts
}
