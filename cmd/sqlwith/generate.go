package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/sqlwith/compiler/gen"
	"github.com/syssam/sqlwith/compiler/load"
	"github.com/syssam/sqlwith/internal/config"
	"github.com/syssam/sqlwith/internal/watch"
)

// Generate flags
var (
	dir        string
	output     string
	header     string
	tags       []string
	buildFlags []string
	workers    int
	watchMode  bool
	debounce   time.Duration
)

// generateCmd writes the decoder files
var generateCmd = &cobra.Command{
	Use:     "generate [packages]",
	Aliases: []string{"gen"},
	Short:   "Generate row decoders for the given packages",
	Long: `Loads the packages matching the patterns (default: the patterns of the
project file, or ".") and writes one decoder file into every package that
declares //sqlwith:fromrow structs. Files of packages without annotated
structs are removed.

Examples:
  sqlwith generate .
  sqlwith generate --tags integration ./internal/...
  sqlwith gen --watch ./store`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&dir, "dir", "C", "", "Resolve patterns and the project file in this directory")
	f.StringVarP(&output, "output", "o", "", "Name of the generated file (default: "+gen.DefaultOutput+")")
	f.StringVar(&header, "header", "", "Header comment of generated files")
	f.StringSliceVar(&tags, "tags", nil, "Build tags used when loading packages")
	f.StringArrayVar(&buildFlags, "build-flag", nil, "Extra flag passed to the go command (repeatable)")
	f.IntVarP(&workers, "workers", "j", 0, "Packages written in parallel (default: GOMAXPROCS)")
	f.BoolVarP(&watchMode, "watch", "w", false, "Regenerate when sources change")
	f.DurationVar(&debounce, "debounce", 0, "Quiet period before regenerating in watch mode (default: 300ms)")
}

func defaultConfigFile() string { return config.DefaultFile }

// loadConfig reads the project file and applies flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = filepath.Join(dir, config.DefaultFile)
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("header") {
		cfg.Header = header
	}
	if len(tags) > 0 {
		cfg.BuildFlags = append(cfg.BuildFlags, "-tags="+strings.Join(tags, ","))
	}
	cfg.BuildFlags = append(cfg.BuildFlags, buildFlags...)
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("debounce") {
		cfg.Watch.Debounce = debounce.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}
	opts := append(cfg.Options(), gen.WithDir(dir), gen.WithLogger(logger))
	g, err := gen.NewGenerator(opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	err = g.Generate(ctx, patterns...)
	if !watchMode {
		if err == nil {
			logger.Debug("generation finished", zap.Duration("took", time.Since(start)))
		}
		return err
	}
	switch {
	case gen.IsSchemaError(err):
		// Keep watching, the next save may fix the annotation.
		logger.Warn("invalid annotations", zap.Error(err))
	case err != nil:
		logger.Error("generation failed", zap.Error(err))
	}
	return watchAndGenerate(ctx, g, cfg, patterns)
}

// watchAndGenerate regenerates on source changes until ctx is canceled.
func watchAndGenerate(ctx context.Context, g *gen.Generator, cfg *config.Config, patterns []string) error {
	pkgs, err := load.Load(ctx, &load.Config{Dir: dir, BuildFlags: cfg.BuildFlags}, patterns...)
	if err != nil {
		return err
	}
	var dirs []string
	for _, p := range pkgs {
		if p.Dir != "" {
			dirs = append(dirs, p.Dir)
		}
	}
	if len(dirs) == 0 {
		return errors.New("no package directories to watch")
	}
	d, err := cfg.Debounce()
	if err != nil {
		return err
	}
	w, err := watch.New(dirs, d, func(ctx context.Context) error {
		return g.Generate(ctx, patterns...)
	}, logger, cfg.Output)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	logger.Info("watching for changes", zap.Int("directories", len(dirs)), zap.Duration("debounce", d))

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}
