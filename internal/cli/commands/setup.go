// Package commands implements the leapmesh subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmesh/internal/config"
	"github.com/leapstack-labs/leapmesh/internal/engine"
	"github.com/leapstack-labs/leapmesh/internal/events"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext loads configuration from the root flags and constructs
// the engine. The returned cleanup function must be called, typically via
// defer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	flags := cmd.Root().PersistentFlags()

	projectDir, _ := flags.GetString("project-dir")
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := config.FindProjectRoot(cwd); root != "" {
				projectDir = root
			}
		}
	}

	cfg, err := config.Load(projectDir, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	eng, err := engine.New(engine.Config{
		Project: cfg,
		Logger:  logger,
		Sink:    events.NewLogSink(logger),
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = eng.Close() }
	return &CommandContext{Cfg: cfg, Logger: logger, Engine: eng}, cleanup, nil
}
