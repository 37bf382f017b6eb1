// Package engine orchestrates a project run: manifest assembly from local
// models and supplied publication artifacts, reference resolution, local
// execution, and publication emission.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/leapmesh/internal/config"
	"github.com/leapstack-labs/leapmesh/internal/dag"
	"github.com/leapstack-labs/leapmesh/internal/events"
	"github.com/leapstack-labs/leapmesh/internal/manifest"
	"github.com/leapstack-labs/leapmesh/internal/state"
)

// Version is recorded in emitted publication metadata.
const Version = "0.1.0"

// adapterType identifies the local execution target in publication metadata.
const adapterType = "sqlite"

// Engine orchestrates manifest assembly, execution and publication for a
// single project.
type Engine struct {
	project *config.Config
	store   state.Store
	logger  *slog.Logger
	sink    events.Sink

	// Set by Parse.
	manifest *manifest.Manifest
	graph    *dag.Graph
	declared []string
}

// Config holds engine construction options.
type Config struct {
	// Project is the loaded project configuration. Required.
	Project *config.Config
	// Logger is the structured logger (optional, discards if nil).
	Logger *slog.Logger
	// Sink receives engine events (optional, discards if nil).
	Sink events.Sink
}

// New creates an engine and opens its state store.
func New(cfg Config) (*Engine, error) {
	if cfg.Project == nil {
		return nil, fmt.Errorf("project configuration is required")
	}
	if err := cfg.Project.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.NewLogSink(nil)
	}

	logger.Debug("initializing engine",
		"project", cfg.Project.Name,
		"models_dir", cfg.Project.ModelsDir)

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.Project.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	return &Engine{
		project: cfg.Project,
		store:   store,
		logger:  logger,
		sink:    sink,
	}, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	return e.store.Close()
}

// Manifest returns the manifest assembled by the last Parse, nil before.
func (e *Engine) Manifest() *manifest.Manifest {
	return e.manifest
}

// Graph returns the model-level dependency graph from the last Parse.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// StateStore returns the engine's state store.
func (e *Engine) StateStore() state.Store {
	return e.store
}
