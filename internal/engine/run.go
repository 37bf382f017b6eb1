package engine

// run.go executes the assembled manifest against the local database in
// topological order, materializing each model as a view or table with ref()
// occurrences substituted by the resolved target's identifier.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/leapmesh/internal/manifest"
	"github.com/leapstack-labs/leapmesh/internal/parser"
	"github.com/leapstack-labs/leapmesh/internal/state"
)

// Run parses, executes every local model in dependency order, and publishes
// the artifact. Emission only fires after all models succeed; a failure or
// cancellation suppresses it.
func (e *Engine) Run(ctx context.Context) (*state.Run, error) {
	if _, err := e.Parse(ctx); err != nil {
		return nil, err
	}

	dbPath := e.project.DatabasePath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	// A single connection keeps ":memory:" databases coherent across statements.
	db.SetMaxOpenConns(1)

	run, err := e.store.CreateRun(e.project.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Info("starting run", "run_id", run.ID, "project", e.project.Name)

	sorted, err := e.graph.TopologicalSort()
	if err != nil {
		_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
		return run, err
	}

	runErr := e.executeModels(ctx, db, run.ID, sorted)
	if runErr != nil {
		e.logger.Error("run failed", "run_id", run.ID, "error", runErr.Error())
		_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, runErr.Error())
	} else {
		_ = e.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
		if _, err := e.Publish(e.manifest); err != nil {
			runErr = err
		} else {
			e.logger.Info("run completed", "run_id", run.ID)
		}
	}

	run, _ = e.store.GetRun(run.ID)
	return run, runErr
}

// executeModels runs local models in the given order. External nodes are
// imported metadata, not executables: their relations are expected to exist
// in the target already. The first failure marks the remainder skipped.
func (e *Engine) executeModels(ctx context.Context, db *sql.DB, runID string, sorted []string) error {
	var failed string
	var failure error

	for _, id := range sorted {
		n, ok := e.manifest.Nodes[id]
		if !ok || n.IsExternalNode {
			continue
		}

		mr, err := e.store.CreateModelRun(runID, id)
		if err != nil {
			return fmt.Errorf("failed to record model run: %w", err)
		}

		if failure != nil {
			_ = e.store.CompleteModelRun(mr.ID, state.ModelRunStatusSkipped, 0,
				fmt.Sprintf("skipped: upstream model %s failed", failed))
			continue
		}

		start := time.Now()
		execErr := e.executeModel(ctx, db, n)
		durationMS := time.Since(start).Milliseconds()

		if execErr != nil {
			e.logger.Debug("model execution failed", "model", id, "error", execErr.Error())
			_ = e.store.CompleteModelRun(mr.ID, state.ModelRunStatusFailed, durationMS, execErr.Error())
			failed = id
			failure = fmt.Errorf("%s: %w", id, execErr)
			continue
		}

		e.logger.Debug("model executed", "model", id, "duration_ms", durationMS)
		_ = e.store.CompleteModelRun(mr.ID, state.ModelRunStatusSuccess, durationMS, "")
	}

	return failure
}

// executeModel materializes a single model. Any previous relation under the
// same identifier is dropped first, so a model can switch between view and
// table materializations across runs.
func (e *Engine) executeModel(ctx context.Context, db *sql.DB, n *manifest.Node) error {
	body, err := parser.ReplaceRefs(n.RawSQL, func(r parser.Ref) (string, error) {
		target, err := e.manifest.ResolveRef(nil, r.Name, r.Package, r.Version, e.manifest.ProjectName, n.PackageName)
		if err != nil {
			return "", err
		}
		return quoteIdent(target.Identifier), nil
	})
	if err != nil {
		return err
	}

	if err := dropRelation(ctx, db, n.Identifier); err != nil {
		return err
	}

	keyword := "VIEW"
	if n.Materialized == "table" {
		keyword = "TABLE"
	}
	stmt := fmt.Sprintf("CREATE %s %s AS %s", keyword, quoteIdent(n.Identifier), body)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to materialize %s: %w", n.Identifier, err)
	}
	return nil
}

// dropRelation removes an existing table or view with the given name.
func dropRelation(ctx context.Context, db *sql.DB, identifier string) error {
	var typ string
	err := db.QueryRowContext(ctx,
		`SELECT type FROM sqlite_schema WHERE name = ? AND type IN ('table', 'view')`,
		identifier,
	).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect relation %s: %w", identifier, err)
	}

	stmt := fmt.Sprintf("DROP %s %s", strings.ToUpper(typ), quoteIdent(identifier))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop relation %s: %w", identifier, err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
