package engine

// discovery.go scans the models directory incrementally: content hashes in
// the state store decide which files count as changed, and entries for
// deleted files are cleaned up.

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmesh/internal/parser"
)

// DiscoveryResult contains statistics about a discovery pass.
type DiscoveryResult struct {
	ModelsTotal   int
	ModelsChanged int
	ModelsSkipped int
	ModelsDeleted int

	// FullRefresh reports that upstream publications changed since the
	// previous run and every model was treated as changed.
	FullRefresh bool

	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *DiscoveryResult) Summary() string {
	return fmt.Sprintf("Models: %d total (%d changed, %d skipped, %d deleted) | Duration: %s",
		r.ModelsTotal, r.ModelsChanged, r.ModelsSkipped, r.ModelsDeleted,
		r.Duration.Round(time.Millisecond))
}

// discoverModels walks the models directory and parses every model file.
// Parsing is not skippable: the manifest is rebuilt from scratch each run.
// Content hashes only classify files as changed or unchanged, and a stale
// publication set forces the whole set to count as changed.
func (e *Engine) discoverModels(forceRefresh bool) ([]*parser.ModelConfig, *DiscoveryResult, error) {
	start := time.Now()
	result := &DiscoveryResult{FullRefresh: forceRefresh}

	modelsDir, err := filepath.Abs(e.project.ModelsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve models directory: %w", err)
	}
	if _, err := os.Stat(modelsDir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("models directory does not exist: %s", modelsDir)
	}

	e.logger.Debug("discovering models", "models_dir", modelsDir, "full_refresh", forceRefresh)

	scanner := parser.NewScanner(modelsDir)
	seenFiles := map[string]bool{}
	var models []*parser.ModelConfig

	walkErr := filepath.WalkDir(modelsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		absPath, _ := filepath.Abs(path)
		seenFiles[absPath] = true
		result.ModelsTotal++

		content, err := os.ReadFile(absPath) //nolint:gosec // G304: path comes from the configured models dir
		if err != nil {
			return fmt.Errorf("failed to read model %s: %w", absPath, err)
		}
		newHash := computeHash(content)

		mc, err := scanner.ParseContent(absPath, content)
		if err != nil {
			return err
		}
		models = append(models, mc)

		existingHash, err := e.store.GetContentHash(absPath)
		if err != nil {
			return err
		}
		if !forceRefresh && existingHash == newHash {
			e.logger.Debug("model unchanged", "path", absPath)
			result.ModelsSkipped++
			return nil
		}

		if err := e.store.SetContentHash(absPath, newHash, "model"); err != nil {
			return err
		}
		result.ModelsChanged++
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	deleted, err := e.cleanupDeletedModels(seenFiles)
	if err != nil {
		return nil, nil, err
	}
	result.ModelsDeleted = deleted
	result.Duration = time.Since(start)

	e.logger.Debug("discovery completed",
		"models_total", result.ModelsTotal,
		"models_changed", result.ModelsChanged,
		"models_skipped", result.ModelsSkipped,
		"models_deleted", result.ModelsDeleted)

	return models, result, nil
}

// cleanupDeletedModels drops content hashes for files that no longer exist.
func (e *Engine) cleanupDeletedModels(seenFiles map[string]bool) (int, error) {
	existing, err := e.store.ListFilePaths("model")
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, path := range existing {
		if seenFiles[path] {
			continue
		}
		if err := e.store.DeleteContentHash(path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// computeHash generates a SHA-256 hash of file content.
func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
