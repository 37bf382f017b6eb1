package state

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new store instance. A nil logger discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the SQLite database, creating parent directories as needed.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// --- Parse cache ---

// GetContentHash retrieves the content hash for a file path; "" when absent.
func (s *SQLiteStore) GetContentHash(filePath string) (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT content_hash FROM content_hashes WHERE file_path = ?`, filePath,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content hash: %w", err)
	}
	return hash, nil
}

// SetContentHash stores the content hash for a file path.
func (s *SQLiteStore) SetContentHash(filePath, hash, fileType string) error {
	_, err := s.db.Exec(
		`INSERT INTO content_hashes (file_path, content_hash, file_type, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET content_hash = excluded.content_hash,
		                                      file_type = excluded.file_type,
		                                      updated_at = excluded.updated_at`,
		filePath, hash, fileType, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set content hash: %w", err)
	}
	return nil
}

// DeleteContentHash removes the content hash for a file path.
func (s *SQLiteStore) DeleteContentHash(filePath string) error {
	if _, err := s.db.Exec(`DELETE FROM content_hashes WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("failed to delete content hash: %w", err)
	}
	return nil
}

// ListFilePaths returns all tracked file paths of the given type.
func (s *SQLiteStore) ListFilePaths(fileType string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT file_path FROM content_hashes WHERE file_type = ? ORDER BY file_path`, fileType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list file paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// --- Publication fingerprints ---

// GetPublicationFingerprints returns the fingerprints recorded by the
// previous run, keyed by project name.
func (s *SQLiteStore) GetPublicationFingerprints() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT project_name, fingerprint FROM publication_fingerprints`)
	if err != nil {
		return nil, fmt.Errorf("failed to get publication fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string]string{}
	for rows.Next() {
		var project, fp string
		if err := rows.Scan(&project, &fp); err != nil {
			return nil, err
		}
		out[project] = fp
	}
	return out, rows.Err()
}

// ReplacePublicationFingerprints replaces the recorded fingerprint set
// atomically, so a dropped project does not leave a stale row behind.
func (s *SQLiteStore) ReplacePublicationFingerprints(fingerprints map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM publication_fingerprints`); err != nil {
		return fmt.Errorf("failed to clear publication fingerprints: %w", err)
	}
	for project, fp := range fingerprints {
		if _, err := tx.Exec(
			`INSERT INTO publication_fingerprints (project_name, fingerprint, updated_at) VALUES (?, ?, ?)`,
			project, fp, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to record fingerprint for %s: %w", project, err)
		}
	}
	return tx.Commit()
}

// --- Run history ---

// CreateRun creates a new run record.
func (s *SQLiteStore) CreateRun(project string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Project:   project,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, project, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Project, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun finalizes a run with its status and optional error message.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, project, status, started_at, completed_at, error FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Project, &run.Status, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// CreateModelRun records the start of a single model execution.
func (s *SQLiteStore) CreateModelRun(runID, uniqueID string) (*ModelRun, error) {
	mr := &ModelRun{
		ID:       uuid.New().String(),
		RunID:    runID,
		UniqueID: uniqueID,
		Status:   ModelRunStatusRunning,
	}
	_, err := s.db.Exec(
		`INSERT INTO model_runs (id, run_id, unique_id, status) VALUES (?, ?, ?, ?)`,
		mr.ID, mr.RunID, mr.UniqueID, mr.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model run: %w", err)
	}
	return mr, nil
}

// CompleteModelRun finalizes a model execution.
func (s *SQLiteStore) CompleteModelRun(id string, status ModelRunStatus, durationMS int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE model_runs SET status = ?, duration_ms = ?, error = ? WHERE id = ?`,
		status, durationMS, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete model run: %w", err)
	}
	return nil
}

// ListModelRuns returns the model executions of a run in creation order.
func (s *SQLiteStore) ListModelRuns(runID string) ([]*ModelRun, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, unique_id, status, duration_ms, error
		 FROM model_runs WHERE run_id = ? ORDER BY created_at, unique_id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list model runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ModelRun
	for rows.Next() {
		mr := &ModelRun{}
		var errMsg sql.NullString
		if err := rows.Scan(&mr.ID, &mr.RunID, &mr.UniqueID, &mr.Status, &mr.DurationMS, &errMsg); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			mr.Error = errMsg.String
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}
