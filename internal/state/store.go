// Package state provides run-scoped persistence using SQLite: the parse
// cache (content hashes), publication fingerprints for staleness detection,
// and run history.
package state

import "time"

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ModelRunStatus represents the lifecycle state of a single model execution.
type ModelRunStatus string

const (
	ModelRunStatusRunning ModelRunStatus = "running"
	ModelRunStatusSuccess ModelRunStatus = "success"
	ModelRunStatusFailed  ModelRunStatus = "failed"
	ModelRunStatusSkipped ModelRunStatus = "skipped"
)

// Run records one invocation of the engine for a project.
type Run struct {
	ID          string
	Project     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
}

// ModelRun records the execution of a single model within a run.
type ModelRun struct {
	ID         string
	RunID      string
	UniqueID   string
	Status     ModelRunStatus
	DurationMS int64
	Error      string
}

// Store is the persistence interface used by the engine.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Parse cache.
	GetContentHash(filePath string) (string, error)
	SetContentHash(filePath, hash, fileType string) error
	DeleteContentHash(filePath string) error
	ListFilePaths(fileType string) ([]string, error)

	// Publication fingerprints: project_name -> artifact fingerprint from
	// the previous run, driving external-reference invalidation.
	GetPublicationFingerprints() (map[string]string, error)
	ReplacePublicationFingerprints(fingerprints map[string]string) error

	// Run history.
	CreateRun(project string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	CreateModelRun(runID, uniqueID string) (*ModelRun, error)
	CompleteModelRun(id string, status ModelRunStatus, durationMS int64, errMsg string) error
	ListModelRuns(runID string) ([]*ModelRun, error)
}
