package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(filepath.Join(t.TempDir(), "state.db")))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContentHashes(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetContentHash("/proj/models/a.sql")
	require.NoError(t, err)
	assert.Empty(t, hash, "unknown file has no hash")

	require.NoError(t, s.SetContentHash("/proj/models/a.sql", "abc123", "model"))
	hash, err = s.GetContentHash("/proj/models/a.sql")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	// Upsert.
	require.NoError(t, s.SetContentHash("/proj/models/a.sql", "def456", "model"))
	hash, err = s.GetContentHash("/proj/models/a.sql")
	require.NoError(t, err)
	assert.Equal(t, "def456", hash)

	require.NoError(t, s.SetContentHash("/proj/models/b.sql", "bbb", "model"))
	paths, err := s.ListFilePaths("model")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/models/a.sql", "/proj/models/b.sql"}, paths)

	require.NoError(t, s.DeleteContentHash("/proj/models/a.sql"))
	paths, err = s.ListFilePaths("model")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/models/b.sql"}, paths)
}

func TestPublicationFingerprints(t *testing.T) {
	s := newTestStore(t)

	fps, err := s.GetPublicationFingerprints()
	require.NoError(t, err)
	assert.Empty(t, fps)

	require.NoError(t, s.ReplacePublicationFingerprints(map[string]string{
		"marketing": "fp1",
		"finance":   "fp2",
	}))
	fps, err = s.GetPublicationFingerprints()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"marketing": "fp1", "finance": "fp2"}, fps)

	// Replacement drops stale projects.
	require.NoError(t, s.ReplacePublicationFingerprints(map[string]string{
		"marketing": "fp3",
	}))
	fps, err = s.GetPublicationFingerprints()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"marketing": "fp3"}, fps)
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("test")
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)

	mr1, err := s.CreateModelRun(run.ID, "model.test.model_one")
	require.NoError(t, err)
	mr2, err := s.CreateModelRun(run.ID, "model.test.model_two")
	require.NoError(t, err)

	require.NoError(t, s.CompleteModelRun(mr1.ID, ModelRunStatusSuccess, 12, ""))
	require.NoError(t, s.CompleteModelRun(mr2.ID, ModelRunStatusFailed, 3, "syntax error"))
	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "1 model(s) failed"))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "1 model(s) failed", got.Error)
	assert.False(t, got.CompletedAt.IsZero())

	modelRuns, err := s.ListModelRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, modelRuns, 2)
	assert.Equal(t, ModelRunStatusSuccess, modelRuns[0].Status)
	assert.Equal(t, "syntax error", modelRuns[1].Error)
}

func TestOpenInMemory(t *testing.T) {
	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SetContentHash("/a.sql", "h", "model"))
	require.NoError(t, s.Close())
}
