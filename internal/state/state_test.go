package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(dir)

	start := time.Now().UTC().Truncate(time.Second)
	iterStart := start.Add(5 * time.Second)
	original := &State{
		Iteration:       3,
		LastExitCode:    0,
		LastCommitSHA:   "abc123",
		StartedAt:       start,
		TotalCommits:    7,
		DurationSeconds: 42,
		FinishType:      FinishComplete,
		IterationStart:  &iterStart,
		IterationSHA:    "def456",
	}

	require.NoError(t, store.Save(original))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.Iteration, loaded.Iteration)
	assert.Equal(t, original.LastCommitSHA, loaded.LastCommitSHA)
	assert.Equal(t, original.TotalCommits, loaded.TotalCommits)
	assert.Equal(t, original.DurationSeconds, loaded.DurationSeconds)
	assert.Equal(t, original.FinishType, loaded.FinishType)
	assert.Equal(t, original.IterationSHA, loaded.IterationSHA)
	assert.True(t, original.StartedAt.Equal(loaded.StartedAt))
	require.NotNil(t, loaded.IterationStart)
	assert.True(t, iterStart.Equal(*loaded.IterationStart))
}

func TestStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStoreLoadCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".fresher"), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("not == toml {{"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state file")
}

func TestStartIteration(t *testing.T) {
	t.Parallel()

	s := New()
	assert.Equal(t, 0, s.Iteration)

	s.StartIteration("abc123")
	assert.Equal(t, 1, s.Iteration)
	assert.Equal(t, "abc123", s.IterationSHA)
	require.NotNil(t, s.IterationStart)

	s.StartIteration("")
	assert.Equal(t, 2, s.Iteration)
	assert.Empty(t, s.IterationSHA)
}

func TestCompleteIteration(t *testing.T) {
	t.Parallel()

	s := New()
	s.StartIteration("abc123")

	s.CompleteIteration(0, 3, "def456")
	assert.Equal(t, 0, s.LastExitCode)
	assert.Equal(t, 3, s.TotalCommits)
	assert.Equal(t, "def456", s.LastCommitSHA)

	// No commits means the last-commit marker stays put.
	s.CompleteIteration(1, 0, "zzz999")
	assert.Equal(t, 1, s.LastExitCode)
	assert.Equal(t, 3, s.TotalCommits)
	assert.Equal(t, "def456", s.LastCommitSHA)
}

func TestSetFinish(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetFinish(FinishNoChanges)
	assert.Equal(t, FinishNoChanges, s.FinishType)
}

func TestHookEnv(t *testing.T) {
	t.Parallel()

	s := New()
	s.Iteration = 4
	s.LastExitCode = 1
	s.TotalCommits = 9
	s.DurationSeconds = 120

	env := s.HookEnv()
	assert.Equal(t, "4", env["ITERATION"])
	assert.Equal(t, "1", env["LAST_EXIT_CODE"])
	assert.Equal(t, "9", env["TOTAL_COMMITS"])
	assert.Equal(t, "120", env["DURATION"])
	assert.Equal(t, "4", env["TOTAL_ITERATIONS"])
	assert.NotContains(t, env, "LAST_COMMIT_SHA")
	assert.NotContains(t, env, "FINISH_TYPE")

	s.LastCommitSHA = "abc123"
	s.SetFinish(FinishManual)

	env = s.HookEnv()
	assert.Equal(t, "abc123", env["LAST_COMMIT_SHA"])
	assert.Equal(t, "manual", env["FINISH_TYPE"])
}
