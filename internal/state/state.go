// Package state persists run progress across iterations so an interrupted
// run can resume. State is a TOML document at .fresher/.state inside the
// project directory.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// FinishType records why a run stopped.
type FinishType string

const (
	FinishManual        FinishType = "manual"
	FinishError         FinishType = "error"
	FinishMaxIterations FinishType = "max_iterations"
	FinishComplete      FinishType = "complete"
	FinishNoChanges     FinishType = "no_changes"
)

// State is the persisted progress of a run. Durations are whole seconds
// since StartedAt; Iteration counts from 1 once the first iteration starts.
type State struct {
	Iteration       int        `toml:"iteration"`
	LastExitCode    int        `toml:"last_exit_code"`
	LastCommitSHA   string     `toml:"last_commit_sha,omitempty"`
	StartedAt       time.Time  `toml:"started_at"`
	TotalCommits    int        `toml:"total_commits"`
	DurationSeconds int64      `toml:"duration"`
	FinishType      FinishType `toml:"finish_type,omitempty"`
	IterationStart  *time.Time `toml:"iteration_start,omitempty"`
	IterationSHA    string     `toml:"iteration_sha,omitempty"`
}

// New returns a fresh state stamped with the current time.
func New() *State {
	return &State{StartedAt: time.Now().UTC()}
}

// StartIteration bumps the iteration counter and snapshots the revision the
// iteration begins from. An empty sha means the repository had no commits.
func (s *State) StartIteration(sha string) {
	s.Iteration++
	now := time.Now().UTC()
	s.IterationStart = &now
	s.IterationSHA = sha
}

// CompleteIteration records the worker's exit code and the commits the
// iteration produced. headSHA is only recorded when commits landed.
func (s *State) CompleteIteration(exitCode, commits int, headSHA string) {
	s.LastExitCode = exitCode
	s.TotalCommits += commits
	if commits > 0 && headSHA != "" {
		s.LastCommitSHA = headSHA
	}
	s.UpdateDuration()
}

// UpdateDuration refreshes the elapsed-seconds counter.
func (s *State) UpdateDuration() {
	s.DurationSeconds = int64(time.Since(s.StartedAt).Seconds())
}

// SetFinish stamps the reason the run stopped.
func (s *State) SetFinish(ft FinishType) {
	s.FinishType = ft
	s.UpdateDuration()
}

// HookEnv returns the environment variables hooks receive. Optional values
// are omitted rather than passed empty.
func (s *State) HookEnv() map[string]string {
	env := map[string]string{
		"ITERATION":        strconv.Itoa(s.Iteration),
		"LAST_EXIT_CODE":   strconv.Itoa(s.LastExitCode),
		"TOTAL_COMMITS":    strconv.Itoa(s.TotalCommits),
		"DURATION":         strconv.FormatInt(s.DurationSeconds, 10),
		"TOTAL_ITERATIONS": strconv.Itoa(s.Iteration),
	}
	if s.LastCommitSHA != "" {
		env["LAST_COMMIT_SHA"] = s.LastCommitSHA
	}
	if s.FinishType != "" {
		env["FINISH_TYPE"] = string(s.FinishType)
	}
	return env
}

// Store reads and writes the state file under a project directory.
type Store struct {
	basePath string
}

// NewStore creates a store rooted at the project directory.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// Path returns the state file location.
func (st *Store) Path() string {
	return filepath.Join(st.basePath, ".fresher", ".state")
}

// Load reads the state file. A missing file returns (nil, nil) so callers
// can distinguish "no previous run" from a corrupt file.
func (st *Store) Load() (*State, error) {
	content, err := os.ReadFile(st.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var s State
	if err := toml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &s, nil
}

// Save writes the state file, creating the control directory if needed.
func (st *Store) Save(s *State) error {
	dir := filepath.Dir(st.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	f, err := os.Create(st.Path())
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}
