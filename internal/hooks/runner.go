// Package hooks runs user-provided lifecycle scripts. A hook is an
// executable at .fresher/hooks/<name> inside the project directory; its exit
// code steers the loop: 0 continue, 1 skip, 2 abort.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fresher-cli/fresher/internal/logging"
	"github.com/fresher-cli/fresher/internal/state"
)

// Hook exit codes.
const (
	ExitContinue = 0
	ExitSkip     = 1
	ExitAbort    = 2
)

// Hook names the loop invokes.
const (
	HookStarted       = "started"
	HookNextIteration = "next_iteration"
	HookFinished      = "finished"
)

// Result classifies a hook invocation's outcome.
type Result int

const (
	// Continue means the hook exited 0 and the loop proceeds.
	Continue Result = iota
	// Skip means the hook exited 1; only next_iteration honors it.
	Skip
	// Abort means the hook exited 2 and the loop must stop.
	Abort
	// NotFound means no executable hook exists; treated as Continue.
	NotFound
	// Timeout means the hook exceeded its deadline and was killed.
	Timeout
	// Error means the hook exited with an unrecognized code or failed to run.
	Error
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	case NotFound:
		return "not found"
	case Timeout:
		return "timeout"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Runner executes hooks for one project.
type Runner struct {
	ProjectDir string
	Mode       string
	Timeout    time.Duration
	Enabled    bool

	logger *logging.Logger
}

// NewRunner creates a hook runner for the project directory.
func NewRunner(projectDir, mode string, timeout time.Duration, enabled bool) *Runner {
	return &Runner{
		ProjectDir: projectDir,
		Mode:       mode,
		Timeout:    timeout,
		Enabled:    enabled,
		logger:     logging.With("component", "hooks"),
	}
}

// Run invokes one hook by name. The hook inherits stdout/stderr, runs with
// the project directory as cwd, and receives the run state as environment
// variables. A hook still running at the deadline is killed and reported as
// Timeout. The detail string is only populated for Error results.
func (r *Runner) Run(ctx context.Context, name string, st *state.State) (Result, string) {
	if !r.Enabled {
		return NotFound, ""
	}

	hookPath := filepath.Join(r.ProjectDir, ".fresher", "hooks", name)

	info, err := os.Stat(hookPath)
	if err != nil || info.Mode()&0o111 == 0 {
		return NotFound, ""
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, hookPath)
	cmd.Dir = r.ProjectDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), hookEnv(st, r.ProjectDir, r.Mode)...)

	err = cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return Timeout, ""
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case ExitSkip:
				return Skip, ""
			case ExitAbort:
				return Abort, ""
			default:
				return Error, fmt.Sprintf("hook exited with code %d", exitErr.ExitCode())
			}
		}
		return Error, fmt.Sprintf("failed to run hook: %v", err)
	}

	return Continue, ""
}

func hookEnv(st *state.State, projectDir, mode string) []string {
	vars := st.HookEnv()
	vars["PROJECT_DIR"] = projectDir
	vars["MODE"] = mode

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	return env
}

// RunStarted runs the started hook. It returns false only when the hook
// requests abort; timeouts and errors are logged and the run proceeds.
func (r *Runner) RunStarted(ctx context.Context, st *state.State) bool {
	result, detail := r.Run(ctx, HookStarted, st)
	switch result {
	case Abort:
		r.logger.Warn("started hook requested abort")
		return false
	case Timeout:
		r.logger.Warn("started hook timed out")
	case Error:
		r.logger.Warn("started hook failed", "detail", detail)
	}
	return true
}

// RunNextIteration runs the next_iteration hook before each iteration.
// proceed is false when the hook requests abort; skip is true when the hook
// asks for this iteration to be skipped.
func (r *Runner) RunNextIteration(ctx context.Context, st *state.State) (proceed, skip bool) {
	result, detail := r.Run(ctx, HookNextIteration, st)
	switch result {
	case Skip:
		return true, true
	case Abort:
		r.logger.Warn("next_iteration hook requested abort")
		return false, false
	case Timeout:
		r.logger.Warn("next_iteration hook timed out")
	case Error:
		r.logger.Warn("next_iteration hook failed", "detail", detail)
	}
	return true, false
}

// RunFinished runs the finished hook after the loop stops. Every outcome is
// tolerated; a teardown script must never fail the run it is reporting on.
func (r *Runner) RunFinished(ctx context.Context, st *state.State) {
	result, detail := r.Run(ctx, HookFinished, st)
	switch result {
	case Timeout:
		r.logger.Warn("finished hook timed out")
	case Error:
		r.logger.Warn("finished hook failed", "detail", detail)
	}
}
