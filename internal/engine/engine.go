// Package engine runs the iteration loop: check for pending work, spawn a
// worker on a fresh context, tally what landed, decide whether to go again.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fresher-cli/fresher/internal/config"
	"github.com/fresher-cli/fresher/internal/hooks"
	"github.com/fresher-cli/fresher/internal/logging"
	"github.com/fresher-cli/fresher/internal/state"
	"github.com/fresher-cli/fresher/internal/stream"
	"github.com/fresher-cli/fresher/internal/worker"
)

// Engine drives the loop. Collaborators are injected so tests can run the
// whole loop without git, hooks, or a real worker process.
type Engine struct {
	Config     *config.Config
	ProjectDir string
	Store      *state.Store
	Hooks      *hooks.Runner
	Worker     worker.Runner
	Revisions  state.Revisions
	Printer    *stream.Printer

	// HasPendingWork reports whether the plan still has open tasks.
	HasPendingWork func() bool

	// DefaultPrompt is used when no .fresher/PROMPT.<mode>.md override
	// exists in the project.
	DefaultPrompt string

	interrupted atomic.Bool
	logger      *logging.Logger
}

// Result summarizes a finished run.
type Result struct {
	FinishType      state.FinishType
	Iterations      int
	Commits         int
	DurationSeconds int64

	// LastSummary is the stream summary of the final iteration, nil when
	// no worker ran.
	LastSummary *stream.RunSummary
}

// Interrupt asks the loop to stop at the next iteration boundary. The
// current iteration runs to completion.
func (e *Engine) Interrupt() {
	e.interrupted.Store(true)
}

// Run executes the loop until a finish condition. The started hook runs
// first; if it aborts, Run returns a nil Result and no finished hook fires.
// Every other exit path updates the duration, persists state, and runs the
// finished hook exactly once.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.logger == nil {
		e.logger = logging.With("component", "engine")
	}

	st := state.New()

	if !e.Hooks.RunStarted(ctx, st) {
		return nil, nil
	}

	var lastSummary *stream.RunSummary
	var runErr error

	for {
		if e.interrupted.Load() {
			st.SetFinish(state.FinishManual)
			break
		}

		if max := e.Config.Loop.MaxIterations; max > 0 && st.Iteration >= max {
			st.SetFinish(state.FinishMaxIterations)
			break
		}

		if !e.HasPendingWork() {
			st.SetFinish(state.FinishComplete)
			break
		}

		sha, _ := e.Revisions.Head()
		st.StartIteration(sha)
		e.logger.Info("iteration started", "iteration", st.Iteration, "sha", sha)

		proceed, skip := e.Hooks.RunNextIteration(ctx, st)
		if !proceed {
			st.SetFinish(state.FinishManual)
			break
		}
		if skip {
			e.logger.Info("iteration skipped by hook", "iteration", st.Iteration)
			continue
		}

		summary, exitCode, err := e.runWorker(ctx)
		if err != nil {
			runErr = err
			st.SetFinish(state.FinishError)
			break
		}
		lastSummary = summary

		commits := 0
		if st.IterationSHA != "" {
			commits = e.Revisions.CommitsSince(st.IterationSHA)
		}
		head, _ := e.Revisions.Head()

		st.CompleteIteration(exitCode, commits, head)
		if err := e.Store.Save(st); err != nil {
			runErr = err
			st.SetFinish(state.FinishError)
			break
		}

		e.logger.Info("iteration finished",
			"iteration", st.Iteration, "exit_code", exitCode, "commits", commits)

		if exitCode != 0 {
			st.SetFinish(state.FinishError)
			break
		}

		if e.Config.Loop.SmartTermination && head == st.IterationSHA && commits == 0 {
			st.SetFinish(state.FinishNoChanges)
			break
		}
	}

	st.UpdateDuration()
	if err := e.Store.Save(st); err != nil && runErr == nil {
		runErr = err
	}

	e.Hooks.RunFinished(ctx, st)

	result := &Result{
		FinishType:      st.FinishType,
		Iterations:      st.Iteration,
		Commits:         st.TotalCommits,
		DurationSeconds: st.DurationSeconds,
		LastSummary:     lastSummary,
	}
	return result, runErr
}

// runWorker spawns one worker process and drains its stream.
func (e *Engine) runWorker(ctx context.Context) (*stream.RunSummary, int, error) {
	prompt, err := e.resolvePrompt()
	if err != nil {
		return nil, 0, err
	}

	args := worker.BuildArgs(e.ProjectDir, prompt, e.Config)
	cmd, err := e.Worker.Start(ctx, e.ProjectDir, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to start worker: %w", err)
	}

	summary, streamErr := stream.Process(cmd.Stdout(), e.Printer)
	if streamErr != nil {
		e.logger.Warn("stream ended with error", "error", streamErr)
		// The worker keeps writing; an undrained pipe would block Wait.
		io.Copy(io.Discard, cmd.Stdout())
	}

	if err := cmd.Wait(); err != nil {
		return nil, 0, fmt.Errorf("worker failed: %w", err)
	}

	return summary, cmd.ExitCode(), nil
}

// resolvePrompt prefers the project's mode-specific prompt override.
func (e *Engine) resolvePrompt() (string, error) {
	override := filepath.Join(e.ProjectDir, ".fresher", fmt.Sprintf("PROMPT.%s.md", e.Config.Loop.Mode))
	content, err := os.ReadFile(override)
	if err == nil {
		return string(content), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read prompt override: %w", err)
	}
	return e.DefaultPrompt, nil
}
