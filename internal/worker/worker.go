// Package worker spawns the coding agent subprocess for one iteration and
// exposes its stream-json stdout.
package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/fresher-cli/fresher/internal/config"
)

// Executable is the agent binary each iteration runs.
const Executable = "claude"

// Cmd is a started worker process.
type Cmd interface {
	// Stdout is the process's stream-json output.
	Stdout() io.ReadCloser

	// Wait blocks until the process exits. A non-zero exit is not an
	// error; use ExitCode after Wait returns.
	Wait() error

	// ExitCode returns the process exit code. Only valid after Wait.
	ExitCode() int
}

// Runner starts worker processes. Abstracted so engine tests can script
// stream output without spawning anything.
type Runner interface {
	Start(ctx context.Context, dir string, args []string) (Cmd, error)
}

// LocalRunner runs the agent binary on the local machine.
type LocalRunner struct{}

type localCmd struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (c *localCmd) Stdout() io.ReadCloser { return c.stdout }

func (c *localCmd) Wait() error {
	err := c.cmd.Wait()
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}

func (c *localCmd) ExitCode() int {
	if c.cmd.ProcessState == nil {
		return -1
	}
	return c.cmd.ProcessState.ExitCode()
}

// Start launches the agent with stdout piped and stderr inherited.
func (r *LocalRunner) Start(ctx context.Context, dir string, args []string) (Cmd, error) {
	cmd := exec.CommandContext(ctx, Executable, args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", Executable, err)
	}

	return &localCmd{cmd: cmd, stdout: stdout}, nil
}

// Available reports whether the agent binary is on PATH.
func Available() bool {
	_, err := exec.LookPath(Executable)
	return err == nil
}

// BuildArgs assembles the agent invocation for one iteration. The system
// prompt file is only appended when it exists in the project directory.
// --no-session-persistence keeps every iteration on a fresh context.
func BuildArgs(projectDir, prompt string, cfg *config.Config) []string {
	args := []string{"-p", prompt}

	agentsPath := filepath.Join(projectDir, ".fresher", "AGENTS.md")
	if _, err := os.Stat(agentsPath); err == nil {
		args = append(args, "--append-system-prompt-file", agentsPath)
	}

	if cfg.Loop.DangerousPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}

	args = append(args,
		"--output-format", "stream-json",
		"--max-turns", strconv.Itoa(cfg.Loop.MaxTurns),
		"--no-session-persistence",
		"--model", cfg.Loop.Model,
		"--verbose",
	)
	return args
}
