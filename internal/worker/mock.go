package worker

import (
	"context"
	"io"
	"strings"
)

// MockRunner scripts worker behavior for tests. Each Start consumes the
// next scripted run; reuse of the last run is deliberate so loops can
// iterate more times than the script is long.
type MockRunner struct {
	Runs []MockRun

	// Started records the args of every Start call.
	Started [][]string

	next int
}

// MockRun is one scripted worker execution.
type MockRun struct {
	// StreamLines is emitted as the process stdout, one event per line.
	StreamLines []string

	// ExitCode is returned after the stream is consumed.
	ExitCode int

	// Err aborts Start itself when set.
	Err error
}

type mockCmd struct {
	stdout   io.ReadCloser
	exitCode int
}

func (c *mockCmd) Stdout() io.ReadCloser { return c.stdout }
func (c *mockCmd) Wait() error           { return nil }
func (c *mockCmd) ExitCode() int         { return c.exitCode }

func (m *MockRunner) Start(_ context.Context, _ string, args []string) (Cmd, error) {
	m.Started = append(m.Started, args)

	run := MockRun{}
	if len(m.Runs) > 0 {
		idx := m.next
		if idx >= len(m.Runs) {
			idx = len(m.Runs) - 1
		}
		run = m.Runs[idx]
		m.next++
	}

	if run.Err != nil {
		return nil, run.Err
	}

	stdout := io.NopCloser(strings.NewReader(strings.Join(run.StreamLines, "\n")))
	return &mockCmd{stdout: stdout, exitCode: run.ExitCode}, nil
}
