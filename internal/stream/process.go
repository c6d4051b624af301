package stream

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fresher-cli/fresher/internal/logging"
)

// RunSummary aggregates what the result event reported. When a stream
// carries more than one result event, the last one wins.
type RunSummary struct {
	DurationMS *int64   `json:"duration_ms,omitempty"`
	CostUSD    *float64 `json:"cost_usd,omitempty"`
	NumTurns   *int     `json:"num_turns,omitempty"`
	IsError    bool     `json:"is_error"`
	ResultText string   `json:"result_text,omitempty"`
}

// Process reads stream-json lines until EOF, handing each event to the
// printer and collecting the run summary. Blank lines are skipped; a line
// that fails to parse is logged and skipped so one garbled write from the
// agent never aborts the iteration. Long JSON lines need a generous buffer.
func Process(r io.Reader, printer *Printer) (*RunSummary, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	summary := &RunSummary{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		event, err := ParseEvent(line)
		if err != nil {
			logging.Debug("skipping unparseable stream line", "error", err)
			continue
		}

		if printer != nil {
			printer.HandleEvent(event)
		}

		if event.Kind() == EventResult {
			summary.DurationMS = event.DurationMS
			summary.CostUSD = event.CostUSD
			summary.NumTurns = event.NumTurns
			summary.IsError = event.IsError != nil && *event.IsError
			if event.Result != nil {
				summary.ResultText = *event.Result
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("failed to read stream output: %w", err)
	}

	return summary, nil
}
