package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	commandPreviewLen = 100
	resultPreviewLen  = 200
)

// Printer renders stream events as human-readable progress lines. The zero
// value is silent; NewPrinter returns the loop's defaults.
type Printer struct {
	Out             io.Writer
	ShowToolCalls   bool
	ShowToolResults bool
	ShowText        bool
	Verbose         bool
}

// NewPrinter returns a printer with the loop's default visibility: assistant
// text and tool calls on, tool results and diagnostics off.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		Out:           out,
		ShowToolCalls: true,
		ShowText:      true,
	}
}

// HandleEvent prints whatever the event warrants. Events carry no ordering
// metadata, so the caller must feed them in stream order.
func (p *Printer) HandleEvent(e *Event) {
	if p.Out == nil {
		return
	}

	switch e.Kind() {
	case EventSystem:
		if p.Verbose && e.Subtype != "" {
			fmt.Fprintf(p.Out, "[system] %s\n", e.Subtype)
		}

	case EventAssistant:
		if e.Message == nil {
			return
		}
		for _, block := range e.Message.Content {
			switch block.Type {
			case BlockText:
				if p.ShowText && block.Text != "" {
					fmt.Fprintln(p.Out, block.Text)
				}
			case BlockToolUse:
				if p.ShowToolCalls {
					fmt.Fprintf(p.Out, "  -> %s\n", FormatToolCall(block.Name, block.Input))
				}
			}
		}

	case EventUser:
		if !p.ShowToolResults || e.Message == nil {
			return
		}
		for _, block := range e.Message.Content {
			if block.Type == BlockToolResult {
				fmt.Fprintf(p.Out, "  -> %s\n", truncate(block.Content, resultPreviewLen))
			}
		}

	case EventContentBlockStart:
		if p.Verbose && e.ContentBlock != nil && e.ContentBlock.Type == BlockToolUse {
			fmt.Fprintf(p.Out, "  starting: %s\n", e.ContentBlock.Name)
		}

	case EventResult:
		if p.ShowText && e.Result != nil && *e.Result != "" {
			fmt.Fprintf(p.Out, "\n%s\n", *e.Result)
		}
		if p.Verbose {
			if e.DurationMS != nil {
				fmt.Fprintf(p.Out, "\nDuration: %dms\n", *e.DurationMS)
			}
			if e.CostUSD != nil {
				fmt.Fprintf(p.Out, "Cost: $%.4f\n", *e.CostUSD)
			}
			if e.NumTurns != nil {
				fmt.Fprintf(p.Out, "Turns: %d\n", *e.NumTurns)
			}
		}

	case EventUnknown:
		if p.Verbose {
			fmt.Fprintln(p.Out, "[unknown event]")
		}
	}
}

// FormatToolCall renders a tool invocation as a one-line summary, pulling
// the most useful input field per tool. Bash commands are truncated so a
// long heredoc never floods the log.
func FormatToolCall(name string, input json.RawMessage) string {
	switch name {
	case "Bash":
		if cmd := inputField(input, "command"); cmd != "" {
			return fmt.Sprintf("Bash: %s", truncate(cmd, commandPreviewLen))
		}
	case "Read", "Write", "Edit":
		if path := inputField(input, "file_path"); path != "" {
			return fmt.Sprintf("%s: %s", name, path)
		}
	case "Glob", "Grep":
		if pattern := inputField(input, "pattern"); pattern != "" {
			return fmt.Sprintf("%s: %s", name, pattern)
		}
	case "Task":
		if desc := inputField(input, "description"); desc != "" {
			return fmt.Sprintf("Task: %s", desc)
		}
	}
	return name
}

// inputField extracts a string field from a tool's raw input object.
func inputField(input json.RawMessage, key string) string {
	if len(input) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(fields[key], &value); err != nil {
		return ""
	}
	return value
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the preview stays valid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
