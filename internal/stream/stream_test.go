package stream

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want EventType
	}{
		{"system", `{"type":"system","subtype":"init"}`, EventSystem},
		{"assistant", `{"type":"assistant","message":{"content":[]}}`, EventAssistant},
		{"user", `{"type":"user","message":{"content":[]}}`, EventUser},
		{"block start", `{"type":"content_block_start","index":0}`, EventContentBlockStart},
		{"block delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}`, EventContentBlockDelta},
		{"block stop", `{"type":"content_block_stop","index":0}`, EventContentBlockStop},
		{"result", `{"type":"result","subtype":"success"}`, EventResult},
		{"unrecognized", `{"type":"rate_limit_update"}`, EventUnknown},
		{"missing type", `{"message":{"content":[]}}`, EventUnknown},
	}

	for _, tt := range tests {
		tt := tt // loop variable capture (pre-Go 1.22 semantics)
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			event, err := ParseEvent(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Kind())
		})
	}
}

func TestParseEventInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseEvent("not json at all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse stream event")
}

func TestParseEventAssistantContent(t *testing.T) {
	t.Parallel()

	event, err := ParseEvent(`{"type":"assistant","message":{"content":[` +
		`{"type":"text","text":"Looking at the code"},` +
		`{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls -la"}}]}}`)
	require.NoError(t, err)
	require.NotNil(t, event.Message)
	require.Len(t, event.Message.Content, 2)

	assert.Equal(t, BlockText, event.Message.Content[0].Type)
	assert.Equal(t, "Looking at the code", event.Message.Content[0].Text)
	assert.Equal(t, BlockToolUse, event.Message.Content[1].Type)
	assert.Equal(t, "Bash", event.Message.Content[1].Name)
}

func TestParseEventResultFields(t *testing.T) {
	t.Parallel()

	event, err := ParseEvent(`{"type":"result","subtype":"success",` +
		`"duration_ms":4521,"cost_usd":0.0831,"num_turns":12,` +
		`"is_error":false,"result":"All tests pass"}`)
	require.NoError(t, err)

	require.NotNil(t, event.DurationMS)
	assert.Equal(t, int64(4521), *event.DurationMS)
	require.NotNil(t, event.CostUSD)
	assert.InDelta(t, 0.0831, *event.CostUSD, 0.0001)
	require.NotNil(t, event.NumTurns)
	assert.Equal(t, 12, *event.NumTurns)
	require.NotNil(t, event.Result)
	assert.Equal(t, "All tests pass", *event.Result)
}

func TestProcessSummary(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		``,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"working"}]}}`,
		`{"type":"result","duration_ms":100,"num_turns":3,"is_error":false,"result":"done"}`,
	}, "\n")

	summary, err := Process(strings.NewReader(input), nil)
	require.NoError(t, err)

	require.NotNil(t, summary.DurationMS)
	assert.Equal(t, int64(100), *summary.DurationMS)
	require.NotNil(t, summary.NumTurns)
	assert.Equal(t, 3, *summary.NumTurns)
	assert.False(t, summary.IsError)
	assert.Equal(t, "done", summary.ResultText)
}

func TestProcessLastResultWins(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"result","duration_ms":1,"result":"first"}`,
		`{"type":"result","duration_ms":2,"is_error":true,"result":"second"}`,
	}, "\n")

	summary, err := Process(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), *summary.DurationMS)
	assert.True(t, summary.IsError)
	assert.Equal(t, "second", summary.ResultText)
}

func TestProcessSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"assistant","message":{"content":[{"type":"text","text":"ok"}]}}`,
		`this line is not json`,
		`{"type":"result","result":"survived"}`,
	}, "\n")

	summary, err := Process(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, "survived", summary.ResultText)
}

func TestProcessEmptyStream(t *testing.T) {
	t.Parallel()

	summary, err := Process(strings.NewReader(""), nil)
	require.NoError(t, err)

	assert.Nil(t, summary.DurationMS)
	assert.False(t, summary.IsError)
	assert.Empty(t, summary.ResultText)
}

func TestProcessSkipsWhitespaceOnlyLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`   `,
		"\t",
		`  {"type":"result","result":"done"}  `,
	}, "\n")

	summary, err := Process(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", summary.ResultText)
}

func TestProcessLongLine(t *testing.T) {
	t.Parallel()

	// A single event bigger than the scanner's initial buffer.
	text := strings.Repeat("x", 200*1024)
	input := `{"type":"result","result":"` + text + `"}`

	summary, err := Process(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, text, summary.ResultText)
}

func TestPrinterAssistantOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printer := NewPrinter(&out)

	event, err := ParseEvent(`{"type":"assistant","message":{"content":[` +
		`{"type":"text","text":"Let me check"},` +
		`{"type":"tool_use","name":"Read","input":{"file_path":"main.go"}}]}}`)
	require.NoError(t, err)

	printer.HandleEvent(event)

	assert.Contains(t, out.String(), "Let me check")
	assert.Contains(t, out.String(), "Read: main.go")
}

func TestPrinterToolResultsHidden(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printer := NewPrinter(&out)

	event, err := ParseEvent(`{"type":"user","message":{"content":[` +
		`{"type":"tool_result","tool_use_id":"tu_1","content":"secret output"}]}}`)
	require.NoError(t, err)

	printer.HandleEvent(event)
	assert.Empty(t, out.String())

	printer.ShowToolResults = true
	printer.HandleEvent(event)
	assert.Contains(t, out.String(), "secret output")
}

func TestPrinterVerboseStats(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printer := NewPrinter(&out)
	printer.Verbose = true

	event, err := ParseEvent(`{"type":"result","duration_ms":4521,` +
		`"cost_usd":0.0831,"num_turns":12,"result":"finished"}`)
	require.NoError(t, err)

	printer.HandleEvent(event)

	assert.Contains(t, out.String(), "finished")
	assert.Contains(t, out.String(), "Duration: 4521ms")
	assert.Contains(t, out.String(), "Cost: $0.0831")
	assert.Contains(t, out.String(), "Turns: 12")
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	// 50 three-byte runes: 150 bytes, and byte 100 lands mid-rune.
	s := strings.Repeat("世", 50)
	out := truncate(s, 100)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("世", 33)+"...", out)
}

func TestFormatToolCall(t *testing.T) {
	t.Parallel()

	longCmd := strings.Repeat("a", 150)

	tests := []struct {
		name  string
		tool  string
		input string
		want  string
	}{
		{"bash command", "Bash", `{"command":"go test ./..."}`, "Bash: go test ./..."},
		{"bash truncated", "Bash", `{"command":"` + longCmd + `"}`, "Bash: " + longCmd[:100] + "..."},
		{"read path", "Read", `{"file_path":"internal/cli/root.go"}`, "Read: internal/cli/root.go"},
		{"grep pattern", "Grep", `{"pattern":"func main"}`, "Grep: func main"},
		{"task description", "Task", `{"description":"explore codebase"}`, "Task: explore codebase"},
		{"missing field", "Bash", `{}`, "Bash"},
		{"unknown tool", "TodoWrite", `{"todos":[]}`, "TodoWrite"},
		{"nil input", "Bash", ``, "Bash"},
	}

	for _, tt := range tests {
		tt := tt // loop variable capture (pre-Go 1.22 semantics)
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var input []byte
			if tt.input != "" {
				input = []byte(tt.input)
			}
			assert.Equal(t, tt.want, FormatToolCall(tt.tool, input))
		})
	}
}
