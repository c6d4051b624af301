// Package stream parses the agent's stream-json stdout: one JSON event per
// line, discriminated by a top-level "type" field. Events the parser doesn't
// recognize are classified as unknown rather than rejected, so newer agent
// versions never break the loop.
package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType identifies the kind of stream event.
type EventType string

const (
	EventSystem            EventType = "system"
	EventAssistant         EventType = "assistant"
	EventUser              EventType = "user"
	EventContentBlockStart EventType = "content_block_start"
	EventContentBlockDelta EventType = "content_block_delta"
	EventContentBlockStop  EventType = "content_block_stop"
	EventResult            EventType = "result"
	EventUnknown           EventType = "unknown"
)

// knownEventTypes is the closed set the loop acts on.
var knownEventTypes = map[EventType]bool{
	EventSystem:            true,
	EventAssistant:         true,
	EventUser:              true,
	EventContentBlockStart: true,
	EventContentBlockDelta: true,
	EventContentBlockStop:  true,
	EventResult:            true,
}

// Event is a single stream-json line. Fields are populated per type:
// assistant/user events carry Message, content_block_* events carry
// Index/ContentBlock/Delta, result events carry the run statistics.
type Event struct {
	Type    string   `json:"type"`
	Subtype string   `json:"subtype,omitempty"`
	Message *Message `json:"message,omitempty"`

	Index        *int          `json:"index,omitempty"`
	ContentBlock *ContentBlock `json:"content_block,omitempty"`
	Delta        *Delta        `json:"delta,omitempty"`

	IsError       *bool    `json:"is_error,omitempty"`
	DurationMS    *int64   `json:"duration_ms,omitempty"`
	DurationAPIMS *int64   `json:"duration_api_ms,omitempty"`
	NumTurns      *int     `json:"num_turns,omitempty"`
	Result        *string  `json:"result,omitempty"`
	CostUSD       *float64 `json:"cost_usd,omitempty"`
	SessionID     string   `json:"session_id,omitempty"`
}

// Kind maps the wire type onto the closed event set. Anything the loop
// doesn't know about comes back as EventUnknown.
func (e *Event) Kind() EventType {
	t := EventType(e.Type)
	if knownEventTypes[t] {
		return t
	}
	return EventUnknown
}

// Message wraps the content array of an assistant or user event.
type Message struct {
	Content []ContentBlock `json:"content"`
}

// Content block types within a message.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one item of a message's content array. Fields are
// populated per block type: Text for "text", ID/Name/Input for "tool_use",
// ToolUseID/Content for "tool_result".
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

// Delta carries a streaming fragment of a content block.
type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// ParseEvent decodes a single stream-json line.
func ParseEvent(line string) (*Event, error) {
	line = strings.TrimSpace(line)
	var e Event
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return nil, fmt.Errorf("failed to parse stream event: %w", err)
	}
	return &e, nil
}
