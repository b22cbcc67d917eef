package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
)

func TestNewMapper(t *testing.T) {
	t.Run("with provided ids", func(t *testing.T) {
		m := NewMapper("thread-123", "run-456")
		assert.Equal(t, "thread-123", m.ThreadID())
		assert.Equal(t, "run-456", m.RunID())
	})

	t.Run("generates ids when empty", func(t *testing.T) {
		m := NewMapper("", "")
		assert.NotEmpty(t, m.ThreadID())
		assert.NotEmpty(t, m.RunID())
	})
}

func TestMapEvent(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	call := &ai.ToolCall{ID: "call-1", Name: "create_stellar_account", Arguments: `{"network":"testnet"}`}

	tests := []struct {
		name string
		in   event.Event
		want events.EventType
	}{
		{"run start", event.Event{Type: event.RunStart}, events.EventTypeRunStarted},
		{"run end", event.Event{Type: event.RunEnd}, events.EventTypeRunFinished},
		{"run error", event.Event{Type: event.RunError, Error: errors.New("boom")}, events.EventTypeRunError},
		{"step start", event.Event{Type: event.StepStart, StepName: "create-account"}, events.EventTypeStepStarted},
		{"step end", event.Event{Type: event.StepEnd, StepName: "create-account"}, events.EventTypeStepFinished},
		{"message start", event.Event{Type: event.MessageStart, MessageID: "m"}, events.EventTypeTextMessageStart},
		{"message delta", event.Event{Type: event.MessageDelta, MessageID: "m", Delta: "hi"}, events.EventTypeTextMessageContent},
		{"message end", event.Event{Type: event.MessageEnd, MessageID: "m"}, events.EventTypeTextMessageEnd},
		{"tool call start", event.Event{Type: event.ToolCallStart, ToolCall: call}, events.EventTypeToolCallStart},
		{"tool call args", event.Event{Type: event.ToolCallArgs, ToolCall: call}, events.EventTypeToolCallArgs},
		{"tool call end", event.Event{Type: event.ToolCallEnd, ToolCall: call}, events.EventTypeToolCallEnd},
		{"tool call result", event.Event{Type: event.ToolCallResult, ToolCall: call, ToolResult: &ai.ToolResult{ToolCallID: "call-1", Content: "ok"}}, events.EventTypeToolCallResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := m.MapEvent(tt.in)
			require.NotNil(t, ev)
			assert.Equal(t, tt.want, ev.Type())
		})
	}

	t.Run("incomplete events map to nil", func(t *testing.T) {
		assert.Nil(t, m.MapEvent(event.Event{Type: event.ToolCallStart}))
		assert.Nil(t, m.MapEvent(event.Event{Type: event.ToolCallResult, ToolCall: call}))
		assert.Nil(t, m.MapEvent(event.Event{Type: event.MessageDelta, MessageID: "m"}))
	})
}

func mapAll(m *Mapper, in []event.Event) []events.EventType {
	ch := make(chan event.Event, len(in))
	for _, e := range in {
		ch <- e
	}
	close(ch)
	var out []events.EventType
	for ev := range m.MapStream(ch) {
		out = append(out, ev.Type())
	}
	return out
}

func TestMapStream(t *testing.T) {
	t.Run("nested runs are flattened", func(t *testing.T) {
		got := mapAll(NewMapper("t", "r"), []event.Event{
			{Type: event.RunStart},
			{Type: event.RunStart},
			{Type: event.MessageStart, MessageID: "m"},
			{Type: event.MessageEnd, MessageID: "m"},
			{Type: event.RunEnd},
			{Type: event.RunEnd},
		})
		assert.Equal(t, []events.EventType{
			events.EventTypeRunStarted,
			events.EventTypeTextMessageStart,
			events.EventTypeTextMessageEnd,
			events.EventTypeRunFinished,
		}, got)
	})

	t.Run("initial state follows run started", func(t *testing.T) {
		got := mapAll(NewMapper("t", "r", WithInitialState(map[string]any{"network": "testnet"})), []event.Event{
			{Type: event.RunStart},
			{Type: event.RunEnd},
		})
		assert.Equal(t, []events.EventType{
			events.EventTypeRunStarted,
			events.EventTypeStateSnapshot,
			events.EventTypeRunFinished,
		}, got)
	})

	t.Run("result snapshot precedes run finished", func(t *testing.T) {
		got := mapAll(NewMapper("t", "r", WithResultSnapshot()), []event.Event{
			{Type: event.RunStart},
			{Type: event.RunEnd, Data: map[string]any{"success": true}},
		})
		assert.Equal(t, []events.EventType{
			events.EventTypeRunStarted,
			events.EventTypeStateSnapshot,
			events.EventTypeRunFinished,
		}, got)
	})

	t.Run("run error ends the stream", func(t *testing.T) {
		got := mapAll(NewMapper("t", "r", WithResultSnapshot()), []event.Event{
			{Type: event.RunStart},
			{Type: event.RunError, Error: errors.New("boom"), Data: map[string]any{}},
		})
		assert.Equal(t, []events.EventType{events.EventTypeRunStarted, events.EventTypeRunError}, got)
	})
}
