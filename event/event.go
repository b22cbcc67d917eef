// Package event defines the lifecycle events streamed by the chat client,
// the agent and the workflow runner. Event types map one-to-one onto AG-UI
// protocol events.
package event

import (
	"context"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when execution begins (agent run, workflow run, or chat stream).
	RunStart Type = "run_start"

	// RunEnd fires when execution completes successfully.
	RunEnd Type = "run_end"

	// RunError fires when an unrecoverable error occurs.
	RunError Type = "run_error"
)

// Step lifecycle events
const (
	StepStart Type = "step_start"
	StepEnd   Type = "step_end"
)

// Message lifecycle events
const (
	// MessageStart fires when an assistant message begins.
	MessageStart Type = "message_start"

	// MessageDelta fires for each streamed fragment.
	MessageDelta Type = "message_delta"

	// MessageEnd fires when an assistant message completes.
	MessageEnd Type = "message_end"
)

// Tool call lifecycle events
const (
	ToolCallStart  Type = "tool_call_start"
	ToolCallArgs   Type = "tool_call_args"
	ToolCallEnd    Type = "tool_call_end"
	ToolCallResult Type = "tool_call_result"
)

// Event represents an observable occurrence during streaming execution.
type Event struct {
	Type Type

	// MessageID identifies the message for Start/Delta/End correlation.
	MessageID string

	// Delta contains streamed text for MessageDelta events.
	Delta string

	// Response contains the complete response for MessageEnd and RunEnd events.
	Response *ai.Response

	ToolCall   *ai.ToolCall
	ToolResult *ai.ToolResult

	// Step is the 1-indexed agent iteration.
	Step int

	// StepName identifies the workflow step for StepStart and StepEnd.
	StepName string

	// Data carries a step output on StepEnd or a run output on RunEnd.
	Data any

	Error error

	// Message contains additional context such as a termination reason.
	Message string

	// PendingToolCalls lists tool calls the frontend must execute. Set on
	// RunEnd when the run stopped to hand control back to the client.
	PendingToolCalls []ai.ToolCall

	Timestamp time.Time
}

// Emit stamps the event and sends it without blocking. The event is
// dropped when the channel is full.
func Emit(ch chan<- Event, e Event) {
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// Send stamps the event and delivers it, blocking until the receiver takes
// it or ctx is done. It reports whether the event was delivered.
func Send(ctx context.Context, ch chan<- Event, e Event) bool {
	e.Timestamp = time.Now()
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}

// Drain discards the remaining events until ch is closed.
func Drain(ch <-chan Event) {
	for range ch {
	}
}

// Collect reads every event until ch is closed.
func Collect(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}
