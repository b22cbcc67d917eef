package agent

import (
	ai "github.com/stellar-agentkit/stellarflow"
)

// TerminationReason indicates why the agent stopped.
type TerminationReason string

const (
	// TerminationComplete indicates the model answered without tool calls.
	TerminationComplete TerminationReason = "complete"

	// TerminationMaxSteps indicates the step limit was reached.
	TerminationMaxSteps TerminationReason = "max_steps"

	// TerminationTimeout indicates the run deadline was exceeded.
	TerminationTimeout TerminationReason = "timeout"

	// TerminationCancelled indicates context cancellation.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationCustom indicates the stop predicate returned true.
	TerminationCustom TerminationReason = "custom"

	// TerminationRejected indicates every tool call of a step was rejected.
	TerminationRejected TerminationReason = "rejected"

	// TerminationClientToolCall indicates the model called a frontend tool.
	TerminationClientToolCall TerminationReason = "client_tool_call"

	// TerminationError indicates an unrecoverable error occurred.
	TerminationError TerminationReason = "error"
)

// Result is the outcome of an agent run.
type Result struct {
	// Response is the last model response.
	Response *ai.Response

	// Messages is the full conversation, instructions included.
	Messages []ai.Message

	Steps       int
	Termination TerminationReason
	TotalUsage  ai.Usage

	// PendingToolCalls are the frontend tool calls awaiting results.
	PendingToolCalls []ai.ToolCall

	Error error
}

// LastMessages returns the last n messages of the conversation.
func (r *Result) LastMessages(n int) []ai.Message {
	if n >= len(r.Messages) {
		return r.Messages
	}
	return r.Messages[len(r.Messages)-n:]
}
