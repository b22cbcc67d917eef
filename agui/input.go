package agui

import (
	"encoding/json"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/stellar-agentkit/stellarflow"
)

// RunAgentInput is the AG-UI request body for running an agent.
type RunAgentInput struct {
	ThreadID       string           `json:"threadId"`
	RunID          string           `json:"runId"`
	Messages       []events.Message `json:"messages"`
	Tools          []any            `json:"tools,omitempty"`
	Context        []ContextItem    `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwardedProps,omitempty"`
}

// ContextItem is a piece of frontend context handed to the agent.
type ContextItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// PreparedInput is a validated request ready for an agent run.
type PreparedInput struct {
	ThreadID  string
	RunID     string
	Messages  []ai.Message
	Tools     []ai.Tool
	ToolNames []string
	Context   []ContextItem
	State     any
}

// ErrNoMessages is returned when a request carries no messages.
var ErrNoMessages = errors.New("no messages provided")

// Prepare validates the input and converts it to conversation types.
// Missing thread and run ids are generated.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	messages := ToMessages(r.Messages)
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	p := &PreparedInput{
		ThreadID: r.ThreadID,
		RunID:    r.RunID,
		Messages: messages,
		Context:  r.Context,
		State:    r.State,
	}
	if p.ThreadID == "" {
		p.ThreadID = events.GenerateThreadID()
	}
	if p.RunID == "" {
		p.RunID = events.GenerateRunID()
	}
	if len(r.Tools) > 0 {
		tools, err := ParseTools(r.Tools)
		if err != nil {
			return nil, err
		}
		p.Tools = ToTools(tools)
		p.ToolNames = ToolNames(tools)
	}
	return p, nil
}

// DecodeState decodes the raw frontend state into T. A nil state gives the
// zero value.
func DecodeState[T any](input *PreparedInput) (T, error) {
	return decode[T](input.State)
}

// RunWorkflowInput is the request body for running a workflow.
type RunWorkflowInput struct {
	ThreadID  string          `json:"threadId,omitempty"`
	RunID     string          `json:"runId,omitempty"`
	InputData json.RawMessage `json:"inputData,omitempty"`
}

// Input decodes InputData into a generic JSON value. An absent body gives
// an empty object.
func (r *RunWorkflowInput) Input() (any, error) {
	if len(r.InputData) == 0 || string(r.InputData) == "null" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal(r.InputData, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decode[T any](raw any) (T, error) {
	var out T
	if raw == nil {
		return out, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
