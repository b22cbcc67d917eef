package stellarflow

import "encoding/json"

// Tool is a function definition offered to the model. Parameters holds a
// JSON Schema object.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON text of the arguments; the ID pairs the call with its result.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult answers the ToolCall with the same ID. IsError marks
// failures reported back to the model.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
	IsError    bool   `json:"isError,omitempty"`
}

// ToolChoice controls whether the model may, must or must not call tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// NewToolResultMessage wraps results in a single tool-role message.
func NewToolResultMessage(results ...ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}
