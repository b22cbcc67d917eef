package stellarflow

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ParseRole maps a wire role string onto a Role. Unknown roles are treated
// as user input.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAssistant, RoleSystem, RoleTool:
		return Role(s)
	default:
		return RoleUser
	}
}

// Message represents a single message in a conversation.
type Message struct {
	// ID is an optional unique identifier used for correlation on the wire.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults contains results from tool executions.
	// Only populated when Role is RoleTool.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// SystemPrompt returns the content of the leading system messages joined by
// blank lines, or "" when the conversation has none.
func SystemPrompt(msgs []Message) string {
	var out string
	for _, m := range msgs {
		if m.Role != RoleSystem {
			break
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// Response represents a complete response from a chat provider.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
	// ToolCalls contains any tool invocation requests from the model.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add returns the sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
