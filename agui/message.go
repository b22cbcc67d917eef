package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/stellar-agentkit/stellarflow"
)

// AG-UI message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToMessages converts AG-UI messages to conversation messages. Consecutive
// tool messages are merged into one message carrying every result.
func ToMessages(msgs []events.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		m := ToMessage(msg)
		if n := len(out); n > 0 && m.Role == ai.RoleTool && out[n-1].Role == ai.RoleTool && len(m.ToolResults) > 0 {
			out[n-1].ToolResults = append(out[n-1].ToolResults, m.ToolResults...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// ToMessage converts one AG-UI message. The message id is kept so stored
// threads can recognise messages they already hold.
func ToMessage(msg events.Message) ai.Message {
	m := ai.Message{ID: msg.ID, Role: toRole(msg.Role)}
	if msg.Content != nil {
		m.Content = *msg.Content
	}
	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]ai.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = ai.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		}
	}
	if msg.ToolCallID != nil {
		m.Role = ai.RoleTool
		m.ToolResults = []ai.ToolResult{{ToolCallID: *msg.ToolCallID, Content: m.Content}}
		m.Content = ""
	}
	return m
}

// FromMessages converts conversation messages to AG-UI messages. A message
// holding several tool results becomes one AG-UI tool message per result.
func FromMessages(msgs []ai.Message) []events.Message {
	out := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		if len(msg.ToolResults) > 1 {
			for _, r := range msg.ToolResults {
				single := msg
				single.ID = ""
				single.ToolResults = []ai.ToolResult{r}
				out = append(out, FromMessage(single))
			}
			continue
		}
		out = append(out, FromMessage(msg))
	}
	return out
}

// FromMessage converts one conversation message.
func FromMessage(msg ai.Message) events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	m := events.Message{ID: id, Role: fromRole(msg.Role)}
	if msg.Content != "" {
		content := msg.Content
		m.Content = &content
	}
	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = events.ToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: events.Function{Name: tc.Name, Arguments: tc.Arguments},
			}
		}
	}
	if len(msg.ToolResults) == 1 {
		r := msg.ToolResults[0]
		m.ToolCallID = &r.ToolCallID
		m.Content = &r.Content
	}
	return m
}

func toRole(role string) ai.Role {
	switch role {
	case RoleAssistant:
		return ai.RoleAssistant
	case RoleSystem, "developer":
		return ai.RoleSystem
	case RoleTool:
		return ai.RoleTool
	default:
		return ai.RoleUser
	}
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	case ai.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}
