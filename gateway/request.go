package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/stellar-agentkit/stellarflow/agui"
)

// ErrNoMessages is returned for a chat request without messages.
var ErrNoMessages = errors.New("no messages provided")

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ID       string    `json:"id,omitempty"`
	Messages []Message `json:"messages"`
	System   string    `json:"system,omitempty"`
	Tools    Tools     `json:"tools,omitempty"`
}

// Message is a chat message whose content is either a string or a list of
// parts.
type Message struct {
	ID      string  `json:"id,omitempty"`
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Part is one element of a parts-style message.
type Part struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// Content holds message content. A plain string decodes to one text part.
type Content []Part

// UnmarshalJSON accepts a string or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Content{{Type: "text", Text: s}}
		return nil
	}
	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or a list of parts: %w", err)
	}
	*c = parts
	return nil
}

// Text concatenates the text parts.
func (c Content) Text() string {
	var b bytes.Buffer
	for _, p := range c {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Tools holds frontend tool definitions. Both a name-keyed map and an array
// decode into it.
type Tools []agui.Tool

// UnmarshalJSON accepts {"name": {...}} or [{"name": ...}].
func (t *Tools) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = nil
		return nil
	}
	if data[0] == '[' {
		var list []agui.Tool
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	var byName map[string]agui.Tool
	if err := json.Unmarshal(data, &byName); err != nil {
		return fmt.Errorf("tools must be an object or an array: %w", err)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]agui.Tool, 0, len(names))
	for _, name := range names {
		tool := byName[name]
		tool.Name = name
		list = append(list, tool)
	}
	*t = list
	return nil
}

// RunInput converts the chat request to an AG-UI run for the agent. The
// system prompt becomes a leading system message.
func (r *ChatRequest) RunInput() (agui.RunAgentInput, error) {
	if len(r.Messages) == 0 {
		return agui.RunAgentInput{}, ErrNoMessages
	}
	in := agui.RunAgentInput{
		ThreadID:       r.ID,
		RunID:          events.GenerateRunID(),
		ForwardedProps: map[string]any{"toolCallStreaming": true},
	}
	if r.System != "" {
		in.Messages = append(in.Messages, textMessage(events.GenerateMessageID(), agui.RoleSystem, r.System))
	}
	for _, m := range r.Messages {
		in.Messages = append(in.Messages, convertMessage(m)...)
	}
	for _, t := range r.Tools {
		in.Tools = append(in.Tools, t)
	}
	return in, nil
}

func textMessage(id, role, text string) events.Message {
	return events.Message{ID: id, Role: role, Content: &text}
}

func convertMessage(m Message) []events.Message {
	id := m.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	var (
		calls   []events.ToolCall
		results []events.Message
	)
	for _, p := range m.Content {
		switch p.Type {
		case "tool-call":
			args := string(p.Args)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, events.ToolCall{
				ID:       p.ToolCallID,
				Type:     "function",
				Function: events.Function{Name: p.ToolName, Arguments: args},
			})
		case "tool-result":
			callID := p.ToolCallID
			content := resultText(p.Result)
			results = append(results, events.Message{
				ID:         events.GenerateMessageID(),
				Role:       agui.RoleTool,
				Content:    &content,
				ToolCallID: &callID,
			})
		}
	}

	var out []events.Message
	if m.Role != agui.RoleTool || len(results) == 0 {
		msg := events.Message{ID: id, Role: m.Role, ToolCalls: calls}
		if text := m.Content.Text(); text != "" {
			msg.Content = &text
		}
		if msg.Content != nil || len(msg.ToolCalls) > 0 {
			out = append(out, msg)
		}
	}
	return append(out, results...)
}

// resultText renders a tool result: JSON strings are unquoted, anything
// else is kept as JSON.
func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
