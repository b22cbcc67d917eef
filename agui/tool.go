package agui

import (
	"encoding/json"

	ai "github.com/stellar-agentkit/stellarflow"
)

// Tool is a frontend tool definition sent with an AG-UI request.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToTool converts the definition to an ai.Tool.
func (t Tool) ToTool() ai.Tool {
	return ai.Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
}

// FromTool converts an ai.Tool to its AG-UI definition.
func FromTool(t ai.Tool) Tool {
	return Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
}

// ParseTools decodes the loosely typed tools of a request.
func ParseTools(raw []any) ([]Tool, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var tools []Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// ToTools converts AG-UI tool definitions to ai tools.
func ToTools(tools []Tool) []ai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ai.Tool, len(tools))
	for i, t := range tools {
		out[i] = t.ToTool()
	}
	return out
}

// ToolNames returns the names of tools.
func ToolNames(tools []Tool) []string {
	if len(tools) == 0 {
		return nil
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
