package stellar

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// WorkflowInstructions is the system prompt of the report generator.
const WorkflowInstructions = `You are a Stellar blockchain assistant that helps users create accounts and perform operations.

Analyze the operation results and provide clear, helpful feedback to users about:
- Account creation success
- Account balance and status
- Transaction outcomes
- Any errors or issues that occurred

Always format your responses in a clear, structured way with:
- Clear section headers
- Key information highlighted
- Next steps or recommendations
- Security reminders when appropriate`

// RedactedSecret replaces secret seeds in prompts sent to the model.
const RedactedSecret = "[REDACTED]"

// ReportPrompt renders the report request. The secret seed never leaves
// the process: it is replaced with RedactedSecret.
func ReportPrompt(in ReportInput) (string, error) {
	data := in.AccountData
	if data.SecretKey != "" {
		data.SecretKey = RedactedSecret
	}
	created, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode account data: %w", err)
	}
	info, err := json.MarshalIndent(in.AccountInfo, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode account info: %w", err)
	}

	var b strings.Builder
	b.WriteString("Generate a comprehensive report about the Stellar account operations:\n\n")
	b.WriteString("Account Creation:\n")
	b.Write(created)
	b.WriteString("\n\nAccount Information:\n")
	b.Write(info)
	b.WriteString(`

Please provide a clear, formatted report that includes:
- Account creation status
- Account details and balance
- Security recommendations
- Next steps for the user
- Any warnings or important notes`)
	return b.String(), nil
}

//go:embed prompts/agent.tmpl
var agentTemplate string

//go:embed prompts/agentkit.md
var agentKitContext string

var agentInstructions = template.Must(template.New("agent").Parse(agentTemplate))

// AgentParams fills the chat agent instructions.
type AgentParams struct {
	// WalletID is the smart wallet used for Soroban contract calls.
	WalletID string
	// ContractID is the contacts contract (a C... address).
	ContractID string
}

// AgentInstructions renders the system prompt of the Stellar chat agent,
// including the Agent Kit background document.
func AgentInstructions(p AgentParams) (string, error) {
	var b strings.Builder
	err := agentInstructions.Execute(&b, struct {
		AgentParams
		Context string
	}{p, agentKitContext})
	if err != nil {
		return "", fmt.Errorf("render agent instructions: %w", err)
	}
	return b.String(), nil
}

// AgentKitContext returns the Agent Kit background document.
func AgentKitContext() string {
	return agentKitContext
}
