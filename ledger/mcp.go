package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	ai "github.com/stellar-agentkit/stellarflow"
)

// ToolExecutor runs a tool call. tool.Registry and mcp.RemoteRegistry
// implement it.
type ToolExecutor interface {
	Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error)
}

// MCPConfig names the tools that back each ledger operation.
type MCPConfig struct {
	// CreateTool receives {"network": ...} and returns the new keypair.
	CreateTool string
	// InfoTool receives {"publicKey": ...} and returns the account.
	InfoTool string
}

// DefaultMCPConfig returns the tool names used when none are configured.
func DefaultMCPConfig() MCPConfig {
	return MCPConfig{CreateTool: "create_account", InfoTool: "get_account_info"}
}

// MCP is a Ledger backed by tool calls, typically to stellar-mcp-server.
type MCP struct {
	exec ToolExecutor
	cfg  MCPConfig
}

// NewMCP creates a ledger that calls tools through exec. Empty tool names
// in cfg fall back to DefaultMCPConfig.
func NewMCP(exec ToolExecutor, cfg MCPConfig) *MCP {
	def := DefaultMCPConfig()
	if cfg.CreateTool == "" {
		cfg.CreateTool = def.CreateTool
	}
	if cfg.InfoTool == "" {
		cfg.InfoTool = def.InfoTool
	}
	return &MCP{exec: exec, cfg: cfg}
}

// keypairPayload accepts the camelCase and snake_case spellings used by
// Stellar tooling.
type keypairPayload struct {
	PublicKey      string `json:"publicKey"`
	PublicKeySnake string `json:"public_key"`
	SecretKey      string `json:"secretKey"`
	SecretKeySnake string `json:"secret_key"`
}

type accountPayload struct {
	AccountID      string `json:"accountId"`
	AccountIDSnake string `json:"account_id"`
	ID             string `json:"id"`
	Balance        string `json:"balance"`
	Balances       []struct {
		AssetType string `json:"asset_type"`
		Balance   string `json:"balance"`
	} `json:"balances"`
	Exists *bool `json:"exists"`
}

// CreateAccount calls the create tool.
func (m *MCP) CreateAccount(ctx context.Context, network Network) (*Keypair, error) {
	var p keypairPayload
	if err := m.call(ctx, m.cfg.CreateTool, map[string]any{"network": string(network)}, &p); err != nil {
		return nil, err
	}
	kp := &Keypair{
		PublicKey: firstNonEmpty(p.PublicKey, p.PublicKeySnake),
		SecretKey: firstNonEmpty(p.SecretKey, p.SecretKeySnake),
		Network:   network,
	}
	if !ValidPublicKey(kp.PublicKey) {
		return nil, fmt.Errorf("%s: %w: malformed public key", m.cfg.CreateTool, ErrInvalidKey)
	}
	return kp, nil
}

// AccountInfo calls the info tool.
func (m *MCP) AccountInfo(ctx context.Context, publicKey string) (*AccountInfo, error) {
	var p accountPayload
	if err := m.call(ctx, m.cfg.InfoTool, map[string]any{"publicKey": publicKey}, &p); err != nil {
		return nil, err
	}
	info := &AccountInfo{
		AccountID: firstNonEmpty(p.AccountID, p.AccountIDSnake, p.ID, publicKey),
		Balance:   p.Balance,
		Exists:    true,
	}
	if info.Balance == "" {
		for _, b := range p.Balances {
			if b.AssetType == "native" {
				info.Balance = b.Balance
				break
			}
		}
	}
	if info.Balance == "" {
		info.Balance = "0.0000000"
	}
	if p.Exists != nil {
		info.Exists = *p.Exists
	}
	return info, nil
}

func (m *MCP) call(ctx context.Context, name string, args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	res, err := m.exec.Execute(ctx, ai.ToolCall{ID: "ledger-" + uuid.NewString(), Name: name, Arguments: string(data)})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if res.IsError {
		return fmt.Errorf("%s: %w", name, errors.New(strings.TrimSpace(res.Content)))
	}
	if err := json.Unmarshal([]byte(res.Content), out); err != nil {
		return fmt.Errorf("%s: decode result: %w", name, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
