package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/tool"
)

// ClientName identifies this process to MCP servers.
const ClientName = "stellarflow-mcp-client"

// ServerConfig describes how to reach one MCP server. A URL selects the
// SSE transport; otherwise Command is started as a stdio subprocess.
type ServerConfig struct {
	Name    string            `yaml:"-"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	URL     string            `yaml:"url"`
}

func (c ServerConfig) environ() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, len(keys))
	for i, k := range keys {
		env[i] = k + "=" + c.Env[k]
	}
	return env
}

// RemoteRegistry provides the tools of one MCP server. Calls are proxied
// to the server; the tool list is cached and refreshed with Refresh.
//
// RemoteRegistry is safe for concurrent use.
type RemoteRegistry struct {
	name   string
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]ai.Tool
}

// Connect opens the server described by cfg.
func Connect(ctx context.Context, cfg ServerConfig) (*RemoteRegistry, error) {
	var (
		c   *client.Client
		err error
	)
	switch {
	case cfg.URL != "":
		c, err = client.NewSSEMCPClient(cfg.URL)
	case cfg.Command != "":
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.environ(), cfg.Args...)
	default:
		return nil, fmt.Errorf("mcp server %q: neither command nor url set", cfg.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("mcp server %q: create client: %w", cfg.Name, err)
	}
	r, err := NewRemoteRegistryFromClient(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("mcp server %q: %w", cfg.Name, err)
	}
	r.name = cfg.Name
	return r, nil
}

// NewRemoteRegistryFromClient starts and initializes c, then fetches its
// tools. The client is closed if any of that fails.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    ClientName,
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	r := &RemoteRegistry{client: c, tools: make(map[string]ai.Tool)}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return r, nil
}

// Name returns the configured server name.
func (r *RemoteRegistry) Name() string { return r.name }

// Close closes the connection to the MCP server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh fetches the current list of tools from the server.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = FromMCPTool(t)
	}
	return nil
}

// Tools returns the server's tools sorted by name.
func (r *RemoteRegistry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// GetTool retrieves a tool definition by name.
func (r *RemoteRegistry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether the server offers the named tool.
func (r *RemoteRegistry) Has(name string) bool {
	_, ok := r.GetTool(name)
	return ok
}

// Len returns the number of available tools.
func (r *RemoteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute calls a tool on the server. Transport failures come back as
// error results so the model can see them.
func (r *RemoteRegistry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	result, err := r.client.CallTool(ctx, ToMCPCallToolRequest(call))
	if err != nil {
		return ai.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}, nil
	}
	return FromMCPCallToolResult(call.ID, result), nil
}

// Install registers every remote tool in reg with a handler that proxies
// to the server.
func (r *RemoteRegistry) Install(reg *tool.Registry) error {
	for _, t := range r.Tools() {
		if err := reg.Register(t, r.handler()); err != nil {
			return err
		}
	}
	return nil
}

func (r *RemoteRegistry) handler() tool.Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		res, err := r.Execute(ctx, call)
		if err != nil {
			return "", err
		}
		if res.IsError {
			return "", errors.New(res.Content)
		}
		return res.Content, nil
	}
}

// Set is a group of connected servers.
type Set struct {
	remotes []*RemoteRegistry
}

// ConnectAll connects every server in order. On failure the servers
// already connected are closed.
func ConnectAll(ctx context.Context, servers []ServerConfig) (*Set, error) {
	s := &Set{}
	for _, cfg := range servers {
		r, err := Connect(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		slog.Info("connected mcp server", "server", cfg.Name, "tools", r.Len())
		s.remotes = append(s.remotes, r)
	}
	return s, nil
}

// Remotes returns the connected servers in connection order.
func (s *Set) Remotes() []*RemoteRegistry { return s.remotes }

// Install registers the tools of every server in reg. A tool name offered
// by two servers is an error.
func (s *Set) Install(reg *tool.Registry) error {
	for _, r := range s.remotes {
		if err := r.Install(reg); err != nil {
			return fmt.Errorf("mcp server %q: %w", r.name, err)
		}
	}
	return nil
}

// Execute routes a call to the first server offering the tool.
func (s *Set) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	for _, r := range s.remotes {
		if r.Has(call.Name) {
			return r.Execute(ctx, call)
		}
	}
	return ai.ToolResult{}, &tool.ErrToolNotFound{Name: call.Name}
}

// Close closes every server, returning the first error.
func (s *Set) Close() error {
	var first error
	for _, r := range s.remotes {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
