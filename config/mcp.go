package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/stellar-agentkit/stellarflow/mcp"
)

// mcpFile is the layout of the MCP server file:
//
//	servers:
//	  stellarMcpServer:
//	    command: npx
//	    args: [stellar-mcp-server@latest]
//	    env:
//	      RPC_URL: ${RPC_URL}
type mcpFile struct {
	Servers map[string]mcp.ServerConfig `yaml:"servers"`
}

// LoadMCPFile reads MCP server definitions from a YAML file. ${VAR}
// references are expanded from the environment. Servers are returned in
// name order.
func LoadMCPFile(path string) ([]mcp.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcp config: %w", err)
	}
	return ParseMCP(data)
}

// ParseMCP parses MCP server definitions. See LoadMCPFile.
func ParseMCP(data []byte) ([]mcp.ServerConfig, error) {
	var f mcpFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}
	names := make([]string, 0, len(f.Servers))
	for name := range f.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]mcp.ServerConfig, 0, len(names))
	for _, name := range names {
		s := f.Servers[name]
		s.Name = name
		if s.Command == "" && s.URL == "" {
			return nil, fmt.Errorf("mcp server %q: command or url is required", name)
		}
		servers = append(servers, s)
	}
	return servers, nil
}

// DefaultMCPServers returns the Stellar wallet server and the contacts
// server, both started with npx and configured from c.
func DefaultMCPServers(c *Config) []mcp.ServerConfig {
	s := c.Stellar
	return []mcp.ServerConfig{
		{
			Name:    "stellarMcpServer",
			Command: "npx",
			Args:    []string{"stellar-mcp-server@latest"},
			Env: map[string]string{
				"LAUNCHTUBE_URL":       s.LaunchtubeURL,
				"LAUNCHTUBE_JWT":       s.LaunchtubeJWT,
				"WALLET_WASM_HASH":     s.WalletWasmHash,
				"RPC_URL":              s.RPCURL,
				"NETWORK_PASSPHRASE":   s.NetworkPassphrase,
				"MERCURY_JWT":          s.MercuryJWT,
				"MERCURY_URL":          s.MercuryURL,
				"MERCURY_PROJECT_NAME": s.MercuryProjectName,
				"AGENT_SECRET_KEY":     s.AgentPolicySignerKey,
				"HORIZON_URL":          s.HorizonURL,
			},
		},
		{
			Name:    "contactsMcpServer",
			Command: "npx",
			Args:    []string{"coffee-sponsor-mcp"},
			Env: map[string]string{
				"NETWORK":            s.Network,
				"NETWORK_PASSPHRASE": s.NetworkPassphrase,
				"RPC_URL":            s.RPCURL,
				"CONTRACT_ID":        s.ContractID,
			},
		},
	}
}

// MCPServers returns the servers of the MCP_CONFIG file, or the default
// servers when none is set.
func (c *Config) MCPServers() ([]mcp.ServerConfig, error) {
	if c.MCPConfig == "" {
		return DefaultMCPServers(c), nil
	}
	return LoadMCPFile(c.MCPConfig)
}
