// Package mcp connects the agent to Model Context Protocol servers and
// exposes the Stellar workflow tools as one.
//
//   - Client: [Connect] opens a [RemoteRegistry] over stdio or SSE. Its
//     tools can be installed into a [tool.Registry] so the agent calls them
//     like local tools, and it serves as the tool executor of ledger.MCP.
//   - Server: [NewServer] exposes a [tool.Registry] to MCP clients such as
//     Claude Desktop.
//
// # Consuming MCP Servers
//
//	set, err := mcp.ConnectAll(ctx, []mcp.ServerConfig{
//	    {Name: "stellarMcpServer", Command: "npx", Args: []string{"stellar-mcp-server@latest"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer set.Close()
//
//	registry := tool.NewRegistry()
//	if err := set.Install(registry); err != nil {
//	    log.Fatal(err)
//	}
//
// # Exposing Tools
//
//	if err := mcp.ServeStdio(registry, mcp.WithName("stellarflow")); err != nil {
//	    log.Fatal(err)
//	}
package mcp
