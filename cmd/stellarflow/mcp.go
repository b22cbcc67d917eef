package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/mcp"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// mcpCmd logs to stderr since stdout carries the protocol.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the Stellar workflow tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		a, err := newApp(cmd.Context(), cfg, logger, true)
		if err != nil {
			return err
		}
		defer a.Close()

		registry, err := a.tools(
			workflow.WithLogger(logger),
			workflow.WithTimeout(cfg.WorkflowTimeout),
			workflow.WithStepTimeout(cfg.StepTimeout),
		)
		if err != nil {
			return err
		}
		logger.Info("serving mcp tools", "tools", registry.Names())
		return mcp.ServeStdio(registry, mcp.WithName("stellarflow"), mcp.WithVersion(version))
	},
}
