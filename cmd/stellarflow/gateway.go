package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/gateway"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the chat gateway in front of a remote agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadEnv()
		logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		remote, err := gateway.NewRemoteAgent(cfg.AgentURL, cfg.AgentID)
		if err != nil {
			return err
		}
		logger.Info("forwarding chats", "endpoint", remote.Endpoint())

		h := gateway.NewHandler(remote, logger)
		return listen(cmd.Context(), cfg.GatewayAddr, h.Routes(), logger)
	},
}
