// Command stellarflow runs the Stellar agent server, the chat gateway and
// the Stellar workflows.
//
// Configuration is read from the environment and an optional .env file:
//
//	PROVIDER          - anthropic, openai or google (default: anthropic)
//	MODEL             - chat model for the agent
//	REPORT_MODEL      - model used by the report workflow
//	STELLARFLOW_ADDR  - agent server address (default: :4111)
//	GATEWAY_ADDR      - gateway address (default: :3000)
//	LEDGER            - simulated or mcp (default: simulated)
//	STELLAR_TOOLS     - expose the Stellar MCP tools to the agent
//	DATABASE_URL      - MySQL DSN for runs and threads
//	REDIS_ADDR        - Redis address when no DATABASE_URL is set
//	AMQP_URL          - RabbitMQ URL for streamed fragments
//
// Usage:
//
//	stellarflow serve
//	stellarflow gateway
//	stellarflow run --network testnet --report
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "stellarflow",
	Short:         "Stellar account agent and workflows",
	Long:          `stellarflow serves a Stellar chat agent and account workflows over AG-UI, with a chat gateway for web clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stellarflow %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
