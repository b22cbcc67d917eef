package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/stellar"
	"github.com/stellar-agentkit/stellarflow/stream"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

var (
	runNetwork string
	runReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Stellar workflow and print the result",
	Example: `  stellarflow run --network testnet
  stellarflow run --network mainnet --report`,
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&runNetwork, "network", string(ledger.Testnet), "network to create the account on (testnet or mainnet)")
	runCmd.Flags().BoolVar(&runReport, "report", false, "run "+stellar.ReportWorkflowID+" instead of "+stellar.WorkflowID)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Only the report needs a model, and with it a provider key.
	cfg := config.LoadEnv()
	validate := cfg.ValidateRuntime
	if runReport {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	a, err := newApp(ctx, cfg, logger, runReport)
	if err != nil {
		return err
	}
	defer a.Close()

	w := a.accounts
	if runReport {
		w = a.reports
	}
	out := cmd.OutOrStdout()
	res, runErr := w.Run(ctx, map[string]any{"network": runNetwork},
		workflow.WithLogger(logger),
		workflow.WithSink(stream.WriterSink(out)),
		workflow.WithTimeout(cfg.WorkflowTimeout),
		workflow.WithStepTimeout(cfg.StepTimeout),
	)
	if runReport {
		fmt.Fprintln(out)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	return runErr
}
