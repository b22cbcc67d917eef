package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellar-agentkit/stellarflow/agent"
	"github.com/stellar-agentkit/stellarflow/broker"
	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/memory"
	"github.com/stellar-agentkit/stellarflow/server"
	"github.com/stellar-agentkit/stellarflow/stellar"
	"github.com/stellar-agentkit/stellarflow/storage"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Stellar agent and workflows over AG-UI",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	adapter, err := storage.Open(ctx, storage.Config{
		DatabaseURL: cfg.DatabaseURL,
		Redis: storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer adapter.Close()
	runs := storage.NewRunStore(adapter)

	wfOpts := []workflow.Option{
		workflow.WithTimeout(cfg.WorkflowTimeout),
		workflow.WithStepTimeout(cfg.StepTimeout),
	}
	if cfg.AMQPURL != "" {
		pub, err := broker.NewPublisher(broker.Config{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue})
		if err != nil {
			return err
		}
		defer pub.Close()
		logger.Info("publishing fragments", "queue", pub.Queue())
		wfOpts = append(wfOpts, workflow.WithSink(broker.FragmentSink(pub)))
	}

	registry, err := a.tools(append(wfOpts, workflow.WithStore(runs), workflow.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}
	instructions, err := stellar.AgentInstructions(stellar.AgentParams{
		WalletID:   cfg.Stellar.WalletID,
		ContractID: cfg.Stellar.ContractID,
	})
	if err != nil {
		return err
	}

	ag := agent.New(agent.Info{
		ID:          cfg.AgentID,
		Name:        "Stellar Agent",
		Description: "Creates and inspects Stellar accounts and answers questions about the Stellar Agent Kit",
	}, a.client, registry,
		agent.WithInstructions(instructions),
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithTimeout(cfg.AgentTimeout),
	)
	logger.Info("agent ready", "agent", cfg.AgentID, "tools", registry.Len(), "provider", cfg.Provider)

	srv := server.New(
		server.WithAgent(ag),
		server.WithWorkflows(a.workflows),
		server.WithRunStore(runs),
		server.WithMemory(memory.New(adapter)),
		server.WithLogger(logger),
		server.WithWorkflowOptions(wfOpts...),
	)
	return listen(ctx, cfg.Addr, srv.Handler(), logger)
}
