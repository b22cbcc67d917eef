package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/client"
	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/mcp"
	"github.com/stellar-agentkit/stellarflow/stellar"
	"github.com/stellar-agentkit/stellarflow/tool"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// app holds the components shared by the commands that run workflows.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	client    *client.Client
	ledger    ledger.Ledger
	remotes   *mcp.Set
	accounts  *workflow.Workflow
	reports   *workflow.Workflow
	workflows *workflow.Registry
}

// newApp connects the ledger and builds the workflows. The model client
// and the report workflow that needs it are only created when withModel
// is set.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, withModel bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	if withModel {
		provider, err := client.ParseProvider(cfg.Provider)
		if err != nil {
			return nil, err
		}
		a.client, err = client.New(ctx, client.Config{
			Provider: provider,
			APIKeys: client.APIKeys{
				Anthropic: cfg.AnthropicKey,
				OpenAI:    cfg.OpenAIKey,
				Google:    cfg.GoogleKey,
			},
			Model:  cfg.Model,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
	}

	if cfg.Ledger == config.LedgerMCP || cfg.StellarTools {
		servers, err := cfg.MCPServers()
		if err != nil {
			return nil, err
		}
		a.remotes, err = mcp.ConnectAll(ctx, servers)
		if err != nil {
			return nil, fmt.Errorf("connect mcp servers: %w", err)
		}
	}
	if cfg.Ledger == config.LedgerMCP {
		a.ledger = ledger.NewMCP(a.remotes, ledger.DefaultMCPConfig())
	} else {
		a.ledger = ledger.NewSimulated()
	}
	logger.Info("ledger ready", "backend", cfg.Ledger)

	a.accounts = stellar.NewWorkflow(a.ledger)
	a.workflows = workflow.NewRegistry()
	a.workflows.MustRegister(a.accounts)
	if a.client != nil {
		a.reports = stellar.NewReportWorkflow(a.ledger, a.client, ai.WithModel(cfg.ReportModel))
		a.workflows.MustRegister(a.reports)
	}
	return a, nil
}

// tools returns the registry offered to the agent and over MCP: the
// workflow tools plus, when enabled, the tools of the MCP servers.
func (a *app) tools(opts ...workflow.Option) (*tool.Registry, error) {
	reg := tool.NewRegistry()
	if err := tool.RegisterAll(reg, stellar.Tools(stellar.ToolSet{
		Accounts:   a.accounts,
		Ledger:     a.ledger,
		Reports:    a.reports,
		RunOptions: opts,
	})); err != nil {
		return nil, err
	}
	if a.cfg.StellarTools && a.remotes != nil {
		if err := a.remotes.Install(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (a *app) Close() {
	if a.remotes != nil {
		if err := a.remotes.Close(); err != nil {
			a.logger.Warn("close mcp servers", "error", err)
		}
	}
}

// listen serves h on addr until ctx is cancelled, then shuts down within
// thirty seconds.
func listen(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
