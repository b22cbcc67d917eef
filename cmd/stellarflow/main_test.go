package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-agentkit/stellarflow/config"
	"github.com/stellar-agentkit/stellarflow/stellar"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("LEDGER", config.LedgerSimulated)
	t.Setenv("STELLAR_TOOLS", "false")
	cfg := config.FromEnv()
	require.NoError(t, cfg.Validate())
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Equal(t, "stellarflow dev\n", out.String())
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, discardLogger(), true)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.remotes)
	assert.Equal(t, []string{stellar.ReportWorkflowID, stellar.WorkflowID}, a.workflows.Names())

	reg, err := a.tools()
	require.NoError(t, err)
	assert.True(t, reg.Has(stellar.ToolCreateAccount))
	assert.True(t, reg.Has(stellar.ToolAccountInfo))
	assert.True(t, reg.Has(stellar.ToolGenerateReport))
}

func TestNewAppUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider = "bedrock"
	_, err := newApp(context.Background(), cfg, discardLogger(), true)
	assert.Error(t, err)
}

func TestNewAppWithoutModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.AnthropicKey = ""
	a, err := newApp(context.Background(), cfg, discardLogger(), false)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.client)
	assert.Nil(t, a.reports)
	assert.Equal(t, []string{stellar.WorkflowID}, a.workflows.Names())

	reg, err := a.tools()
	require.NoError(t, err)
	assert.True(t, reg.Has(stellar.ToolCreateAccount))
	assert.False(t, reg.Has(stellar.ToolGenerateReport))
}

func TestRunCommand(t *testing.T) {
	t.Run("account workflow needs no provider key", func(t *testing.T) {
		testConfig(t)
		t.Setenv("ANTHROPIC_API_KEY", "")
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"run", "--network", "testnet"})
		require.NoError(t, rootCmd.ExecuteContext(context.Background()))

		assert.Contains(t, out.String(), `"workflow": "stellar-workflow"`)
		assert.Contains(t, out.String(), `"success": true`)
	})

	t.Run("report requires a provider key", func(t *testing.T) {
		testConfig(t)
		t.Setenv("ANTHROPIC_API_KEY", "")
		t.Cleanup(func() { runReport = false })
		rootCmd.SetOut(io.Discard)
		rootCmd.SetArgs([]string{"run", "--report"})
		err := rootCmd.ExecuteContext(context.Background())
		assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
	})
}
