package stellar

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/schema"
	"github.com/stellar-agentkit/stellarflow/stream"
	"github.com/stellar-agentkit/stellarflow/tool"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

func decode[T any](t *testing.T, v any) T {
	t.Helper()
	out, err := schema.Convert[T](v)
	require.NoError(t, err)
	return out
}

func TestWorkflowCreatesAccount(t *testing.T) {
	w := NewWorkflow(ledger.NewSimulated())
	assert.True(t, w.Committed())
	assert.Equal(t, []string{StepCreateAccount}, w.Steps())

	res, err := w.Run(context.Background(), map[string]any{"network": "testnet"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	data := decode[AccountData](t, res.Output)
	assert.True(t, data.Success)
	assert.Equal(t, "testnet", data.Network)
	assert.NotEmpty(t, data.PublicKey)
	assert.NotEmpty(t, data.SecretKey)
	assert.True(t, ledger.ValidPublicKey(data.PublicKey))
	assert.True(t, ledger.ValidSecretKey(data.SecretKey))
	assert.Equal(t, "Successfully created new Stellar account for testnet", data.Message)
	assert.Equal(t, data.Message, res.Message)
}

func TestWorkflowDefaultsToTestnet(t *testing.T) {
	res, err := NewWorkflow(ledger.NewSimulated()).Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "testnet", decode[AccountData](t, res.Output).Network)
}

func TestWorkflowRejectsUnknownNetwork(t *testing.T) {
	l := newCountingLedger()
	res, err := NewWorkflow(l).Run(context.Background(), map[string]any{"network": "futurenet"})

	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	require.NotNil(t, res.Fault)
	assert.Equal(t, []string{"network"}, res.Fault.Fields)
	assert.False(t, res.Success)
	assert.Zero(t, l.creates)

	// Validation is repeatable.
	_, again := NewWorkflow(l).Run(context.Background(), map[string]any{"network": "futurenet"})
	assert.Equal(t, err.Error(), again.Error())
}

func TestCreateAccountLedgerFailure(t *testing.T) {
	l := newCountingLedger()
	l.createErr = errors.New("friendbot unavailable")

	res, err := NewWorkflow(l).Run(context.Background(), map[string]any{"network": "mainnet"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	data := decode[AccountData](t, res.Output)
	assert.Equal(t, AccountData{
		Network: "mainnet",
		Message: "Failed to create account: friendbot unavailable",
	}, data)
	assert.Equal(t, data.Message, res.Message)
}

func TestMainnetAccountThenLookup(t *testing.T) {
	l := ledger.NewSimulated()
	res, err := NewWorkflow(l).Run(context.Background(), map[string]any{"network": "mainnet"})
	require.NoError(t, err)
	data := decode[AccountData](t, res.Output)
	assert.Equal(t, "mainnet", data.Network)

	out, err := workflow.ExecuteStep(context.Background(), nil, NewAccountInfoStep(l), map[string]any{"publicKey": data.PublicKey})
	require.NoError(t, err)
	info := decode[AccountInfo](t, out)
	assert.True(t, info.Exists)
	assert.Equal(t, "0.0000000", info.Balance)
	assert.Equal(t, data.PublicKey, info.AccountID)
	assert.Equal(t, "Account information retrieved for "+data.PublicKey[:8]+"...", info.Message)
}

func TestAccountInfoStep(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		l := newCountingLedger()
		l.infoErr = errors.New("horizon timeout")
		out, err := workflow.ExecuteStep(context.Background(), nil, NewAccountInfoStep(l), map[string]any{"publicKey": "GABC"})
		require.NoError(t, err)
		assert.Equal(t, AccountInfo{
			AccountID: "GABC",
			Balance:   "0.0000000",
			Message:   "Failed to get account info: horizon timeout",
		}, decode[AccountInfo](t, out))
	})

	t.Run("missing public key", func(t *testing.T) {
		l := newCountingLedger()
		_, err := workflow.ExecuteStep(context.Background(), nil, NewAccountInfoStep(l), map[string]any{})
		var f *workflow.Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, workflow.InvalidInput, f.Kind)
		assert.Equal(t, StepGetAccountInfo, f.Step)
		assert.Equal(t, []string{"publicKey"}, f.Fields)
		assert.Zero(t, l.infos)
	})
}

func TestReportWorkflow(t *testing.T) {
	client := &mockClient{fragments: []string{"# Report\n", "Account ", "created."}}
	w := NewReportWorkflow(ledger.NewSimulated(), client, ai.WithModel("claude-3-5-sonnet-20241022"))
	assert.Equal(t, []string{StepCreateAccount, StepGetAccountInfo, StepCollect, StepGenerateReport}, w.Steps())

	var received []string
	sink := stream.SinkFunc(func(ctx context.Context, f stream.Fragment) error {
		received = append(received, f.Text)
		return nil
	})

	res, err := w.Run(context.Background(), map[string]any{"network": "testnet"}, workflow.WithSink(sink))
	require.NoError(t, err)
	assert.True(t, res.Success)

	report := decode[Report](t, res.Output)
	assert.Equal(t, "# Report\nAccount created.", report.Report)
	assert.Equal(t, client.fragments, received)
	assert.Equal(t, strings.Join(received, ""), report.Report)

	conv := client.conversation()
	require.Len(t, conv, 2)
	assert.Equal(t, ai.RoleSystem, conv[0].Role)
	assert.Equal(t, WorkflowInstructions, conv[0].Content)
	assert.Contains(t, conv[1].Content, `"secretKey": "[REDACTED]"`)
	assert.Contains(t, conv[1].Content, `"balance": "0.0000000"`)
	assert.Equal(t, "claude-3-5-sonnet-20241022", client.opts.Model)

	created := decode[AccountData](t, res.Steps[0].Output)
	assert.NotContains(t, conv[1].Content, created.SecretKey)
}

func TestReportWorkflowInterrupted(t *testing.T) {
	client := &mockClient{fragments: []string{"Hello ", "world"}, streamErr: errors.New("connection reset")}
	var acc stream.Accumulator

	res, err := NewReportWorkflow(ledger.NewSimulated(), client).
		Run(context.Background(), map[string]any{"network": "testnet"}, workflow.WithSink(&acc))

	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrStreamInterrupted)
	require.NotNil(t, res.Fault)
	assert.Equal(t, StepGenerateReport, res.Fault.Step)
	assert.Equal(t, "Hello world", res.Fault.Partial)
	assert.Equal(t, "Hello world", acc.String())
	assert.False(t, res.Success)
	assert.Len(t, res.Steps, 4)
}

func TestReportPrompt(t *testing.T) {
	prompt, err := ReportPrompt(ReportInput{
		AccountData: AccountData{PublicKey: "GABC", SecretKey: "SSECRET", Network: "testnet", Success: true, Message: "ok"},
		AccountInfo: AccountInfo{AccountID: "GABC", Balance: "0.0000000", Exists: true, Message: "found"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Generate a comprehensive report about the Stellar account operations:\n\nAccount Creation:\n{\n  \"publicKey\": \"GABC\",\n  \"secretKey\": \"[REDACTED]\","))
	assert.Contains(t, prompt, "Account Information:\n{\n  \"accountId\": \"GABC\",")
	assert.NotContains(t, prompt, "SSECRET")
	assert.True(t, strings.HasSuffix(prompt, "- Any warnings or important notes"))

	t.Run("empty secret stays empty", func(t *testing.T) {
		prompt, err := ReportPrompt(ReportInput{})
		require.NoError(t, err)
		assert.Contains(t, prompt, `"secretKey": ""`)
	})
}

func TestAgentInstructions(t *testing.T) {
	text, err := AgentInstructions(AgentParams{WalletID: "CWALLET", ContractID: "CCONTACTS"})
	require.NoError(t, err)
	assert.Contains(t, text, "Wallet key: CWALLET")
	assert.Contains(t, text, "Contacts contract id: CCONTACTS")
	assert.Contains(t, text, "spon_coff")
	assert.Contains(t, text, AgentKitContext())
	assert.NotEmpty(t, AgentKitContext())
}

func TestTools(t *testing.T) {
	l := ledger.NewSimulated()
	client := &mockClient{fragments: []string{"done"}}
	registry := tool.NewRegistry().Add(Tools(ToolSet{
		Accounts: NewWorkflow(l),
		Ledger:   l,
		Reports:  NewReportWorkflow(l, client),
	})...)
	assert.Equal(t, []string{ToolCreateAccount, ToolGenerateReport, ToolAccountInfo}, registry.Names())
	ctx := context.Background()

	res, err := registry.Execute(ctx, ai.ToolCall{ID: "1", Name: ToolCreateAccount, Arguments: `{"network":"mainnet"}`})
	require.NoError(t, err)
	require.False(t, res.IsError, res.Content)
	var data AccountData
	require.NoError(t, json.Unmarshal([]byte(res.Content), &data))
	assert.Equal(t, "mainnet", data.Network)

	res, err = registry.Execute(ctx, ai.ToolCall{ID: "2", Name: ToolAccountInfo, Arguments: `{"publicKey":"` + data.PublicKey + `"}`})
	require.NoError(t, err)
	var info AccountInfo
	require.NoError(t, json.Unmarshal([]byte(res.Content), &info))
	assert.True(t, info.Exists)

	res, err = registry.Execute(ctx, ai.ToolCall{ID: "3", Name: ToolGenerateReport, Arguments: `{}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"report":"done"}`, res.Content)

	res, err = registry.Execute(ctx, ai.ToolCall{ID: "4", Name: ToolCreateAccount, Arguments: `{"network":"futurenet"}`})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	t.Run("report tool omitted without a workflow", func(t *testing.T) {
		regs := Tools(ToolSet{Accounts: NewWorkflow(l), Ledger: l})
		assert.Len(t, regs, 2)
	})
}
