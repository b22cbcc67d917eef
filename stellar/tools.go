package stellar

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/tool"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// Tool names.
const (
	ToolCreateAccount  = "create_stellar_account"
	ToolAccountInfo    = "get_stellar_account_info"
	ToolGenerateReport = "generate_stellar_report"
)

// ToolSet configures the tools exposed by Tools.
type ToolSet struct {
	// Accounts runs create_stellar_account. Required.
	Accounts *workflow.Workflow
	// Ledger backs get_stellar_account_info. Required.
	Ledger ledger.Ledger
	// Reports runs generate_stellar_report. The tool is omitted when nil.
	Reports *workflow.Workflow
	// RunOptions apply to every workflow run started by a tool.
	RunOptions []workflow.Option
}

// Tools returns the pipeline-backed tools. Results are the JSON outputs of
// the runs; faults are reported as tool errors.
func Tools(ts ToolSet) []tool.Registration {
	regs := []tool.Registration{
		tool.Func(ToolCreateAccount, "Create a new Stellar account keypair on testnet or mainnet",
			NetworkInputShape(),
			func(ctx context.Context, args CreateAccountInput) (string, error) {
				return runTool(ctx, ts.Accounts, args, ts.RunOptions)
			}),
		tool.Func(ToolAccountInfo, "Get the balance and status of a Stellar account",
			AccountInfoInputShape(),
			func(ctx context.Context, args AccountInfoInput) (string, error) {
				rc := workflow.NewRunContext(uuid.NewString(), workflow.ApplyOptions(ts.RunOptions...).Logger)
				out, err := workflow.ExecuteStep(ctx, rc, NewAccountInfoStep(ts.Ledger), args)
				if err != nil {
					return "", err
				}
				return encode(out)
			}),
	}
	if ts.Reports != nil {
		regs = append(regs, tool.Func(ToolGenerateReport,
			"Create a Stellar account, look it up and write a report about both",
			NetworkInputShape(),
			func(ctx context.Context, args CreateAccountInput) (string, error) {
				return runTool(ctx, ts.Reports, args, ts.RunOptions)
			}))
	}
	return regs
}

func runTool(ctx context.Context, w *workflow.Workflow, input any, opts []workflow.Option) (string, error) {
	res, err := w.Run(ctx, input, opts...)
	if err != nil {
		return "", err
	}
	return encode(res.Output)
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
