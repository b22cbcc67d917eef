package stellar

import (
	"context"
	"errors"
	"fmt"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// NewWorkflow returns the committed stellar-workflow: {network} in, the
// create-account envelope out.
func NewWorkflow(l ledger.Ledger) *workflow.Workflow {
	w := workflow.New(WorkflowID, NetworkInputShape(), AccountDataShape()).
		Describe("Creates a new Stellar account").
		Then(NewCreateAccountStep(l))
	return mustCommit(w)
}

// NewReportWorkflow returns the committed stellar-report-workflow, which
// creates an account, looks it up and streams a report about both.
func NewReportWorkflow(l ledger.Ledger, c chat.Client, opts ...ai.Option) *workflow.Workflow {
	w := workflow.New(ReportWorkflowID, NetworkInputShape(), ReportShape()).
		Describe("Creates a Stellar account, looks it up and reports on both").
		Then(NewCreateAccountStep(l)).
		Then(NewAccountInfoStep(l)).
		Map(StepCollect, ReportInputShape(), collectAccountData).
		Then(NewReportStep(c, opts...))
	return mustCommit(w)
}

func collectAccountData(_ context.Context, rc *workflow.RunContext, current any) (any, error) {
	created, ok := rc.StepResult(StepCreateAccount)
	if !ok {
		return nil, errors.New("missing create-account output")
	}
	return map[string]any{"accountData": created, "accountInfo": current}, nil
}

func mustCommit(w *workflow.Workflow) *workflow.Workflow {
	if err := w.Commit(); err != nil {
		panic(fmt.Sprintf("stellar: %v", err))
	}
	return w
}
