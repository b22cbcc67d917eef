package stellar

import (
	"context"
	"fmt"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/ledger"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

const zeroBalance = "0.0000000"

// NewCreateAccountStep creates an account on the requested network. Ledger
// failures are reported in the envelope with success false rather than as
// a fault.
func NewCreateAccountStep(l ledger.Ledger) workflow.Step {
	return workflow.NewStep(StepCreateAccount, "Creates a new Stellar account keypair",
		NetworkInputShape(), AccountDataShape(),
		func(ctx context.Context, rc *workflow.RunContext, in CreateAccountInput) (AccountData, error) {
			network, err := ledger.ParseNetwork(in.Network)
			if err != nil {
				return AccountData{}, err
			}
			kp, err := l.CreateAccount(ctx, network)
			if err != nil {
				rc.Logger().Warn("account creation failed", "network", network, "error", err)
				return AccountData{
					Network: string(network),
					Message: fmt.Sprintf("Failed to create account: %v", err),
				}, nil
			}
			rc.Logger().Info("account created", "network", network, "account", shortKey(kp.PublicKey))
			return AccountData{
				PublicKey: kp.PublicKey,
				SecretKey: kp.SecretKey,
				Network:   string(network),
				Success:   true,
				Message:   fmt.Sprintf("Successfully created new Stellar account for %s", network),
			}, nil
		})
}

// NewAccountInfoStep looks up an account. A failed lookup reports
// exists false with a zero balance.
func NewAccountInfoStep(l ledger.Ledger) workflow.Step {
	return workflow.NewStep(StepGetAccountInfo, "Gets information about a Stellar account",
		AccountInfoInputShape(), AccountInfoShape(),
		func(ctx context.Context, rc *workflow.RunContext, in AccountInfoInput) (AccountInfo, error) {
			info, err := l.AccountInfo(ctx, in.PublicKey)
			if err != nil {
				rc.Logger().Warn("account lookup failed", "account", shortKey(in.PublicKey), "error", err)
				return AccountInfo{
					AccountID: in.PublicKey,
					Balance:   zeroBalance,
					Message:   fmt.Sprintf("Failed to get account info: %v", err),
				}, nil
			}
			return AccountInfo{
				AccountID: info.AccountID,
				Balance:   info.Balance,
				Exists:    info.Exists,
				Message:   fmt.Sprintf("Account information retrieved for %s...", shortKey(in.PublicKey)),
			}, nil
		})
}

// NewReportStep streams a report about the account operations from the
// model. Fragments reach the run's sinks as they arrive; an interrupted
// stream fails the step with the partial report attached.
func NewReportStep(c chat.Client, opts ...ai.Option) workflow.Step {
	return workflow.NewStep(StepGenerateReport, "Generates a comprehensive report about Stellar operations",
		ReportInputShape(), ReportShape(),
		func(ctx context.Context, rc *workflow.RunContext, in ReportInput) (Report, error) {
			prompt, err := ReportPrompt(in)
			if err != nil {
				return Report{}, err
			}
			msgs := []ai.Message{
				{Role: ai.RoleSystem, Content: WorkflowInstructions},
				{Role: ai.RoleUser, Content: prompt},
			}
			text, err := workflow.Generate(ctx, rc, c, msgs, opts...)
			if err != nil {
				return Report{}, err
			}
			return Report{Report: text}, nil
		})
}

// shortKey returns the first eight characters of a key.
func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
