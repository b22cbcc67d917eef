package workflow

import (
	"context"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/stream"
)

// Generate streams a chat completion through the stream aggregator: every
// fragment goes to the run's sink as it arrives and the full text is
// returned. An interrupted stream returns the partial text with an
// *stream.InterruptedError, which ExecuteStep turns into a
// StreamInterrupted fault.
func Generate(ctx context.Context, rc *RunContext, c chat.Client, msgs []ai.Message, opts ...ai.Option) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := c.ChatStream(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	src := stream.FromEvents(events, cancel)
	text, err := stream.Aggregate(ctx, src, rc.Sink(), stream.LogSink(rc.Logger()))
	if err != nil {
		return text, err
	}
	if resp := src.Response(); resp != nil {
		rc.Logger().Debug("generation finished",
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"finish_reason", resp.FinishReason)
	}
	return text, nil
}
