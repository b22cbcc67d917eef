// Package chat defines the chat client interface shared by the agent, the
// workflow steps and the providers without import cycles.
//
// The [github.com/stellar-agentkit/stellarflow/client.Client] type implements
// this interface.
package chat

import (
	"context"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
)

// Client sends conversations to a language model.
type Client interface {
	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)

	// ChatStream sends a conversation and returns a channel of lifecycle
	// events. The channel is closed when the response ends or fails.
	ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error)
}
