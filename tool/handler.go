package tool

import (
	"context"

	ai "github.com/stellar-agentkit/stellarflow"
)

// Handler executes a tool call and returns the result content. Arguments
// arrive as the raw JSON string of the call.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler executes a tool call whose arguments were validated and
// decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)
