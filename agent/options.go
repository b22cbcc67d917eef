package agent

import (
	"context"
	"log/slog"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/memory"
)

// ApproverFunc decides whether a tool call may run. A rejection reason is
// sent back to the model as an error result.
type ApproverFunc func(ctx context.Context, call ai.ToolCall) (approved bool, reason string)

// StopFunc is a custom predicate called after each step. Return true to
// stop the agent.
type StopFunc func(step int, response *ai.Response) bool

// Options contains configuration for agent execution.
type Options struct {
	// Instructions become the first system message unless the caller's
	// messages already start with one.
	Instructions string

	// MaxSteps limits the number of model calls. Zero means unlimited.
	// Default is 10.
	MaxSteps int

	// Timeout sets a deadline for the whole run. Zero means none.
	Timeout time.Duration

	// HandlerTimeout bounds each tool handler. Default is 30 seconds.
	HandlerTimeout time.Duration

	// ParallelToolCalls runs the calls of one step concurrently.
	// Default is true.
	ParallelToolCalls bool

	// Approver, if set, is asked before running the tools listed in
	// ApprovalRequired, or every tool when that list is empty.
	Approver         ApproverFunc
	ApprovalRequired []string

	StopPredicate StopFunc

	// ClientTools are frontend tools available for this run only.
	ClientTools []ai.Tool

	Memory   *memory.Store
	ThreadID string

	Logger *slog.Logger

	// ChatOptions are passed to every model call.
	ChatOptions []ai.Option
}

// Option is a functional option for configuring agent execution.
type Option func(*Options)

// WithInstructions sets the system instructions.
func WithInstructions(s string) Option {
	return func(o *Options) { o.Instructions = s }
}

// WithMaxSteps sets the maximum number of model calls.
func WithMaxSteps(n int) Option {
	return func(o *Options) { o.MaxSteps = n }
}

// WithTimeout sets a deadline for the whole run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithHandlerTimeout sets the timeout for each tool handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) { o.HandlerTimeout = d }
}

// WithParallelToolCalls enables or disables concurrent tool execution.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) { o.ParallelToolCalls = enabled }
}

// WithApprover sets the approval function.
func WithApprover(fn ApproverFunc) Option {
	return func(o *Options) { o.Approver = fn }
}

// WithApprovalRequired limits approval to the named tools.
func WithApprovalRequired(tools ...string) Option {
	return func(o *Options) { o.ApprovalRequired = tools }
}

// WithStopPredicate sets a custom termination condition.
func WithStopPredicate(fn StopFunc) Option {
	return func(o *Options) { o.StopPredicate = fn }
}

// WithClientTools makes frontend tools available for this run.
func WithClientTools(tools ...ai.Tool) Option {
	return func(o *Options) { o.ClientTools = append(o.ClientTools, tools...) }
}

// WithMemory persists thread history in store.
func WithMemory(store *memory.Store) Option {
	return func(o *Options) { o.Memory = store }
}

// WithThreadID names the conversation thread.
func WithThreadID(id string) Option {
	return func(o *Options) { o.ThreadID = id }
}

// WithLogger sets the run logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithChatOptions passes options to every model call.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) { o.ChatOptions = append(o.ChatOptions, opts...) }
}

// WithModel is shorthand for WithChatOptions(ai.WithModel(model)).
func WithModel(model string) Option {
	return WithChatOptions(ai.WithModel(model))
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:          10,
		HandlerTimeout:    30 * time.Second,
		ParallelToolCalls: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
