package workflow

import (
	"log/slog"
	"time"

	"github.com/stellar-agentkit/stellarflow/stream"
)

// Options contains configuration for a workflow run.
type Options struct {
	// Timeout sets a deadline for the entire run. Zero means none.
	Timeout time.Duration

	// StepTimeout sets a deadline for each step (default: 2m).
	StepTimeout time.Duration

	// Sinks receive the fragments streamed by steps.
	Sinks []stream.Sink

	Logger *slog.Logger

	// RunID overrides the generated run identifier.
	RunID string

	// Store persists the result when the run ends.
	Store RunStore

	// OnStepComplete is called after each successful step.
	OnStepComplete func(StepRecord)
}

// Option is a functional option for workflow runs.
type Option func(*Options)

// WithTimeout sets the overall run timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithStepTimeout sets the timeout for each step.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = d
	}
}

// WithSink adds a destination for streamed fragments.
func WithSink(s stream.Sink) Option {
	return func(o *Options) {
		o.Sinks = append(o.Sinks, s)
	}
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithRunID sets the run identifier.
func WithRunID(id string) Option {
	return func(o *Options) {
		o.RunID = id
	}
}

// WithStore persists the run result in s.
func WithStore(s RunStore) Option {
	return func(o *Options) {
		o.Store = s
	}
}

// WithOnStepComplete registers a callback for completed steps.
func WithOnStepComplete(fn func(StepRecord)) Option {
	return func(o *Options) {
		o.OnStepComplete = fn
	}
}

// ApplyOptions applies functional options with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		StepTimeout: 2 * time.Minute,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
