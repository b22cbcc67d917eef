package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/provider/anthropic"
	"github.com/stellar-agentkit/stellarflow/provider/google"
	"github.com/stellar-agentkit/stellarflow/provider/openai"
	"github.com/stellar-agentkit/stellarflow/retry"
)

// Provider names a model provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ParseProvider maps a configuration value onto a Provider. The empty
// string selects Anthropic.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case "":
		return ProviderAnthropic, nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
		return p, nil
	default:
		return "", &ErrUnknownProvider{Provider: s}
	}
}

// APIKeys holds API keys for the providers. Only the configured
// provider's key is required.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

func (k APIKeys) key(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return k.Anthropic
	case ProviderOpenAI:
		return k.OpenAI
	case ProviderGoogle:
		return k.Google
	}
	return ""
}

// Config holds configuration for creating a client.
type Config struct {
	Provider Provider
	APIKeys  APIKeys

	// Model, MaxTokens and Temperature are request defaults. Per-request
	// options override them.
	Model       string
	MaxTokens   int
	Temperature *float64

	// Retry configures retries for transient errors. If nil, uses
	// retry.DefaultConfig.
	Retry *retry.Config

	// Logger receives retry warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// ErrMissingAPIKey is returned when the configured provider has no key.
type ErrMissingAPIKey struct {
	Provider Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrUnknownProvider is returned for a provider name the client cannot serve.
type ErrUnknownProvider struct {
	Provider string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// Client is a chat.Client with defaults and retries around a provider
// adapter.
type Client struct {
	provider    Provider
	backend     chat.Client
	retryConfig retry.Config
	logger      *slog.Logger
	events      chan<- Event
	defaults    []ai.Option
}

// New creates a client for the configured provider.
func New(ctx context.Context, cfg Config) (*Client, error) {
	p, err := ParseProvider(string(cfg.Provider))
	if err != nil {
		return nil, err
	}
	key := cfg.APIKeys.key(p)
	if key == "" {
		return nil, &ErrMissingAPIKey{Provider: p}
	}

	var backend chat.Client
	switch p {
	case ProviderAnthropic:
		backend = anthropic.New(key, anthropic.WithMaxRetries(0))
	case ProviderOpenAI:
		backend = openai.New(key, openai.WithMaxRetries(0))
	case ProviderGoogle:
		g, err := google.New(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google client: %w", err)
		}
		backend = g
	}
	cfg.Provider = p
	return Wrap(backend, cfg), nil
}

// Wrap adds defaults and retries to an existing chat client. The config's
// API keys are ignored.
func Wrap(backend chat.Client, cfg Config) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.Retry != nil {
		retryConfig = *cfg.Retry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		provider:    cfg.Provider,
		backend:     backend,
		retryConfig: retryConfig,
		logger:      logger,
		events:      cfg.Events,
	}
	if cfg.Model != "" {
		c.defaults = append(c.defaults, ai.WithModel(cfg.Model))
	}
	if cfg.MaxTokens > 0 {
		c.defaults = append(c.defaults, ai.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		c.defaults = append(c.defaults, ai.WithTemperature(*cfg.Temperature))
	}
	return c
}

// Provider returns the provider the client talks to.
func (c *Client) Provider() Provider { return c.provider }

// options prepends the defaults so per-request options override them.
func (c *Client) options(opts []ai.Option) ([]ai.Option, string) {
	all := make([]ai.Option, 0, len(c.defaults)+len(opts))
	all = append(all, c.defaults...)
	all = append(all, opts...)
	return all, ai.ApplyOptions(all...).Model
}

func (c *Client) retryFor(operation, model string) retry.Config {
	cfg := c.retryConfig
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("retrying model call",
			"operation", operation,
			"provider", c.provider,
			"model", model,
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
			"error", err)
		emit(c.events, Event{
			Type:      EventRetry,
			Operation: operation,
			Provider:  c.provider,
			Model:     model,
			Attempt:   attempt,
			Duration:  delay,
			Error:     err,
		})
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}
	return cfg
}

// Chat sends a conversation and returns a complete response, retrying
// transient errors.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	opts, model := c.options(opts)
	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat", Provider: c.provider, Model: model})

	resp, err := retry.Do(ctx, c.retryFor("chat", model), func() (*ai.Response, error) {
		return c.backend.Chat(ctx, messages, opts...)
	})
	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat",
			Provider:  c.provider,
			Model:     model,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "chat",
		Provider:  c.provider,
		Model:     model,
		Duration:  time.Since(start),
		Usage:     &resp.Usage,
	})
	return resp, nil
}

// ChatStream sends a conversation and returns its events. Establishing the
// stream is retried on transient errors, including an error reported as
// the stream's first event.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	opts, model := c.options(opts)
	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: "chat_stream", Provider: c.provider, Model: model})

	ch, err := retry.DoStream(ctx, c.retryFor("chat_stream", model), func() (<-chan event.Event, error) {
		return c.open(ctx, messages, opts)
	})
	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "chat_stream",
			Provider:  c.provider,
			Model:     model,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}
	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "chat_stream",
		Provider:  c.provider,
		Model:     model,
		Duration:  time.Since(start),
	})
	return ch, nil
}

// open starts a stream and waits for its first event. A leading RunError
// is returned as the call's error so it can be retried.
func (c *Client) open(ctx context.Context, messages []ai.Message, opts []ai.Option) (<-chan event.Event, error) {
	src, err := c.backend.ChatStream(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}

	var first event.Event
	select {
	case <-ctx.Done():
		go event.Drain(src)
		return nil, ctx.Err()
	case e, ok := <-src:
		if !ok {
			return nil, fmt.Errorf("%s: stream closed before any event", c.provider)
		}
		if e.Type == event.RunError && e.Error != nil {
			go event.Drain(src)
			return nil, e.Error
		}
		first = e
	}

	out := make(chan event.Event)
	go func() {
		defer close(out)
		if !event.Send(ctx, out, first) {
			event.Drain(src)
			return
		}
		for e := range src {
			if !event.Send(ctx, out, e) {
				event.Drain(src)
				return
			}
		}
	}()
	return out, nil
}

var _ chat.Client = (*Client)(nil)
