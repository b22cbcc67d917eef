// Package anthropic adapts the Anthropic Messages API to chat.Client.
package anthropic

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/provider"
)

// Models used by the Stellar agents.
const (
	ClaudeSonnet4  = "claude-sonnet-4-20250514"
	ClaudeSonnet35 = "claude-3-5-sonnet-20241022"
	ClaudeSonnet45 = "claude-sonnet-4-5"
	DefaultModel   = ClaudeSonnet4
)

// Client implements chat.Client over the Anthropic SDK.
type Client struct {
	client anthropic.Client
	model  string
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	reqOpts []option.RequestOption
}

// WithModel sets the default model.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) { c.model = model }
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.reqOpts = append(c.reqOpts, option.WithBaseURL(url)) }
}

// WithMaxRetries sets the SDK's own retry count. The unified client
// retries on its own, so it sets this to zero.
func WithMaxRetries(n int) ClientOption {
	return func(c *clientConfig) { c.reqOpts = append(c.reqOpts, option.WithMaxRetries(n)) }
}

// New creates a client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.reqOpts...)
	return &Client{client: anthropic.NewClient(reqOpts...), model: cfg.model}
}

func (c *Client) params(messages []ai.Message, opts []ai.Option) anthropic.MessageNewParams {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	maxTokens := int64(provider.DefaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}
	return params
}

// Chat sends a conversation and returns the complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	resp, err := c.client.Messages.New(ctx, c.params(messages, opts))
	if err != nil {
		return nil, wrapError(err)
	}
	return toResponse(resp), nil
}

// ChatStream streams a conversation as message events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	sdkStream := c.client.Messages.NewStreaming(ctx, c.params(messages, opts))
	out, ch := provider.NewStream(ctx)

	go func() {
		defer sdkStream.Close()
		var acc anthropic.Message
		for sdkStream.Next() {
			ev := sdkStream.Current()
			if err := acc.Accumulate(ev); err != nil {
				out.Fail(err)
				return
			}
			if ev.Type != "content_block_delta" {
				continue
			}
			delta := ev.AsContentBlockDelta().Delta.AsTextDelta()
			if delta.Type == "text_delta" && !out.Delta(delta.Text) {
				out.Fail(ctx.Err())
				return
			}
		}
		if err := sdkStream.Err(); err != nil {
			out.Fail(wrapError(err))
			return
		}
		out.End(toResponse(&acc))
	}()
	return ch, nil
}

func toResponse(msg *anthropic.Message) *ai.Response {
	resp := &ai.Response{
		FinishReason: string(msg.StopReason),
		Usage: ai.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return resp
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var header http.Header
	if apiErr.Response != nil {
		header = apiErr.Response.Header
	}
	return provider.StatusError(err, apiErr.StatusCode, header)
}

var _ chat.Client = (*Client)(nil)
