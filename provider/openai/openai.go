// Package openai adapts the OpenAI Chat Completions API to chat.Client.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/provider"
)

// Models the agents are tuned for.
const (
	GPT4o        = "gpt-4o"
	GPT4oMini    = "gpt-4o-mini"
	GPT41        = "gpt-4.1"
	DefaultModel = GPT4o
)

// Client implements chat.Client over the OpenAI SDK.
type Client struct {
	client openai.Client
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

// WithBaseURL targets an OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.reqOpts = append(c.reqOpts, option.WithBaseURL(url)) }
}

// WithMaxRetries sets the SDK's own retry count.
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
	return &Client{client: openai.NewClient(reqOpts...), model: cfg.model}
}

func (c *Client) params(messages []ai.Message, opts []ai.Option) openai.ChatCompletionNewParams {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
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
	resp, err := c.client.Chat.Completions.New(ctx, c.params(messages, opts))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	choice := resp.Choices[0]
	return &ai.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		ToolCalls: extractToolCalls(choice.Message.ToolCalls),
	}, nil
}

// ChatStream streams a conversation as message events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	params := c.params(messages, opts)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	sdkStream := c.client.Chat.Completions.NewStreaming(ctx, params)
	out, ch := provider.NewStream(ctx)

	go func() {
		defer sdkStream.Close()
		var acc openai.ChatCompletionAccumulator
		for sdkStream.Next() {
			chunk := sdkStream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 && !out.Delta(chunk.Choices[0].Delta.Content) {
				out.Fail(ctx.Err())
				return
			}
		}
		if err := sdkStream.Err(); err != nil {
			out.Fail(wrapError(err))
			return
		}
		resp := &ai.Response{
			Usage: ai.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		}
		if len(acc.Choices) > 0 {
			choice := acc.Choices[0]
			resp.Content = choice.Message.Content
			resp.FinishReason = string(choice.FinishReason)
			resp.ToolCalls = extractToolCalls(choice.Message.ToolCalls)
		}
		out.End(resp)
	}()
	return ch, nil
}

func wrapError(err error) error {
	var apiErr *openai.Error
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
