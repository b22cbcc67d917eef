// Package google adapts the Gemini API to chat.Client.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/provider"
)

// Models the agents are tuned for.
const (
	Gemini25Flash = "gemini-2.5-flash"
	Gemini25Pro   = "gemini-2.5-pro"
	Gemini20Flash = "gemini-2.0-flash"
	DefaultModel  = Gemini25Flash
)

// BlockedError reports a prompt rejected by the safety filters.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// Client implements chat.Client over the GenAI SDK.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel sets the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// New creates a Gemini API client.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) request(messages []ai.Message, opts []ai.Option) (string, []*genai.Content, *genai.GenerateContentConfig) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	contents, system := convertMessages(messages)
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}
	return model, contents, config
}

// Chat sends a conversation and returns the complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	model, contents, config := c.request(messages, opts)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := blocked(resp); err != nil {
		return nil, err
	}

	out := &ai.Response{Usage: usageOf(resp)}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.FinishReason = string(cand.FinishReason)
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				out.Content += part.Text
			}
			out.ToolCalls = extractToolCalls(cand.Content.Parts)
		}
	}
	return out, nil
}

// ChatStream streams a conversation as message events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	model, contents, config := c.request(messages, opts)
	out, ch := provider.NewStream(ctx)

	go func() {
		resp := &ai.Response{}
		var parts []*genai.Part
		chunks := 0
		for chunk, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				out.Fail(wrapError(err))
				return
			}
			chunks++
			if err := blocked(chunk); err != nil {
				out.Fail(err)
				return
			}
			if len(chunk.Candidates) > 0 && chunk.Candidates[0].Content != nil {
				for _, part := range chunk.Candidates[0].Content.Parts {
					parts = append(parts, part)
					if !out.Delta(part.Text) {
						out.Fail(ctx.Err())
						return
					}
					resp.Content += part.Text
				}
				resp.FinishReason = string(chunk.Candidates[0].FinishReason)
			}
			if chunk.UsageMetadata != nil {
				resp.Usage = usageOf(chunk)
			}
		}
		if chunks == 0 {
			out.Fail(errors.New("google: stream returned no data"))
			return
		}
		resp.ToolCalls = extractToolCalls(parts)
		out.End(resp)
	}()
	return ch, nil
}

func blocked(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	return nil
}

func usageOf(resp *genai.GenerateContentResponse) ai.Usage {
	if resp.UsageMetadata == nil {
		return ai.Usage{}
	}
	return ai.Usage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
	}
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return provider.StatusError(err, apiErr.Code, nil)
}

var _ chat.Client = (*Client)(nil)
