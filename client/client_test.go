package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/retry"
)

// fakeBackend fails with the queued errors first, then succeeds.
type fakeBackend struct {
	mu         sync.Mutex
	errs       []error
	streamErrs []error
	calls      int
	lastOpts   *ai.Options
}

func (f *fakeBackend) next(queue *[]error, opts []ai.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastOpts = ai.ApplyOptions(opts...)
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *fakeBackend) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if err := f.next(&f.errs, opts); err != nil {
		return nil, err
	}
	return &ai.Response{Content: "ok", Usage: ai.Usage{InputTokens: 3, OutputTokens: 1}}, nil
}

func (f *fakeBackend) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	err := f.next(&f.streamErrs, opts)
	ch := make(chan event.Event, 4)
	if err != nil {
		ch <- event.Event{Type: event.RunError, Error: err}
	} else {
		ch <- event.Event{Type: event.MessageStart, MessageID: "m"}
		ch <- event.Event{Type: event.MessageDelta, MessageID: "m", Delta: "hi"}
		ch <- event.Event{Type: event.MessageEnd, MessageID: "m", Response: &ai.Response{Content: "hi"}}
	}
	close(ch)
	return ch, nil
}

func fastRetry() *retry.Config {
	cfg := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return &cfg
}

func transient() error {
	return ai.NewStatusError("overloaded", 529, 0, errors.New("overloaded"))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p)

	p, err = ParseProvider("google")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, p)

	_, err = ParseProvider("bedrock")
	var unknown *ErrUnknownProvider
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, `unsupported provider: "bedrock"`, err.Error())
}

func TestNew(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKeys: APIKeys{Anthropic: "k"}})
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "no API key configured for openai", err.Error())
	})

	t.Run("anthropic by default", func(t *testing.T) {
		c, err := New(context.Background(), Config{APIKeys: APIKeys{Anthropic: "k"}})
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, c.Provider())
	})

	t.Run("openai", func(t *testing.T) {
		c, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKeys: APIKeys{OpenAI: "k"}})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, c.Provider())
	})
}

func TestChatDefaults(t *testing.T) {
	backend := &fakeBackend{}
	temp := 0.2
	c := Wrap(backend, Config{Model: "claude-sonnet-4-20250514", MaxTokens: 512, Temperature: &temp})

	_, err := c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", backend.lastOpts.Model)
	assert.Equal(t, 512, backend.lastOpts.MaxTokens)
	require.NotNil(t, backend.lastOpts.Temperature)
	assert.Equal(t, 0.2, *backend.lastOpts.Temperature)

	_, err = c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, ai.WithModel("other"))
	require.NoError(t, err)
	assert.Equal(t, "other", backend.lastOpts.Model)
}

func TestChatRetries(t *testing.T) {
	t.Run("transient errors are retried", func(t *testing.T) {
		backend := &fakeBackend{errs: []error{transient(), transient()}}
		events := make(chan Event, 10)
		c := Wrap(backend, Config{Provider: ProviderAnthropic, Retry: fastRetry(), Events: events})

		resp, err := c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 3, backend.calls)

		close(events)
		var types []EventType
		for e := range events {
			types = append(types, e.Type)
		}
		assert.Equal(t, []EventType{EventRequestStart, EventRetry, EventRetry, EventRequestComplete}, types)
	})

	t.Run("permanent errors are not", func(t *testing.T) {
		backend := &fakeBackend{errs: []error{ai.NewStatusError("bad key", 401, 0, nil)}}
		c := Wrap(backend, Config{Retry: fastRetry()})

		_, err := c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
		require.Error(t, err)
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("attempts run out", func(t *testing.T) {
		backend := &fakeBackend{errs: []error{transient(), transient(), transient(), transient()}}
		c := Wrap(backend, Config{Retry: fastRetry()})

		_, err := c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
		require.Error(t, err)
		assert.Equal(t, 3, backend.calls)
	})
}

func TestChatStream(t *testing.T) {
	t.Run("leading error is retried", func(t *testing.T) {
		backend := &fakeBackend{streamErrs: []error{transient()}}
		c := Wrap(backend, Config{Retry: fastRetry()})

		ch, err := c.ChatStream(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
		require.NoError(t, err)
		events := event.Collect(ch)
		require.Len(t, events, 3)
		assert.Equal(t, event.MessageStart, events[0].Type)
		assert.Equal(t, "hi", events[1].Delta)
		assert.Equal(t, event.MessageEnd, events[2].Type)
		assert.Equal(t, 2, backend.calls)
	})

	t.Run("permanent leading error is returned", func(t *testing.T) {
		backend := &fakeBackend{streamErrs: []error{ai.NewStatusError("bad request", 400, 0, nil)}}
		c := Wrap(backend, Config{Retry: fastRetry()})

		_, err := c.ChatStream(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
		require.Error(t, err)
		assert.Equal(t, 1, backend.calls)
	})
}
