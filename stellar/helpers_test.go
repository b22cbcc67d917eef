package stellar

import (
	"context"
	"errors"
	"sync"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/ledger"
)

// mockClient streams fixed fragments and records the conversation it got.
type mockClient struct {
	fragments []string
	streamErr error

	mu       sync.Mutex
	messages []ai.Message
	opts     ai.Options
}

func (m *mockClient) Chat(ctx context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return nil, errors.New("not supported")
}

func (m *mockClient) ChatStream(ctx context.Context, msgs []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	m.mu.Lock()
	m.messages = msgs
	m.opts = *ai.ApplyOptions(opts...)
	m.mu.Unlock()

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		var content string
		for _, f := range m.fragments {
			content += f
			if !event.Send(ctx, ch, event.Event{Type: event.MessageDelta, MessageID: "msg-1", Delta: f}) {
				return
			}
		}
		if m.streamErr != nil {
			event.Send(ctx, ch, event.Event{Type: event.RunError, Error: m.streamErr})
			return
		}
		event.Send(ctx, ch, event.Event{Type: event.MessageEnd, MessageID: "msg-1", Response: &ai.Response{Content: content}})
	}()
	return ch, nil
}

func (m *mockClient) conversation() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages
}

// countingLedger wraps a ledger, counting calls and optionally failing.
type countingLedger struct {
	ledger.Ledger
	createErr error
	infoErr   error

	mu      sync.Mutex
	creates int
	infos   int
}

func newCountingLedger() *countingLedger {
	return &countingLedger{Ledger: ledger.NewSimulated()}
}

func (c *countingLedger) CreateAccount(ctx context.Context, n ledger.Network) (*ledger.Keypair, error) {
	c.mu.Lock()
	c.creates++
	c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	return c.Ledger.CreateAccount(ctx, n)
}

func (c *countingLedger) AccountInfo(ctx context.Context, key string) (*ledger.AccountInfo, error) {
	c.mu.Lock()
	c.infos++
	c.mu.Unlock()
	if c.infoErr != nil {
		return nil, c.infoErr
	}
	return c.Ledger.AccountInfo(ctx, key)
}
