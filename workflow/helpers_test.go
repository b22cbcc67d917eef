package workflow

import (
	"context"
	"errors"
	"sync"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/schema"
)

// mockClient streams fixed fragments, optionally failing afterwards.
type mockClient struct {
	fragments []string
	streamErr error
	openErr   error

	mu       sync.Mutex
	messages []ai.Message
}

func (m *mockClient) Chat(ctx context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return nil, errors.New("not supported")
}

func (m *mockClient) ChatStream(ctx context.Context, msgs []ai.Message, opts ...ai.Option) (<-chan event.Event, error) {
	m.mu.Lock()
	m.messages = msgs
	m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		id := "msg-1"
		if !event.Send(ctx, ch, event.Event{Type: event.MessageStart, MessageID: id}) {
			return
		}
		var content string
		for _, f := range m.fragments {
			content += f
			if !event.Send(ctx, ch, event.Event{Type: event.MessageDelta, MessageID: id, Delta: f}) {
				return
			}
		}
		if m.streamErr != nil {
			event.Send(ctx, ch, event.Event{Type: event.RunError, Error: m.streamErr})
			return
		}
		event.Send(ctx, ch, event.Event{Type: event.MessageEnd, MessageID: id, Response: &ai.Response{Content: content}})
	}()
	return ch, nil
}

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) inc(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[id]++
}

func (c *counter) get(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

type numberIn struct {
	N int `json:"n"`
}

type numberOut struct {
	N int `json:"n"`
}

func numberShape() *schema.ObjectBuilder {
	return schema.Object().Field("n", schema.Int().Required())
}

// addStep adds delta to n and counts its executions.
func addStep(id string, delta int, c *counter) Step {
	return NewStep(id, "adds to n", numberShape(), numberShape(),
		func(ctx context.Context, rc *RunContext, in numberIn) (numberOut, error) {
			c.inc(id)
			return numberOut{N: in.N + delta}, nil
		})
}

// failStep always fails with err.
func failStep(id string, err error, c *counter) Step {
	return NewStep(id, "fails", numberShape(), numberShape(),
		func(ctx context.Context, rc *RunContext, in numberIn) (numberOut, error) {
			c.inc(id)
			return numberOut{}, err
		})
}
