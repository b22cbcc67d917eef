// Package provider holds what the model adapters share: the event stream
// every adapter produces and the mapping of HTTP failures onto categorized
// errors.
package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
)

// DefaultMaxTokens is used when a request sets no limit.
const DefaultMaxTokens = 4096

// Stream writes one assistant message as events: MessageStart, one
// MessageDelta per fragment, then MessageEnd with the full response or
// RunError. Sends block until received or the context is done.
type Stream struct {
	ctx     context.Context
	ch      chan event.Event
	id      string
	started bool
}

// NewStream creates a stream and the channel its consumer reads.
func NewStream(ctx context.Context) (*Stream, <-chan event.Event) {
	ch := make(chan event.Event)
	return &Stream{ctx: ctx, ch: ch, id: ai.GenerateMessageID()}, ch
}

// MessageID returns the id shared by the stream's events.
func (s *Stream) MessageID() string { return s.id }

func (s *Stream) start() bool {
	if s.started {
		return true
	}
	s.started = true
	return event.Send(s.ctx, s.ch, event.Event{Type: event.MessageStart, MessageID: s.id})
}

// Delta sends a fragment. It reports false once the consumer has gone
// away, after which the producer should stop.
func (s *Stream) Delta(text string) bool {
	if text == "" {
		return s.ctx.Err() == nil
	}
	if !s.start() {
		return false
	}
	return event.Send(s.ctx, s.ch, event.Event{Type: event.MessageDelta, MessageID: s.id, Delta: text})
}

// End sends the completed response and closes the stream.
func (s *Stream) End(resp *ai.Response) {
	defer close(s.ch)
	if !s.start() {
		return
	}
	event.Send(s.ctx, s.ch, event.Event{Type: event.MessageEnd, MessageID: s.id, Response: resp})
}

// Fail sends the error and closes the stream.
func (s *Stream) Fail(err error) {
	defer close(s.ch)
	event.Send(s.ctx, s.ch, event.Event{Type: event.RunError, MessageID: s.id, Error: err})
}

// StatusError categorizes a failed API call by its status code, carrying
// any Retry-After the server sent.
func StatusError(err error, code int, header http.Header) error {
	if err == nil {
		return nil
	}
	return ai.NewStatusError(err.Error(), code, ParseRetryAfter(header), err)
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. It returns 0 when absent or unparsable.
func ParseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// ToolCallNames maps tool call ids to tool names across a conversation.
// Adapters whose wire format identifies results by name need it.
func ToolCallNames(messages []ai.Message) map[string]string {
	names := make(map[string]string)
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			names[tc.ID] = tc.Name
		}
	}
	return names
}
