package stream

import (
	"context"
	"io"
	"sync"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
)

// EventSource reads MessageDelta events from a chat stream.
type EventSource struct {
	ch     <-chan event.Event
	cancel context.CancelFunc
	once   sync.Once
	resp   *ai.Response
}

// FromEvents adapts a chat event stream to a Source. cancel stops the
// producer; Close calls it and drains the channel in the background. A
// RunError event surfaces as the error returned by Next.
func FromEvents(ch <-chan event.Event, cancel context.CancelFunc) *EventSource {
	return &EventSource{ch: ch, cancel: cancel}
}

// Next returns the next non-empty delta.
func (s *EventSource) Next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case e, ok := <-s.ch:
			if !ok {
				return "", io.EOF
			}
			switch e.Type {
			case event.MessageDelta:
				if e.Delta != "" {
					return e.Delta, nil
				}
			case event.MessageEnd:
				s.resp = e.Response
			case event.RunError:
				return "", e.Error
			}
		}
	}
}

// Response returns the final response carried by MessageEnd, or nil if the
// stream has not ended.
func (s *EventSource) Response() *ai.Response { return s.resp }

// Close cancels the producer and drains what is left of the stream.
func (s *EventSource) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		go event.Drain(s.ch)
	})
	return nil
}

type sliceSource struct {
	texts  []string
	err    error
	pos    int
	closed bool
}

// FromSlice yields texts in order, then err, or io.EOF when err is nil.
func FromSlice(texts []string, err error) Source {
	return &sliceSource{texts: texts, err: err}
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.closed {
		return "", io.ErrClosedPipe
	}
	if s.pos < len(s.texts) {
		s.pos++
		return s.texts[s.pos-1], nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

type funcSource struct {
	next  func(ctx context.Context) (string, error)
	close func() error
	once  sync.Once
	err   error
}

// FromFunc builds a Source from a next function and an optional close
// function, which runs at most once.
func FromFunc(next func(ctx context.Context) (string, error), close func() error) Source {
	return &funcSource{next: next, close: close}
}

func (s *funcSource) Next(ctx context.Context) (string, error) { return s.next(ctx) }

func (s *funcSource) Close() error {
	s.once.Do(func() {
		if s.close != nil {
			s.err = s.close()
		}
	})
	return s.err
}
