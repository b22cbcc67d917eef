package stream

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stellar-agentkit/stellarflow/event"
)

// Sink receives fragments for live delivery.
type Sink interface {
	Write(ctx context.Context, f Fragment) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, f Fragment) error

// Write calls fn(ctx, f).
func (fn SinkFunc) Write(ctx context.Context, f Fragment) error {
	return fn(ctx, f)
}

// Discard is a Sink that drops every fragment.
var Discard Sink = SinkFunc(func(context.Context, Fragment) error { return nil })

type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// WriterSink writes fragment text to w, flushing after each write when w
// has a Flush method.
func WriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Write(_ context.Context, f Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, f.Text); err != nil {
		return err
	}
	switch fl := s.w.(type) {
	case interface{ Flush() error }:
		return fl.Flush()
	case interface{ Flush() }:
		fl.Flush()
	}
	return nil
}

// ChannelSink sends fragments to ch, blocking until the receiver takes each
// one or ctx is done.
func ChannelSink(ch chan<- Fragment) Sink {
	return SinkFunc(func(ctx context.Context, f Fragment) error {
		select {
		case ch <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// EventSink sends each fragment as a MessageDelta event for messageID.
func EventSink(ch chan<- event.Event, messageID string) Sink {
	return SinkFunc(func(ctx context.Context, f Fragment) error {
		if !event.Send(ctx, ch, event.Event{Type: event.MessageDelta, MessageID: messageID, Delta: f.Text}) {
			return ctx.Err()
		}
		return nil
	})
}

// LogSink logs each fragment at debug level.
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(ctx context.Context, f Fragment) error {
		logger.DebugContext(ctx, "fragment", "index", f.Index, "bytes", len(f.Text))
		return nil
	})
}
