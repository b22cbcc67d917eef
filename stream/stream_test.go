package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/event"
)

// recordingSink records every fragment it receives.
type recordingSink struct {
	got []Fragment
	err error
	// failAt makes Write fail on that index when err is set.
	failAt int
}

func (r *recordingSink) Write(_ context.Context, f Fragment) error {
	if r.err != nil && f.Index == r.failAt {
		return r.err
	}
	r.got = append(r.got, f)
	return nil
}

func (r *recordingSink) text() string {
	var b strings.Builder
	for _, f := range r.got {
		b.WriteString(f.Text)
	}
	return b.String()
}

// closeTracker wraps a Source and records Close calls.
type closeTracker struct {
	Source
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return c.Source.Close()
}

func TestAggregate(t *testing.T) {
	t.Run("forwards in order and concatenates", func(t *testing.T) {
		sink := &recordingSink{}
		src := &closeTracker{Source: FromSlice([]string{"Account ", "created ", "", "on testnet"}, nil)}

		text, err := Aggregate(context.Background(), src, sink)

		require.NoError(t, err)
		assert.Equal(t, "Account created on testnet", text)
		assert.Equal(t, text, sink.text())
		require.Len(t, sink.got, 4)
		for i, f := range sink.got {
			assert.Equal(t, i, f.Index)
		}
		assert.Equal(t, 1, src.closed)
	})

	t.Run("empty stream", func(t *testing.T) {
		text, err := Aggregate(context.Background(), FromSlice(nil, nil))
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("preserves partial text on source failure", func(t *testing.T) {
		sink := &recordingSink{}
		boom := errors.New("connection reset")
		src := &closeTracker{Source: FromSlice([]string{"Hello ", "world"}, boom)}

		text, err := Aggregate(context.Background(), src, sink)

		var ierr *InterruptedError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, "Hello world", ierr.Partial)
		assert.Equal(t, 2, ierr.Fragments)
		assert.Equal(t, "Hello world", text)
		assert.Equal(t, sink.text(), ierr.Partial)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, src.closed)
	})

	t.Run("sink failure stops the stream", func(t *testing.T) {
		broken := errors.New("broken pipe")
		first := &recordingSink{}
		second := &recordingSink{err: broken, failAt: 1}
		calls := 0
		src := FromFunc(func(context.Context) (string, error) {
			calls++
			return "x", nil
		}, nil)

		_, err := Aggregate(context.Background(), src, first, second)

		var ierr *InterruptedError
		require.ErrorAs(t, err, &ierr)
		assert.ErrorIs(t, err, broken)
		assert.Equal(t, "xx", first.text())
		assert.Equal(t, first.text(), ierr.Partial)
		assert.Equal(t, 2, ierr.Fragments)
		assert.Equal(t, "x", second.text())
		assert.Equal(t, 2, calls)
	})

	t.Run("cancellation stops consumption and closes the source", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		closed := false
		src := FromFunc(func(context.Context) (string, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return "tick ", nil
		}, func() error {
			closed = true
			return nil
		})

		sink := &recordingSink{}
		text, err := Aggregate(ctx, src, sink)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "tick ", text)
		assert.Equal(t, "tick ", sink.text())
		assert.True(t, closed)
	})

	t.Run("timeout while waiting for a fragment", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		src := FromFunc(func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", errors.New("aborted")
		}, nil)

		_, err := Aggregate(ctx, src)

		var ierr *InterruptedError
		require.ErrorAs(t, err, &ierr)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, ierr.Partial)
	})
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator
	require.NoError(t, acc.Write(context.Background(), Fragment{Text: "a"}))
	require.NoError(t, acc.Write(context.Background(), Fragment{Text: "b"}))
	assert.Equal(t, "ab", acc.String())
	assert.Equal(t, 2, acc.Len())
}

func TestSinks(t *testing.T) {
	ctx := context.Background()

	t.Run("writer", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Aggregate(ctx, FromSlice([]string{"a", "b"}, nil), WriterSink(&buf))
		require.NoError(t, err)
		assert.Equal(t, "ab", buf.String())
	})

	t.Run("channel", func(t *testing.T) {
		ch := make(chan Fragment, 2)
		_, err := Aggregate(ctx, FromSlice([]string{"a", "b"}, nil), ChannelSink(ch))
		require.NoError(t, err)
		assert.Equal(t, Fragment{Index: 0, Text: "a"}, <-ch)
		assert.Equal(t, Fragment{Index: 1, Text: "b"}, <-ch)
	})

	t.Run("channel respects cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		err := ChannelSink(make(chan Fragment)).Write(ctx, Fragment{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("events", func(t *testing.T) {
		ch := make(chan event.Event, 2)
		_, err := Aggregate(ctx, FromSlice([]string{"a", "b"}, nil), EventSink(ch, "msg-1"))
		require.NoError(t, err)
		e := <-ch
		assert.Equal(t, event.MessageDelta, e.Type)
		assert.Equal(t, "msg-1", e.MessageID)
		assert.Equal(t, "a", e.Delta)
	})

	t.Run("log", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		_, err := Aggregate(ctx, FromSlice([]string{"abc"}, nil), LogSink(logger))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "bytes=3")
	})

	t.Run("discard", func(t *testing.T) {
		text, err := Aggregate(ctx, FromSlice([]string{"a"}, nil), Discard)
		require.NoError(t, err)
		assert.Equal(t, "a", text)
	})
}

func TestEventSource(t *testing.T) {
	t.Run("reads deltas until the channel closes", func(t *testing.T) {
		ch := make(chan event.Event, 5)
		ch <- event.Event{Type: event.MessageStart}
		ch <- event.Event{Type: event.MessageDelta, Delta: "Hello "}
		ch <- event.Event{Type: event.MessageDelta, Delta: "world"}
		ch <- event.Event{Type: event.MessageEnd, Response: &ai.Response{Content: "Hello world"}}
		close(ch)

		src := FromEvents(ch, nil)
		text, err := Aggregate(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, "Hello world", text)
		require.NotNil(t, src.Response())
		assert.Equal(t, "Hello world", src.Response().Content)
	})

	t.Run("run error interrupts with partial text", func(t *testing.T) {
		boom := errors.New("overloaded")
		ch := make(chan event.Event, 3)
		ch <- event.Event{Type: event.MessageDelta, Delta: "Hello "}
		ch <- event.Event{Type: event.MessageDelta, Delta: "world"}
		ch <- event.Event{Type: event.RunError, Error: boom}
		close(ch)

		_, err := Aggregate(context.Background(), FromEvents(ch, nil))
		var ierr *InterruptedError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, "Hello world", ierr.Partial)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("close cancels the producer", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		ch := make(chan event.Event)
		go func() {
			defer close(ch)
			for event.Send(ctx, ch, event.Event{Type: event.MessageDelta, Delta: "x"}) {
			}
		}()

		src := FromEvents(ch, cancel)
		first, err := src.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "x", first)
		require.NoError(t, src.Close())
		require.NoError(t, src.Close())

		assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, time.Millisecond)
	})
}

func TestFromSliceAfterClose(t *testing.T) {
	src := FromSlice([]string{"a"}, nil)
	require.NoError(t, src.Close())
	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
