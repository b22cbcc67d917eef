package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Fragment is one chunk of generated text. Index is its 0-based arrival
// position.
type Fragment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Source yields fragments in order. Next returns io.EOF once the sequence
// is exhausted. Close releases the underlying generation call and may be
// called more than once.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// InterruptedError reports a stream that ended abnormally. Partial is the
// concatenation of every fragment handed to the sinks, including the one
// being delivered when a sink failed.
type InterruptedError struct {
	Partial   string
	Fragments int
	Err       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted after %d fragments: %v", e.Fragments, e.Err)
}

func (e *InterruptedError) Unwrap() error { return e.Err }

// Aggregate consumes src until it is exhausted and returns the concatenated
// text. Each fragment is accumulated, then written to the sinks in order.
// Fragments returned after ctx is done are discarded. On failure the returned text is the partial text and the
// error is an *InterruptedError. src is always closed before returning.
func Aggregate(ctx context.Context, src Source, sinks ...Sink) (string, error) {
	defer src.Close()

	var acc Accumulator
	interrupted := func(err error) (string, error) {
		partial := acc.String()
		return partial, &InterruptedError{Partial: partial, Fragments: acc.Len(), Err: err}
	}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		text, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return acc.String(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return interrupted(err)
		}

		// A fragment that arrives after cancellation is dropped unseen.
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}

		// Accumulated before fan-out: when a later sink fails, the earlier
		// ones already hold f and Partial must too.
		f := Fragment{Index: i, Text: text}
		acc.Write(ctx, f)
		for _, s := range sinks {
			if err := s.Write(ctx, f); err != nil {
				return interrupted(fmt.Errorf("sink: %w", err))
			}
		}
	}
}

// Accumulator is a Sink that concatenates fragments. The zero value is
// ready to use and safe for concurrent use.
type Accumulator struct {
	mu    sync.Mutex
	buf   strings.Builder
	count int
}

// Write appends the fragment text.
func (a *Accumulator) Write(_ context.Context, f Fragment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf.WriteString(f.Text)
	a.count++
	return nil
}

// String returns the text accumulated so far.
func (a *Accumulator) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}

// Len returns the number of fragments accumulated.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
