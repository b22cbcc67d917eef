// Package memory keeps per-thread conversation history so an agent can
// pick a conversation up where it left off.
package memory

import (
	"context"
	"errors"
	"sync"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/storage"
)

const threadPrefix = "thread:"

// Store reads and writes thread histories through a storage adapter.
// Appends to the same thread are serialized within one process.
type Store struct {
	adapter storage.Adapter
	limit   int
	locks   sync.Map
}

// Option configures a Store.
type Option func(*Store)

// WithLimit keeps only the last n messages of each thread. Zero keeps all.
func WithLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// New creates a Store. A nil adapter keeps history in memory.
func New(a storage.Adapter, opts ...Option) *Store {
	if a == nil {
		a = storage.NewMemoryAdapter()
	}
	s := &Store{adapter: a}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lock(thread string) func() {
	v, _ := s.locks.LoadOrStore(thread, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Messages returns the thread's history. An unknown thread is empty.
func (s *Store) Messages(ctx context.Context, thread string) ([]ai.Message, error) {
	msgs, err := storage.GetJSON[[]ai.Message](ctx, s.adapter, threadPrefix+thread)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return msgs, err
}

// Save replaces the thread's history.
func (s *Store) Save(ctx context.Context, thread string, msgs []ai.Message) error {
	unlock := s.lock(thread)
	defer unlock()
	return s.save(ctx, thread, msgs)
}

func (s *Store) save(ctx context.Context, thread string, msgs []ai.Message) error {
	if s.limit > 0 && len(msgs) > s.limit {
		msgs = msgs[len(msgs)-s.limit:]
	}
	if msgs == nil {
		msgs = []ai.Message{}
	}
	return storage.SetJSON(ctx, s.adapter, threadPrefix+thread, msgs)
}

// Append adds messages to the end of the thread's history.
func (s *Store) Append(ctx context.Context, thread string, msgs ...ai.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	unlock := s.lock(thread)
	defer unlock()

	existing, err := s.Messages(ctx, thread)
	if err != nil {
		return err
	}
	return s.save(ctx, thread, append(existing, msgs...))
}

// Delete removes the thread.
func (s *Store) Delete(ctx context.Context, thread string) error {
	return s.adapter.Delete(ctx, threadPrefix+thread)
}

// Threads lists the stored thread ids.
func (s *Store) Threads(ctx context.Context) ([]string, error) {
	keys, err := s.adapter.Keys(ctx, threadPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(threadPrefix):]
	}
	return ids, nil
}
