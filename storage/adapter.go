// Package storage persists conversation memory and workflow run snapshots
// behind a small key/value Adapter with in-memory, Redis and MySQL
// backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("storage: not found")

// Adapter defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores a value by key, replacing any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Has returns true if the key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Keys returns the keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend's connections.
	Close() error
}

// SerializationError wraps JSON marshaling/unmarshaling errors with context.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("storage: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// GetJSON loads key and decodes it into T. A missing key is ErrNotFound.
func GetJSON[T any](ctx context.Context, a Adapter, key string) (T, error) {
	var out T
	raw, ok, err := a.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, ErrNotFound
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &SerializationError{Key: key, Err: err}
	}
	return out, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, a Adapter, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return a.Set(ctx, key, raw)
}
