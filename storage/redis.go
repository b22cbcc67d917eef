package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key. Defaults to "stellarflow:".
	Namespace string
}

// RedisAdapter stores each key as a Redis string.
type RedisAdapter struct {
	client *redis.Client
	ns     string
}

// NewRedisAdapter connects to Redis and pings it.
func NewRedisAdapter(ctx context.Context, cfg RedisConfig) (*RedisAdapter, error) {
	if cfg.Addr == "" {
		return nil, errors.New("storage: redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: connect redis: %w", err)
	}
	return NewRedisAdapterFromClient(client, cfg.Namespace), nil
}

// NewRedisAdapterFromClient wraps an existing client.
func NewRedisAdapterFromClient(client *redis.Client, namespace string) *RedisAdapter {
	if namespace == "" {
		namespace = "stellarflow:"
	}
	return &RedisAdapter{client: client, ns: namespace}
}

// Get retrieves a value by key.
func (r *RedisAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	data, err := r.client.Get(ctx, r.ns+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: redis get %q: %w", key, err)
	}
	return json.RawMessage(data), true, nil
}

// Set stores a value by key without expiry.
func (r *RedisAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := r.client.Set(ctx, r.ns+key, []byte(value), 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.ns+key).Err(); err != nil {
		return fmt.Errorf("storage: redis del %q: %w", key, err)
	}
	return nil
}

// Has returns true if the key exists.
func (r *RedisAdapter) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.ns+key).Result()
	if err != nil {
		return false, fmt.Errorf("storage: redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Keys scans for keys starting with prefix.
func (r *RedisAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.ns+escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.ns))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("storage: redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}

func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}
