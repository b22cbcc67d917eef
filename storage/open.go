package storage

import (
	"context"
	"log/slog"
)

// Config selects a backend. MySQL wins over Redis; with neither set the
// data lives in memory.
type Config struct {
	DatabaseURL string
	Redis       RedisConfig
}

// Open connects the backend selected by cfg.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	switch {
	case cfg.DatabaseURL != "":
		a, err := NewMySQLAdapter(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("storage ready", "backend", "mysql")
		return a, nil
	case cfg.Redis.Addr != "":
		a, err := NewRedisAdapter(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		slog.Info("storage ready", "backend", "redis", "addr", cfg.Redis.Addr)
		return a, nil
	default:
		slog.Info("storage ready", "backend", "memory")
		return NewMemoryAdapter(), nil
	}
}
