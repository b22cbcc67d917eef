package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_store (
        k VARCHAR(255) NOT NULL PRIMARY KEY,
        v LONGTEXT NOT NULL,
        updated_at BIGINT NOT NULL
)`

// MySQLAdapter stores keys in the kv_store table, created on connect.
type MySQLAdapter struct {
	db *sql.DB
}

// NewMySQLAdapter opens dsn, pings it and creates the table if needed.
func NewMySQLAdapter(ctx context.Context, dsn string) (*MySQLAdapter, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage: mysql dsn is empty")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: connect mysql: %w", err)
	}
	a, err := NewMySQLAdapterFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// NewMySQLAdapterFromDB wraps an open database and creates the table.
func NewMySQLAdapterFromDB(ctx context.Context, db *sql.DB) (*MySQLAdapter, error) {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("storage: create kv_store: %w", err)
	}
	return &MySQLAdapter{db: db}, nil
}

// Get retrieves a value by key.
func (m *MySQLAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var v string
	err := m.db.QueryRowContext(ctx, `SELECT v FROM kv_store WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: mysql get %q: %w", key, err)
	}
	return json.RawMessage(v), true, nil
}

// Set upserts a value.
func (m *MySQLAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	const stmt = `INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`
	if _, err := m.db.ExecContext(ctx, stmt, key, string(value), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("storage: mysql set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (m *MySQLAdapter) Delete(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = ?`, key); err != nil {
		return fmt.Errorf("storage: mysql delete %q: %w", key, err)
	}
	return nil
}

// Has returns true if the key exists.
func (m *MySQLAdapter) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_store WHERE k = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage: mysql has %q: %w", key, err)
	}
	return n > 0, nil
}

// Keys returns the sorted keys starting with prefix.
func (m *MySQLAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT k FROM kv_store WHERE k LIKE ? ESCAPE '\\' ORDER BY k`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("storage: mysql keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage: mysql keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (m *MySQLAdapter) Close() error {
	return m.db.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
