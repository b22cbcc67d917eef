package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-agentkit/stellarflow/workflow"
)

// testAdapter runs the behavior every backend must share.
func testAdapter(t *testing.T, a Adapter) {
	ctx := context.Background()

	t.Run("get and set", func(t *testing.T) {
		require.NoError(t, a.Set(ctx, "k1", json.RawMessage(`"v1"`)))
		raw, ok, err := a.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `"v1"`, string(raw))

		require.NoError(t, a.Set(ctx, "k1", json.RawMessage(`{"n":2}`)))
		raw, _, _ = a.Get(ctx, "k1")
		assert.JSONEq(t, `{"n":2}`, string(raw))

		_, ok, err = a.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("has and delete", func(t *testing.T) {
		require.NoError(t, a.Set(ctx, "gone", json.RawMessage(`1`)))
		has, err := a.Has(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, a.Delete(ctx, "gone"))
		has, err = a.Has(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, has)
		require.NoError(t, a.Delete(ctx, "gone"))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		for _, k := range []string{"thread:b", "thread:a", "run:1", "thread_x"} {
			require.NoError(t, a.Set(ctx, k, json.RawMessage(`null`)))
		}
		keys, err := a.Keys(ctx, "thread:")
		require.NoError(t, err)
		assert.Equal(t, []string{"thread:a", "thread:b"}, keys)
	})
}

func TestMemoryAdapter(t *testing.T) {
	testAdapter(t, NewMemoryAdapter())
}

func TestMemoryAdapterCopiesValues(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()
	value := json.RawMessage(`"abc"`)
	require.NoError(t, a.Set(ctx, "k", value))
	value[1] = 'X'

	raw, _, _ := a.Get(ctx, "k")
	assert.Equal(t, `"abc"`, string(raw))
}

func TestMemoryAdapterConcurrent(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Set(ctx, "shared", json.RawMessage(`1`))
			_, _, _ = a.Get(ctx, "shared")
			_, _ = a.Keys(ctx, "")
		}()
	}
	wg.Wait()
	has, _ := a.Has(ctx, "shared")
	assert.True(t, has)
}

func TestRedisAdapter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	a, err := NewRedisAdapter(context.Background(), RedisConfig{Addr: addr, Namespace: "stellarflow-test:" + t.Name() + ":"})
	require.NoError(t, err)
	defer a.Close()
	testAdapter(t, a)
}

func TestMySQLAdapter(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	a, err := NewMySQLAdapter(context.Background(), dsn)
	require.NoError(t, err)
	defer a.Close()
	_, _ = a.db.Exec(`DELETE FROM kv_store`)
	testAdapter(t, a)
}

func TestAdapterConstructorsRejectEmptyConfig(t *testing.T) {
	_, err := NewRedisAdapter(context.Background(), RedisConfig{})
	assert.Error(t, err)
	_, err = NewMySQLAdapter(context.Background(), " ")
	assert.Error(t, err)
}

func TestOpenDefaultsToMemory(t *testing.T) {
	a, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryAdapter{}, a)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	type account struct {
		PublicKey string `json:"publicKey"`
	}
	require.NoError(t, SetJSON(ctx, a, "acct", account{PublicKey: "GABC"}))
	got, err := GetJSON[account](ctx, a, "acct")
	require.NoError(t, err)
	assert.Equal(t, "GABC", got.PublicKey)

	_, err = GetJSON[account](ctx, a, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, a.Set(ctx, "bad", json.RawMessage(`[`)))
	_, err = GetJSON[account](ctx, a, "bad")
	var serr *SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "bad", serr.Key)

	err = SetJSON(ctx, a, "chan", make(chan int))
	assert.ErrorAs(t, err, &serr)
}

func TestRunStore(t *testing.T) {
	ctx := context.Background()
	s := NewRunStore(NewMemoryAdapter())

	res := &workflow.Result{
		RunID:       "run-1",
		Workflow:    "stellar-workflow",
		Success:     true,
		Output:      map[string]any{"network": "testnet", "success": true},
		Steps:       []workflow.StepRecord{{ID: "create-account", Status: workflow.StepSucceeded}},
		Termination: workflow.TerminationComplete,
	}
	require.NoError(t, s.SaveRun(ctx, res))
	require.NoError(t, s.SaveRun(ctx, &workflow.Result{RunID: "run-2", Workflow: "stellar-workflow"}))

	loaded, err := s.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "stellar-workflow", loaded.Workflow)
	assert.True(t, loaded.Success)
	assert.Equal(t, "testnet", loaded.Output.(map[string]any)["network"])
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "create-account", loaded.Steps[0].ID)

	_, err = s.LoadRun(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := s.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, ids)

	assert.Error(t, s.SaveRun(ctx, &workflow.Result{}))
}
