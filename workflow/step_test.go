package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-agentkit/stellarflow/schema"
	"github.com/stellar-agentkit/stellarflow/stream"
)

func TestExecuteStep(t *testing.T) {
	ctx := context.Background()

	t.Run("validates and executes", func(t *testing.T) {
		c := &counter{}
		out, err := ExecuteStep(ctx, nil, addStep("add", 2, c), map[string]any{"n": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": float64(3)}, out)
		assert.Equal(t, 1, c.get("add"))
	})

	t.Run("invalid input skips execution", func(t *testing.T) {
		c := &counter{}
		_, err := ExecuteStep(ctx, nil, addStep("add", 2, c), map[string]any{"n": "one"})

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, InvalidInput, f.Kind)
		assert.Equal(t, "add", f.Step)
		assert.Equal(t, []string{"n"}, f.Fields)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Zero(t, c.get("add"))
	})

	t.Run("errors become step faults", func(t *testing.T) {
		boom := errors.New("horizon unavailable")
		_, err := ExecuteStep(ctx, nil, failStep("lookup", boom, &counter{}), map[string]any{"n": 1})

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, StepExecution, f.Kind)
		assert.Equal(t, "lookup", f.Step)
		assert.Equal(t, "horizon unavailable", f.Message)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panics become step faults", func(t *testing.T) {
		step := NewStep("explode", "", nil, nil, func(context.Context, *RunContext, any) (any, error) {
			panic("nil ledger")
		})
		_, err := ExecuteStep(ctx, nil, step, nil)

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, StepExecution, f.Kind)
		assert.Equal(t, "panic: nil ledger", f.Message)
	})

	t.Run("interrupted streams keep partial text", func(t *testing.T) {
		step := NewStep("generate", "", nil, nil, func(ctx context.Context, rc *RunContext, _ any) (any, error) {
			return stream.Aggregate(ctx, stream.FromSlice([]string{"Hello ", "world"}, errors.New("reset")), rc.Sink())
		})
		_, err := ExecuteStep(ctx, nil, step, nil)

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, StreamInterrupted, f.Kind)
		assert.Equal(t, "Hello world", f.Partial)
		assert.ErrorIs(t, err, ErrStreamInterrupted)
	})

	t.Run("invalid output is a step fault", func(t *testing.T) {
		step := NewStep("bad", "", nil, numberShape(), func(context.Context, *RunContext, any) (map[string]any, error) {
			return map[string]any{"n": "x"}, nil
		})
		_, err := ExecuteStep(ctx, nil, step, nil)

		var f *Fault
		require.ErrorAs(t, err, &f)
		assert.Equal(t, StepExecution, f.Kind)
		assert.Contains(t, f.Message, "invalid output")
	})

	t.Run("applies input defaults", func(t *testing.T) {
		in := schema.Object().Field("network", schema.String().Enum("testnet", "mainnet").Default("testnet"))
		type netIn struct {
			Network string `json:"network"`
		}
		step := NewStep("net", "", in, nil, func(_ context.Context, _ *RunContext, v netIn) (string, error) {
			return v.Network, nil
		})
		out, err := ExecuteStep(ctx, nil, step, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "testnet", out)
	})
}

func TestAsFault(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsFault("x", nil))
	})

	t.Run("attributes a fault once", func(t *testing.T) {
		inner := &Fault{Kind: InvalidInput, Message: "bad"}
		f := AsFault("create-account", inner)
		assert.Equal(t, "create-account", f.Step)
		assert.Empty(t, inner.Step)

		again := AsFault("outer", f)
		assert.Same(t, f, again)
		assert.Equal(t, `workflow: step "create-account": invalid_input: bad`, again.Error())
	})

	t.Run("kind sentinels", func(t *testing.T) {
		f := &Fault{Kind: NotCommitted}
		assert.ErrorIs(t, f, ErrNotCommitted)
		assert.NotErrorIs(t, f, ErrInvalidInput)
	})
}

func TestRunContextNil(t *testing.T) {
	var rc *RunContext
	assert.Empty(t, rc.RunID())
	assert.NotNil(t, rc.Logger())
	assert.NotNil(t, rc.Sink())
	_, ok := rc.StepResult("x")
	assert.False(t, ok)
	assert.Nil(t, rc.Results())
}
