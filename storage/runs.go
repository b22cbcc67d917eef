package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar-agentkit/stellarflow/workflow"
)

const runPrefix = "run:"

// RunStore persists workflow results as JSON snapshots keyed by run id.
type RunStore struct {
	adapter Adapter
}

// NewRunStore creates a RunStore over adapter.
func NewRunStore(a Adapter) *RunStore {
	return &RunStore{adapter: a}
}

// SaveRun stores the snapshot, replacing an earlier one for the same run.
func (s *RunStore) SaveRun(ctx context.Context, res *workflow.Result) error {
	if res == nil || res.RunID == "" {
		return errors.New("storage: run has no id")
	}
	return SetJSON(ctx, s.adapter, runPrefix+res.RunID, res)
}

// LoadRun returns the snapshot of runID, or ErrNotFound.
func (s *RunStore) LoadRun(ctx context.Context, runID string) (*workflow.Result, error) {
	res, err := GetJSON[workflow.Result](ctx, s.adapter, runPrefix+runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}
	return &res, nil
}

// RunIDs lists the stored run ids in key order.
func (s *RunStore) RunIDs(ctx context.Context) ([]string, error) {
	keys, err := s.adapter.Keys(ctx, runPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(runPrefix):]
	}
	return ids, nil
}

var _ workflow.RunStore = (*RunStore)(nil)
