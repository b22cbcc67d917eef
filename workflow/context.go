package workflow

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/stellar-agentkit/stellarflow/stream"
)

// RunContext carries per-run state to executing steps. Each run owns its
// own context; nothing is shared between concurrent runs. A nil
// *RunContext is valid and behaves as an empty run.
type RunContext struct {
	runID    string
	workflow string
	logger   *slog.Logger
	sink     stream.Sink
	results  *results
}

// results holds step outputs shared by the step-scoped copies of a run
// context.
type results struct {
	mu   sync.RWMutex
	byID map[string]any
}

// NewRunContext creates a context for executing steps outside a workflow.
func NewRunContext(runID string, logger *slog.Logger, sinks ...stream.Sink) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		runID:   runID,
		logger:  logger,
		sink:    fanOut(sinks),
		results: &results{byID: make(map[string]any)},
	}
}

// RunID returns the run identifier.
func (rc *RunContext) RunID() string {
	if rc == nil {
		return ""
	}
	return rc.runID
}

// Workflow returns the id of the running workflow.
func (rc *RunContext) Workflow() string {
	if rc == nil {
		return ""
	}
	return rc.workflow
}

// Logger returns the run logger.
func (rc *RunContext) Logger() *slog.Logger {
	if rc == nil || rc.logger == nil {
		return slog.Default()
	}
	return rc.logger
}

// Sink returns the destination for streamed fragments. It is never nil.
func (rc *RunContext) Sink() stream.Sink {
	if rc == nil || rc.sink == nil {
		return stream.Discard
	}
	return rc.sink
}

// StepResult returns the normalized output of a step that already
// completed in this run.
func (rc *RunContext) StepResult(id string) (any, bool) {
	if rc == nil || rc.results == nil {
		return nil, false
	}
	rc.results.mu.RLock()
	defer rc.results.mu.RUnlock()
	v, ok := rc.results.byID[id]
	return v, ok
}

// Results returns a copy of every completed step output by id.
func (rc *RunContext) Results() map[string]any {
	if rc == nil || rc.results == nil {
		return nil
	}
	rc.results.mu.RLock()
	defer rc.results.mu.RUnlock()
	return maps.Clone(rc.results.byID)
}

func (rc *RunContext) record(id string, out any) {
	rc.results.mu.Lock()
	defer rc.results.mu.Unlock()
	rc.results.byID[id] = out
}

// withSink returns a shallow copy whose sink also writes to extra.
func (rc *RunContext) withSink(extra stream.Sink) *RunContext {
	return &RunContext{
		runID:    rc.runID,
		workflow: rc.workflow,
		logger:   rc.logger,
		sink:     fanOut([]stream.Sink{rc.Sink(), extra}),
		results:  rc.results,
	}
}

type multiSink []stream.Sink

func (m multiSink) Write(ctx context.Context, f stream.Fragment) error {
	for _, s := range m {
		if err := s.Write(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func fanOut(sinks []stream.Sink) stream.Sink {
	switch len(sinks) {
	case 0:
		return stream.Discard
	case 1:
		return sinks[0]
	default:
		return multiSink(sinks)
	}
}

type stepKey struct{}

type stepInfo struct {
	runID string
	step  string
}

// withStep tags ctx with the run and step being executed.
func withStep(ctx context.Context, runID, step string) context.Context {
	return context.WithValue(ctx, stepKey{}, stepInfo{runID: runID, step: step})
}

// StepFromContext returns the run id and step id that ctx was created for.
// Sinks use it to label fragments.
func StepFromContext(ctx context.Context) (runID, step string, ok bool) {
	info, ok := ctx.Value(stepKey{}).(stepInfo)
	return info.runID, info.step, ok
}
