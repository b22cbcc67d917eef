package workflow

import (
	"context"
	"time"
)

// TerminationReason indicates why a run stopped.
type TerminationReason string

const (
	TerminationComplete  TerminationReason = "complete"
	TerminationTimeout   TerminationReason = "timeout"
	TerminationCancelled TerminationReason = "cancelled"
	TerminationError     TerminationReason = "error"
)

// Result is the outcome of one workflow run: either an output that
// satisfies the workflow's output shape or the fault that stopped the run.
type Result struct {
	RunID    string `json:"runId"`
	Workflow string `json:"workflow"`

	// Success is false when the run faulted or when the output is an
	// envelope reporting "success": false.
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Output any    `json:"output,omitempty"`
	Fault  *Fault `json:"fault,omitempty"`

	Steps       []StepRecord      `json:"steps"`
	Termination TerminationReason `json:"termination"`
	StartedAt   time.Time         `json:"startedAt"`
	DurationMS  int64             `json:"durationMs"`
}

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// StepRecord describes one executed step. Steps after a fault are never
// executed and have no record.
type StepRecord struct {
	ID         string     `json:"id"`
	Status     StepStatus `json:"status"`
	Output     any        `json:"output,omitempty"`
	DurationMS int64      `json:"durationMs"`
}

// RunStore persists run results.
type RunStore interface {
	SaveRun(ctx context.Context, res *Result) error
	LoadRun(ctx context.Context, runID string) (*Result, error)
}

// finish derives the summary fields from the output or the fault.
func (r *Result) finish(ctx context.Context, started time.Time) {
	r.DurationMS = time.Since(started).Milliseconds()
	if r.Fault != nil {
		r.Success = false
		r.Message = r.Fault.Error()
		switch ctx.Err() {
		case context.DeadlineExceeded:
			r.Termination = TerminationTimeout
		case context.Canceled:
			r.Termination = TerminationCancelled
		default:
			r.Termination = TerminationError
		}
		return
	}
	r.Success = true
	r.Termination = TerminationComplete
	if env, ok := r.Output.(map[string]any); ok {
		if ok, present := env["success"].(bool); present {
			r.Success = ok
		}
		if msg, present := env["message"].(string); present {
			r.Message = msg
		}
	}
}
