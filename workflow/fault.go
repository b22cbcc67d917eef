package workflow

import (
	"errors"
	"fmt"

	"github.com/stellar-agentkit/stellarflow/schema"
	"github.com/stellar-agentkit/stellarflow/stream"
)

// FaultKind classifies a workflow failure.
type FaultKind string

const (
	// InvalidInput: a value did not satisfy a workflow or step shape.
	InvalidInput FaultKind = "invalid_input"

	// StepExecution: step logic or an external call failed.
	StepExecution FaultKind = "step_execution"

	// StreamInterrupted: a generation stream ended abnormally. The fault
	// carries the partial text.
	StreamInterrupted FaultKind = "stream_interrupted"

	// NotCommitted: a workflow was run before Commit. Raised as a panic.
	NotCommitted FaultKind = "not_committed"
)

// Sentinels matched by errors.Is against a *Fault of the same kind.
var (
	ErrInvalidInput      = errors.New("workflow: invalid input")
	ErrStepExecution     = errors.New("workflow: step execution failed")
	ErrStreamInterrupted = errors.New("workflow: stream interrupted")
	ErrNotCommitted      = errors.New("workflow: not committed")
)

var (
	// ErrAlreadyCommitted is returned by a second call to Commit.
	ErrAlreadyCommitted = errors.New("workflow: already committed")

	// ErrNoSteps is returned when committing a workflow without steps.
	ErrNoSteps = errors.New("workflow: no steps")

	// ErrIncompatibleSteps is returned by Commit when adjacent shapes cannot
	// be chained.
	ErrIncompatibleSteps = errors.New("workflow: incompatible step shapes")

	// ErrWorkflowNotFound is returned by the registry for unknown ids.
	ErrWorkflowNotFound = errors.New("workflow: not found")
)

// Fault is the structured failure of a step or a workflow run. Faults are
// values: steps return them and Run reports them, and no other error type
// crosses a step boundary.
type Fault struct {
	Kind FaultKind `json:"kind"`
	// Step is the id of the failing step, or "" for the workflow's own
	// input and output checks.
	Step    string `json:"step,omitempty"`
	Message string `json:"message"`
	// Fields lists the offending field paths of an InvalidInput fault.
	Fields []string       `json:"fields,omitempty"`
	Issues []schema.Issue `json:"issues,omitempty"`
	// Partial is the text already streamed when a stream was interrupted.
	Partial string `json:"partial,omitempty"`
	Err     error  `json:"-"`
}

func (f *Fault) Error() string {
	if f.Step != "" {
		return fmt.Sprintf("workflow: step %q: %s: %s", f.Step, f.Kind, f.Message)
	}
	return fmt.Sprintf("workflow: %s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// Is matches the sentinel of the fault's kind.
func (f *Fault) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return f.Kind == InvalidInput
	case ErrStepExecution:
		return f.Kind == StepExecution
	case ErrStreamInterrupted:
		return f.Kind == StreamInterrupted
	case ErrNotCommitted:
		return f.Kind == NotCommitted
	}
	return false
}

// invalidInput builds an InvalidInput fault from a validation error.
func invalidInput(step, what string, err error) *Fault {
	f := &Fault{Kind: InvalidInput, Step: step, Message: what + ": " + err.Error(), Err: err}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		f.Fields = verr.Fields()
		f.Issues = verr.Issues
	}
	return f
}

// AsFault converts err into a fault attributed to step. An existing fault
// keeps its kind and is attributed only if it has no step yet, so a fault
// is never wrapped twice.
func AsFault(step string, err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		if f.Step != "" || step == "" {
			return f
		}
		attributed := *f
		attributed.Step = step
		return &attributed
	}
	var ierr *stream.InterruptedError
	if errors.As(err, &ierr) {
		return &Fault{Kind: StreamInterrupted, Step: step, Message: err.Error(), Partial: ierr.Partial, Err: err}
	}
	return &Fault{Kind: StepExecution, Step: step, Message: err.Error(), Err: err}
}
