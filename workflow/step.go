package workflow

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/stellar-agentkit/stellarflow/schema"
)

// Step is a named unit of work with declared input and output shapes.
// Steps are immutable once added to a workflow.
type Step interface {
	// ID returns the step identifier, unique within a workflow.
	ID() string

	Description() string

	// InputShape and OutputShape may return nil to accept any value.
	InputShape() *schema.Shape
	OutputShape() *schema.Shape

	// Execute runs the step on an input that already satisfies InputShape.
	Execute(ctx context.Context, rc *RunContext, input any) (any, error)
}

// StepFunc is the typed body of a step built with NewStep.
type StepFunc[In, Out any] func(ctx context.Context, rc *RunContext, in In) (Out, error)

// TypedStep is a Step whose validated input is decoded into In.
type TypedStep[In, Out any] struct {
	id          string
	description string
	input       *schema.Shape
	output      *schema.Shape
	fn          StepFunc[In, Out]
}

// NewStep creates a step from typed logic. The input and output builders
// are compiled immediately; an inconsistent schema panics. A nil builder
// accepts any value.
func NewStep[In, Out any](id, description string, input, output schema.Builder, fn StepFunc[In, Out]) *TypedStep[In, Out] {
	return &TypedStep[In, Out]{
		id:          id,
		description: description,
		input:       compileOrNil(input),
		output:      compileOrNil(output),
		fn:          fn,
	}
}

func compileOrNil(b schema.Builder) *schema.Shape {
	if b == nil {
		return nil
	}
	return schema.MustCompile(b)
}

func (s *TypedStep[In, Out]) ID() string                 { return s.id }
func (s *TypedStep[In, Out]) Description() string        { return s.description }
func (s *TypedStep[In, Out]) InputShape() *schema.Shape  { return s.input }
func (s *TypedStep[In, Out]) OutputShape() *schema.Shape { return s.output }

// Execute decodes input into In and runs the step logic.
func (s *TypedStep[In, Out]) Execute(ctx context.Context, rc *RunContext, input any) (any, error) {
	in, err := schema.Convert[In](input)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return s.fn(ctx, rc, in)
}

// ExecuteStep runs one step under its contract: the input is validated
// first and the logic does not run if it fails. Errors and panics from the
// logic become faults attributed to the step, and the output is normalized
// against OutputShape. The returned error is always a *Fault.
func ExecuteStep(ctx context.Context, rc *RunContext, step Step, input any) (out any, err error) {
	in, verr := step.InputShape().Validate(input)
	if verr != nil {
		return nil, invalidInput(step.ID(), "input", verr)
	}

	defer func() {
		if r := recover(); r != nil {
			rc.Logger().Error("step panicked", "step", step.ID(), "panic", r, "stack", string(debug.Stack()))
			out, err = nil, &Fault{Kind: StepExecution, Step: step.ID(), Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	raw, execErr := step.Execute(ctx, rc, in)
	if execErr != nil {
		return nil, AsFault(step.ID(), execErr)
	}

	out, verr = step.OutputShape().Validate(raw)
	if verr != nil {
		return nil, &Fault{Kind: StepExecution, Step: step.ID(), Message: "invalid output: " + verr.Error(), Err: verr}
	}
	return out, nil
}
