package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/schema"
	"github.com/stellar-agentkit/stellarflow/stream"
)

// Workflow is an ordered sequence of steps under input and output shapes.
// It is built with Then and Map, frozen with Commit, and may then be run
// any number of times, concurrently.
type Workflow struct {
	id          string
	description string
	input       *schema.Shape
	output      *schema.Shape

	mu        sync.RWMutex
	steps     []Step
	committed bool
}

// New creates an uncommitted workflow. Nil builders accept any value; an
// inconsistent schema panics.
func New(id string, input, output schema.Builder) *Workflow {
	return &Workflow{
		id:     id,
		input:  compileOrNil(input),
		output: compileOrNil(output),
	}
}

// Describe sets the human-readable description.
func (w *Workflow) Describe(description string) *Workflow {
	w.mustBeOpen("Describe")
	w.description = description
	return w
}

// Then appends a step. It panics after Commit or when the step id is
// already used.
func (w *Workflow) Then(step Step) *Workflow {
	w.mustBeOpen("Then")
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.steps {
		if s.ID() == step.ID() {
			panic(fmt.Sprintf("workflow %q: duplicate step id %q", w.id, step.ID()))
		}
	}
	w.steps = append(w.steps, step)
	return w
}

// MapFunc reshapes the current value, typically by combining outputs of
// earlier steps taken from the run context.
type MapFunc func(ctx context.Context, rc *RunContext, current any) (any, error)

// Map appends a step that accepts any input and produces output.
func (w *Workflow) Map(id string, output schema.Builder, fn MapFunc) *Workflow {
	return w.Then(NewStep(id, "map", nil, output, StepFunc[any, any](fn)))
}

func (w *Workflow) mustBeOpen(op string) {
	if w.Committed() {
		panic(fmt.Sprintf("workflow %q: %s after Commit", w.id, op))
	}
}

// Commit freezes the workflow after checking that the workflow input can
// feed the first step, that each step's output can feed the next one and
// that the last output satisfies the workflow output. It succeeds exactly
// once; later calls return ErrAlreadyCommitted.
func (w *Workflow) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.committed {
		return ErrAlreadyCommitted
	}
	if len(w.steps) == 0 {
		return fmt.Errorf("workflow %q: %w", w.id, ErrNoSteps)
	}

	var errs []error
	check := func(from string, producer *schema.Shape, to string, consumer *schema.Shape) {
		if err := schema.Compatible(producer, consumer); err != nil {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", from, to, err))
		}
	}
	check("input", w.input, w.steps[0].ID(), w.steps[0].InputShape())
	for i := 1; i < len(w.steps); i++ {
		prev, next := w.steps[i-1], w.steps[i]
		check(prev.ID(), prev.OutputShape(), next.ID(), next.InputShape())
	}
	last := w.steps[len(w.steps)-1]
	check(last.ID(), last.OutputShape(), "output", w.output)
	if len(errs) > 0 {
		return fmt.Errorf("workflow %q: %w: %w", w.id, ErrIncompatibleSteps, errors.Join(errs...))
	}

	w.committed = true
	return nil
}

// ID returns the workflow identifier.
func (w *Workflow) ID() string { return w.id }

// Description returns the human-readable description.
func (w *Workflow) Description() string { return w.description }

// InputShape returns the workflow input contract.
func (w *Workflow) InputShape() *schema.Shape { return w.input }

// OutputShape returns the workflow output contract.
func (w *Workflow) OutputShape() *schema.Shape { return w.output }

// Committed reports whether Commit has succeeded.
func (w *Workflow) Committed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.committed
}

// Steps returns the step ids in order.
func (w *Workflow) Steps() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]string, len(w.steps))
	for i, s := range w.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Run executes the workflow on input. The result is never nil; on failure
// err is the *Fault also stored in the result. Running an uncommitted
// workflow is a programming error and panics with a NotCommitted fault.
func (w *Workflow) Run(ctx context.Context, input any, opts ...Option) (*Result, error) {
	w.requireCommitted()
	res := w.run(ctx, input, ApplyOptions(opts...), nil)
	if res.Fault != nil {
		return res, res.Fault
	}
	return res, nil
}

// RunStream executes the workflow and streams its lifecycle: RunStart,
// StepStart and StepEnd per step, MessageStart/MessageDelta/MessageEnd for
// streamed fragments, then RunEnd carrying the *Result, or RunError
// carrying the fault. The channel is closed when the run ends.
func (w *Workflow) RunStream(ctx context.Context, input any, opts ...Option) <-chan event.Event {
	w.requireCommitted()
	ch := event.NewChannel()
	go func() {
		defer close(ch)
		w.run(ctx, input, ApplyOptions(opts...), ch)
	}()
	return ch
}

func (w *Workflow) requireCommitted() {
	if !w.Committed() {
		panic(&Fault{Kind: NotCommitted, Message: fmt.Sprintf("workflow %q run before Commit", w.id)})
	}
}

func (w *Workflow) run(ctx context.Context, input any, o *Options, events chan<- event.Event) *Result {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	runID := o.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := o.Logger.With("workflow", w.id, "run_id", runID)
	rc := NewRunContext(runID, logger, o.Sinks...)
	rc.workflow = w.id

	started := time.Now()
	res := &Result{RunID: runID, Workflow: w.id, StartedAt: started, Steps: []StepRecord{}}
	emit := func(e event.Event) {
		if events != nil && !event.Send(ctx, events, e) {
			event.Emit(events, e)
		}
	}

	emit(event.Event{Type: event.RunStart, StepName: w.id, Message: runID})
	logger.Info("workflow started")

	res.Output, res.Fault = w.execute(ctx, rc, input, o, res, emit)
	res.finish(ctx, started)

	if res.Fault != nil {
		logger.Warn("workflow failed", "step", res.Fault.Step, "kind", res.Fault.Kind, "error", res.Fault.Message, "duration_ms", res.DurationMS)
		emit(event.Event{Type: event.RunError, StepName: res.Fault.Step, Error: res.Fault, Data: res})
	} else {
		logger.Info("workflow completed", "success", res.Success, "duration_ms", res.DurationMS)
		emit(event.Event{Type: event.RunEnd, StepName: w.id, Data: res, Message: string(res.Termination)})
	}

	if o.Store != nil {
		// The caller's context may already be done; the snapshot is still wanted.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := o.Store.SaveRun(saveCtx, res); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}
	return res
}

func (w *Workflow) execute(ctx context.Context, rc *RunContext, input any, o *Options, res *Result, emit func(event.Event)) (any, *Fault) {
	current, err := w.input.Validate(input)
	if err != nil {
		return nil, invalidInput("", "workflow input", err)
	}

	w.mu.RLock()
	steps := w.steps
	w.mu.RUnlock()

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &Fault{Kind: StepExecution, Step: step.ID(), Message: "not started: " + err.Error(), Err: err}
		}

		record, fault := w.executeStep(ctx, rc, step, current, o, emit)
		res.Steps = append(res.Steps, record)
		if fault != nil {
			return nil, fault
		}
		current = record.Output
	}

	out, err := w.output.Validate(current)
	if err != nil {
		return nil, invalidInput("", "workflow output", err)
	}
	return out, nil
}

func (w *Workflow) executeStep(ctx context.Context, rc *RunContext, step Step, input any, o *Options, emit func(event.Event)) (StepRecord, *Fault) {
	stepCtx := ctx
	if o.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, o.StepTimeout)
		defer cancel()
	}

	stepCtx = withStep(stepCtx, rc.RunID(), step.ID())

	logger := rc.Logger().With("step", step.ID())
	emit(event.Event{Type: event.StepStart, StepName: step.ID()})
	started := time.Now()

	msgs := &messageSink{emit: emit, id: rc.RunID() + ":" + step.ID()}
	stepRC := rc.withSink(msgs)

	out, err := ExecuteStep(stepCtx, stepRC, step, input)
	msgs.end()
	record := StepRecord{ID: step.ID(), DurationMS: time.Since(started).Milliseconds()}

	if err != nil {
		fault := AsFault(step.ID(), err)
		record.Status = StepFailed
		logger.Warn("step failed", "kind", fault.Kind, "error", fault.Message, "duration_ms", record.DurationMS)
		return record, fault
	}

	rc.record(step.ID(), out)
	record.Status = StepSucceeded
	record.Output = out
	logger.Info("step completed", "duration_ms", record.DurationMS)
	emit(event.Event{Type: event.StepEnd, StepName: step.ID(), Data: out})
	if o.OnStepComplete != nil {
		o.OnStepComplete(record)
	}
	return record, nil
}

// messageSink turns a step's fragments into one assistant message on the
// event stream.
type messageSink struct {
	emit    func(event.Event)
	id      string
	started bool
}

func (m *messageSink) Write(_ context.Context, f stream.Fragment) error {
	if !m.started {
		m.started = true
		m.emit(event.Event{Type: event.MessageStart, MessageID: m.id})
	}
	m.emit(event.Event{Type: event.MessageDelta, MessageID: m.id, Delta: f.Text})
	return nil
}

func (m *messageSink) end() {
	if m.started {
		m.emit(event.Event{Type: event.MessageEnd, MessageID: m.id})
	}
}
