package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/schema"
)

// Runner is a committed workflow that can be dispatched by id.
// *Workflow implements it.
type Runner interface {
	ID() string
	Description() string
	InputShape() *schema.Shape
	Run(ctx context.Context, input any, opts ...Option) (*Result, error)
	RunStream(ctx context.Context, input any, opts ...Option) <-chan event.Event
}

// Registry stores runners by id for dispatch from servers and tools.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]Runner)}
}

// Register adds runners, replacing any with the same id. Uncommitted
// workflows are rejected with ErrNotCommitted.
func (r *Registry) Register(runners ...Runner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, runner := range runners {
		if wf, ok := runner.(*Workflow); ok && !wf.Committed() {
			return fmt.Errorf("register %q: %w", wf.ID(), ErrNotCommitted)
		}
		r.runners[runner.ID()] = runner
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(runners ...Runner) {
	if err := r.Register(runners...); err != nil {
		panic(err)
	}
}

// Get retrieves a runner by id.
func (r *Registry) Get(id string) (Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[id]
	return runner, ok
}

// Has returns true if a runner with the given id exists.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Names returns all registered ids in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.runners))
	for id := range r.runners {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered runners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runners)
}

// Run executes the workflow with the given id.
func (r *Registry) Run(ctx context.Context, id string, input any, opts ...Option) (*Result, error) {
	runner, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return runner.Run(ctx, input, opts...)
}

// RunStream executes the workflow with the given id. An unknown id yields
// a single RunError event.
func (r *Registry) RunStream(ctx context.Context, id string, input any, opts ...Option) <-chan event.Event {
	runner, ok := r.Get(id)
	if !ok {
		ch := make(chan event.Event, 1)
		event.Emit(ch, event.Event{
			Type:  event.RunError,
			Error: fmt.Errorf("%w: %s", ErrWorkflowNotFound, id),
		})
		close(ch)
		return ch
	}
	return runner.RunStream(ctx, input, opts...)
}
