package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/schema"
)

type registeredTool struct {
	tool     ai.Tool
	handler  Handler
	isClient bool
}

// Registry holds tool definitions and their handlers. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool and its handler.
func (r *Registry) Register(tool ai.Tool, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("tool: %s: nil handler", tool.Name)
	}
	return r.add(registeredTool{tool: tool, handler: handler})
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool ai.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// RegisterClientTool registers a definition without a handler. Calls to it
// are returned to the caller for execution in the frontend.
func (r *Registry) RegisterClientTool(tool ai.Tool) error {
	return r.add(registeredTool{tool: tool, isClient: true})
}

// RegisterClientTools registers several client tools, stopping at the
// first error.
func (r *Registry) RegisterClientTools(tools []ai.Tool) error {
	for _, t := range tools {
		if err := r.RegisterClientTool(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) add(rt registeredTool) error {
	if rt.tool.Name == "" {
		return fmt.Errorf("tool: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[rt.tool.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: rt.tool.Name}
	}
	r.tools[rt.tool.Name] = rt
	return nil
}

// IsClientTool reports whether name is a registered client tool.
func (r *Registry) IsClientTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	return ok && rt.isClient
}

// ClientToolNames returns the sorted names of the client tools.
func (r *Registry) ClientToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, rt := range r.tools {
		if rt.isClient {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Unregister removes a tool. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the handler of a server-side tool.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok || rt.isClient {
		return nil, false
	}
	return rt.handler, true
}

// GetTool returns a tool definition.
func (r *Registry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	return rt.tool, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Tools returns every definition sorted by name, ready to pass to a model.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]ai.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	slices.SortFunc(tools, func(a, b ai.Tool) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return tools
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clone returns an independent copy, so per-run client tools can be added
// without touching the shared registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for name, rt := range r.tools {
		c.tools[name] = rt
	}
	return c
}

// Execute runs the handler for call. Unknown tools and client tools return
// an error. Handler failures, including invalid arguments and panics, come
// back as results with IsError set so the model can recover.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (res ai.ToolResult, err error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}
	if rt.isClient {
		return ai.ToolResult{}, &ErrClientTool{Name: call.Name}
	}

	defer func() {
		if p := recover(); p != nil {
			res = ai.ToolResult{
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("tool %s panicked: %v", call.Name, p),
				IsError:    true,
			}
			err = nil
		}
	}()

	content, herr := rt.handler(ctx, call)
	if herr != nil {
		return ai.ToolResult{ToolCallID: call.ID, Content: herr.Error(), IsError: true}, nil
	}
	return ai.ToolResult{ToolCallID: call.ID, Content: content}, nil
}

// Registration pairs a definition with its handler for Add.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

// Func binds a typed handler to a parameter schema. Arguments are
// validated against params, defaults applied, then decoded into T. A nil
// params accepts any object. It panics if params is inconsistent.
func Func[T any](name, description string, params schema.Builder, fn TypedHandler[T]) Registration {
	var (
		shape *schema.Shape
		raw   json.RawMessage = json.RawMessage(`{"type":"object"}`)
	)
	if params != nil {
		shape = schema.MustCompile(params)
		raw = shape.JSON()
	}
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
		args, err := decodeArgs[T](shape, call.Arguments)
		if err != nil {
			return "", &ErrInvalidArguments{Name: name, Err: err}
		}
		return fn(ctx, args)
	}
	return Registration{
		Tool:    ai.Tool{Name: name, Description: description, Parameters: raw},
		Handler: handler,
	}
}

func decodeArgs[T any](shape *schema.Shape, arguments string) (T, error) {
	var zero T
	if arguments == "" {
		arguments = "{}"
	}
	var v any
	if err := json.Unmarshal([]byte(arguments), &v); err != nil {
		return zero, err
	}
	return schema.Decode[T](shape, v)
}

// WithHandler creates a Registration from a raw schema and handler.
func WithHandler(name, description string, parameters json.RawMessage, h Handler) Registration {
	return Registration{
		Tool:    ai.Tool{Name: name, Description: description, Parameters: parameters},
		Handler: h,
	}
}

// WithTool creates a Registration from an existing definition.
func WithTool(t ai.Tool, h Handler) Registration {
	return Registration{Tool: t, Handler: h}
}

// Add registers each registration and returns the registry for chaining.
// It panics on duplicates.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}

// RegisterAll registers the registrations, stopping at the first error.
func RegisterAll(r *Registry, regs []Registration) error {
	for _, reg := range regs {
		if err := r.Register(reg.Tool, reg.Handler); err != nil {
			return err
		}
	}
	return nil
}
