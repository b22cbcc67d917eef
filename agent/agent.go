package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/chat"
	"github.com/stellar-agentkit/stellarflow/event"
	"github.com/stellar-agentkit/stellarflow/tool"
)

// Info identifies an agent to the server and its clients.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Agent orchestrates autonomous tool-calling conversations.
type Agent struct {
	info     Info
	client   chat.Client
	registry *tool.Registry
	defaults []Option
}

// New creates an agent. The options are defaults for every run; per-run
// options override them. A nil registry means no backend tools.
func New(info Info, c chat.Client, registry *tool.Registry, opts ...Option) *Agent {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Agent{info: info, client: c, registry: registry, defaults: opts}
}

// Info returns the agent's identity.
func (a *Agent) Info() Info { return a.info }

// Registry returns the agent's backend tools.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// Run executes the agent loop and returns the final result.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	var result *Result
	for ev := range a.RunStream(ctx, messages, opts...) {
		if ev.Type != event.RunEnd && ev.Type != event.RunError {
			continue
		}
		if r, ok := ev.Data.(*Result); ok {
			result = r
		}
	}
	if result == nil {
		return nil, ctx.Err()
	}
	return result, result.Error
}

// RunStream executes the agent loop and returns its events. The channel
// is closed after RunEnd or RunError, whose Data holds the *Result.
func (a *Agent) RunStream(ctx context.Context, messages []ai.Message, opts ...Option) <-chan event.Event {
	ch := make(chan event.Event)
	options := ApplyOptions(append(slices.Clone(a.defaults), opts...)...)
	go a.run(ctx, messages, options, ch)
	return ch
}

type runState struct {
	ctx     context.Context // caller context; events are delivered on it
	ch      chan<- event.Event
	opts    *Options
	reg     *tool.Registry
	result  *Result
	history []ai.Message
}

func (s *runState) send(e event.Event) {
	event.Send(s.ctx, s.ch, e)
}

func (a *Agent) run(parent context.Context, messages []ai.Message, opts *Options, ch chan<- event.Event) {
	defer close(ch)

	ctx := parent
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, opts.Timeout)
		defer cancel()
	}

	logger := opts.Logger.With("agent", a.info.ID)
	if opts.ThreadID != "" {
		logger = logger.With("thread_id", opts.ThreadID)
	}
	started := time.Now()

	s := &runState{ctx: parent, ch: ch, opts: opts, result: &Result{}}
	s.send(event.Event{Type: event.RunStart})

	reason, err := a.loop(ctx, s, messages)
	s.result.Termination = reason
	s.result.Messages = s.history
	s.result.Error = err

	if opts.Memory != nil && opts.ThreadID != "" && len(s.history) > 0 {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 10*time.Second)
		if serr := opts.Memory.Save(saveCtx, opts.ThreadID, s.history); serr != nil {
			logger.Warn("failed to save thread history", "error", serr)
		}
		cancel()
	}

	logger.Info("agent run finished",
		"termination", reason,
		"steps", s.result.Steps,
		"input_tokens", s.result.TotalUsage.InputTokens,
		"output_tokens", s.result.TotalUsage.OutputTokens,
		"duration_ms", time.Since(started).Milliseconds())

	if err != nil {
		s.send(event.Event{Type: event.RunError, Step: s.result.Steps, Error: err, Message: string(reason), Data: s.result})
		return
	}
	s.send(event.Event{
		Type:             event.RunEnd,
		Step:             s.result.Steps,
		Response:         s.result.Response,
		Message:          string(reason),
		PendingToolCalls: s.result.PendingToolCalls,
		Data:             s.result,
	})
}

func (a *Agent) loop(ctx context.Context, s *runState, messages []ai.Message) (TerminationReason, error) {
	history, err := a.prepareHistory(ctx, messages, s.opts)
	if err != nil {
		return TerminationError, err
	}
	s.history = history
	if len(nonSystem(history)) == 0 {
		return TerminationError, ErrNoMessages
	}

	s.reg = a.registry
	if len(s.opts.ClientTools) > 0 {
		s.reg = a.registry.Clone()
		for _, t := range s.opts.ClientTools {
			if s.reg.Has(t.Name) {
				s.opts.Logger.Warn("client tool shadows a backend tool; ignoring it", "tool", t.Name)
				continue
			}
			if err := s.reg.RegisterClientTool(t); err != nil {
				return TerminationError, err
			}
		}
	}

	chatOpts := slices.Clone(s.opts.ChatOptions)
	if tools := s.reg.Tools(); len(tools) > 0 {
		chatOpts = append([]ai.Option{ai.WithTools(tools...)}, chatOpts...)
	}

	for step := 1; ; step++ {
		if reason := checkTermination(ctx, step, s.opts); reason != "" {
			return reason, nil
		}
		s.result.Steps = step
		stepName := fmt.Sprintf("step-%d", step)
		s.send(event.Event{Type: event.StepStart, Step: step, StepName: stepName})

		resp, err := a.executeStep(ctx, s, step, chatOpts)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
				return TerminationTimeout, nil
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				return TerminationCancelled, nil
			}
			return TerminationError, err
		}
		s.result.Response = resp
		s.result.TotalUsage = s.result.TotalUsage.Add(resp.Usage)
		s.send(event.Event{Type: event.StepEnd, Step: step, StepName: stepName, Response: resp})

		if len(resp.ToolCalls) == 0 {
			s.history = append(s.history, ai.Message{ID: ai.GenerateMessageID(), Role: ai.RoleAssistant, Content: resp.Content})
			if s.opts.StopPredicate != nil && s.opts.StopPredicate(step, resp) {
				return TerminationCustom, nil
			}
			return TerminationComplete, nil
		}

		s.history = append(s.history, ai.Message{
			ID:        ai.GenerateMessageID(),
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		outcome := a.processToolCalls(ctx, s, step, resp.ToolCalls)
		if len(outcome.results) > 0 {
			s.history = append(s.history, ai.NewToolResultMessage(outcome.results...))
		}
		if len(outcome.pending) > 0 {
			s.result.PendingToolCalls = outcome.pending
			return TerminationClientToolCall, nil
		}
		if outcome.allRejected {
			return TerminationRejected, nil
		}
		if s.opts.StopPredicate != nil && s.opts.StopPredicate(step, resp) {
			return TerminationCustom, nil
		}
	}
}

// prepareHistory loads the thread, appends the incoming messages not
// already stored (matched by id) and puts the instructions first.
func (a *Agent) prepareHistory(ctx context.Context, messages []ai.Message, opts *Options) ([]ai.Message, error) {
	var history []ai.Message
	if opts.Memory != nil && opts.ThreadID != "" {
		stored, err := opts.Memory.Messages(ctx, opts.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("agent: load thread %s: %w", opts.ThreadID, err)
		}
		history = nonSystem(stored)
	}
	seen := make(map[string]bool, len(history))
	for _, m := range history {
		if m.ID != "" {
			seen[m.ID] = true
		}
	}
	var system []ai.Message
	for _, m := range messages {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		if m.Role == ai.RoleSystem {
			system = append(system, m)
			continue
		}
		history = append(history, m)
	}

	if len(system) == 0 && opts.Instructions != "" {
		system = []ai.Message{{Role: ai.RoleSystem, Content: opts.Instructions}}
	}
	return append(system, history...), nil
}

func nonSystem(msgs []ai.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != ai.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// executeStep streams one model call, forwarding its message events under
// a step-scoped message id.
func (a *Agent) executeStep(ctx context.Context, s *runState, step int, chatOpts []ai.Option) (*ai.Response, error) {
	stream, err := a.client.ChatStream(ctx, s.history, chatOpts...)
	if err != nil {
		return nil, err
	}

	messageID := ai.GenerateMessageID()
	started := false
	start := func() {
		if !started {
			started = true
			s.send(event.Event{Type: event.MessageStart, Step: step, MessageID: messageID})
		}
	}

	var response *ai.Response
	for ev := range stream {
		switch ev.Type {
		case event.RunError:
			go event.Drain(stream)
			return nil, ev.Error
		case event.MessageStart:
			start()
		case event.MessageDelta:
			start()
			s.send(event.Event{Type: event.MessageDelta, Step: step, MessageID: messageID, Delta: ev.Delta})
		case event.MessageEnd:
			response = ev.Response
			if response != nil && (response.Content != "" || started) {
				start()
				s.send(event.Event{Type: event.MessageEnd, Step: step, MessageID: messageID, Response: response})
			}
		}
	}
	if response == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New("agent: model stream ended without a response")
	}
	return response, nil
}

type toolOutcome struct {
	results     []ai.ToolResult
	pending     []ai.ToolCall
	allRejected bool
}

func (a *Agent) processToolCalls(ctx context.Context, s *runState, step int, calls []ai.ToolCall) toolOutcome {
	var (
		out      toolOutcome
		approved []ai.ToolCall
		slots    = make([]*ai.ToolResult, len(calls))
		indexes  []int
	)

	for i := range calls {
		tc := calls[i]
		s.send(event.Event{Type: event.ToolCallStart, Step: step, ToolCall: &tc})
		s.send(event.Event{Type: event.ToolCallArgs, Step: step, ToolCall: &tc})

		if s.reg.IsClientTool(tc.Name) {
			s.send(event.Event{Type: event.ToolCallEnd, Step: step, ToolCall: &tc})
			out.pending = append(out.pending, tc)
			continue
		}
		if ok, reason := approve(ctx, s.opts, tc); !ok {
			if reason == "" {
				reason = "Tool call rejected"
			}
			res := ai.ToolResult{ToolCallID: tc.ID, Content: reason, IsError: true}
			slots[i] = &res
			s.send(event.Event{Type: event.ToolCallEnd, Step: step, ToolCall: &tc})
			s.send(event.Event{Type: event.ToolCallResult, Step: step, ToolCall: &tc, ToolResult: &res, Message: "rejected"})
			continue
		}
		approved = append(approved, tc)
		indexes = append(indexes, i)
	}

	if len(approved) == 0 && len(out.pending) == 0 {
		out.allRejected = true
	}

	executed := make([]ai.ToolResult, len(approved))
	if s.opts.ParallelToolCalls && len(approved) > 1 {
		var wg sync.WaitGroup
		for i, tc := range approved {
			wg.Add(1)
			go func(i int, tc ai.ToolCall) {
				defer wg.Done()
				executed[i] = a.executeToolCall(ctx, s, step, tc)
			}(i, tc)
		}
		wg.Wait()
	} else {
		for i, tc := range approved {
			executed[i] = a.executeToolCall(ctx, s, step, tc)
		}
	}
	for j, i := range indexes {
		slots[i] = &executed[j]
	}

	for _, r := range slots {
		if r != nil {
			out.results = append(out.results, *r)
		}
	}
	return out
}

func approve(ctx context.Context, opts *Options, tc ai.ToolCall) (bool, string) {
	if opts.Approver == nil {
		return true, ""
	}
	if len(opts.ApprovalRequired) > 0 && !slices.Contains(opts.ApprovalRequired, tc.Name) {
		return true, ""
	}
	return opts.Approver(ctx, tc)
}

func (a *Agent) executeToolCall(ctx context.Context, s *runState, step int, tc ai.ToolCall) ai.ToolResult {
	execCtx := ctx
	if s.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.opts.HandlerTimeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.reg.Execute(execCtx, tc)
	if err != nil {
		result = ai.ToolResult{ToolCallID: tc.ID, Content: err.Error(), IsError: true}
	}
	s.opts.Logger.Debug("tool call finished",
		"tool", tc.Name,
		"is_error", result.IsError,
		"duration_ms", time.Since(started).Milliseconds())

	s.send(event.Event{Type: event.ToolCallEnd, Step: step, ToolCall: &tc})
	s.send(event.Event{Type: event.ToolCallResult, Step: step, ToolCall: &tc, ToolResult: &result})
	return result
}

func checkTermination(ctx context.Context, step int, opts *Options) TerminationReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return TerminationTimeout
	case context.Canceled:
		return TerminationCancelled
	}
	if opts.MaxSteps > 0 && step > opts.MaxSteps {
		return TerminationMaxSteps
	}
	return ""
}
