package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/stellar-agentkit/stellarflow/event"
)

// Mapper converts run events to AG-UI events for a single run.
type Mapper struct {
	threadID       string
	runID          string
	initialState   any
	resultSnapshot bool
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithInitialState emits a STATE_SNAPSHOT of state right after RUN_STARTED.
func WithInitialState(state any) MapperOption {
	return func(m *Mapper) { m.initialState = state }
}

// WithResultSnapshot emits the Data of the final RunEnd event as a
// STATE_SNAPSHOT before RUN_FINISHED. Workflow streams use it to deliver
// the run result.
func WithResultSnapshot() MapperOption {
	return func(m *Mapper) { m.resultSnapshot = true }
}

// NewMapper creates a mapper. Empty ids are generated.
func NewMapper(threadID, runID string, opts ...MapperOption) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	m := &Mapper{threadID: threadID, runID: runID}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ThreadID returns the thread id used in lifecycle events.
func (m *Mapper) ThreadID() string { return m.threadID }

// RunID returns the run id used in lifecycle events.
func (m *Mapper) RunID() string { return m.runID }

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts one event. It returns nil for events without an AG-UI
// counterpart.
func (m *Mapper) MapEvent(e event.Event) events.Event {
	switch e.Type {
	case event.RunStart:
		return m.RunStarted()
	case event.RunEnd:
		return m.RunFinished()
	case event.RunError:
		return m.RunError(e.Error)

	case event.StepStart:
		return events.NewStepStartedEvent(e.StepName)
	case event.StepEnd:
		return events.NewStepFinishedEvent(e.StepName)

	case event.MessageStart:
		return events.NewTextMessageStartEvent(e.MessageID, events.WithRole(RoleAssistant))
	case event.MessageDelta:
		if e.Delta == "" {
			return nil
		}
		return events.NewTextMessageContentEvent(e.MessageID, e.Delta)
	case event.MessageEnd:
		return events.NewTextMessageEndEvent(e.MessageID)

	case event.ToolCallStart:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)
	case event.ToolCallArgs:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallArgsEvent(e.ToolCall.ID, e.ToolCall.Arguments)
	case event.ToolCallEnd:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallEndEvent(e.ToolCall.ID)
	case event.ToolCallResult:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		return events.NewToolCallResultEvent(events.GenerateMessageID(), e.ToolCall.ID, e.ToolResult.Content)
	}
	return nil
}

// MapStream maps every event of in until it is closed. Lifecycle events of
// nested runs are dropped so the client sees exactly one RUN_STARTED and
// one terminal event.
func (m *Mapper) MapStream(in <-chan event.Event) <-chan events.Event {
	out := make(chan events.Event)
	go func() {
		defer close(out)
		depth := 0
		for e := range in {
			switch e.Type {
			case event.RunStart:
				depth++
				if depth > 1 {
					continue
				}
				out <- m.RunStarted()
				if m.initialState != nil {
					out <- events.NewStateSnapshotEvent(m.initialState)
				}
				continue
			case event.RunEnd, event.RunError:
				depth--
				if depth > 0 {
					continue
				}
				if e.Type == event.RunEnd && m.resultSnapshot && e.Data != nil {
					out <- events.NewStateSnapshotEvent(e.Data)
				}
			}
			if ev := m.MapEvent(e); ev != nil {
				out <- ev
			}
		}
	}()
	return out
}
