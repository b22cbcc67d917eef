// Package agui bridges stellarflow runs and the AG-UI protocol.
//
// The agent server speaks AG-UI over server-sent events: requests arrive as
// [RunAgentInput] and every [event.Event] of an agent or workflow run is
// mapped to one AG-UI event by a [Mapper].
//
//	prepared, err := input.Prepare()
//	if err != nil {
//		// ErrNoMessages, or malformed tools
//	}
//	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
//	for ev := range mapper.MapStream(a.RunStream(ctx, prepared.Messages)) {
//		if err := agui.WriteSSE(w, ev); err != nil {
//			return
//		}
//	}
//
// Mapping:
//
//   - RunStart, RunEnd, RunError → RUN_STARTED, RUN_FINISHED, RUN_ERROR
//     (outermost run only)
//   - StepStart, StepEnd → STEP_STARTED, STEP_FINISHED
//   - MessageStart, MessageDelta, MessageEnd → TEXT_MESSAGE_START,
//     TEXT_MESSAGE_CONTENT, TEXT_MESSAGE_END
//   - ToolCallStart, ToolCallArgs, ToolCallEnd, ToolCallResult →
//     TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END, TOOL_CALL_RESULT
//
// A Mapper belongs to a single run and is not safe for concurrent use.
//
// [event.Event]: github.com/stellar-agentkit/stellarflow/event.Event
package agui
