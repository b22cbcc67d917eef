// Package agent runs the tool-calling loop behind the Stellar agent.
//
// An agent sends the conversation to the model, executes the tools it asks
// for, feeds the results back and repeats until the model answers without
// tool calls or a limit is reached.
//
// # Basic Usage
//
//	registry := tool.NewRegistry().Add(stellar.Tools(ts)...)
//
//	a := agent.New(agent.Info{ID: "stellarAgent", Name: "Stellar Agent"}, client, registry,
//	    agent.WithInstructions(instructions),
//	    agent.WithMaxSteps(10),
//	)
//
//	result, err := a.Run(ctx, messages)
//	fmt.Println(result.Response.Content)
//
// # Streaming Events
//
// RunStream returns the run's lifecycle as [event.Event] values:
// RunStart, then per step StepStart, the streamed message events, the tool
// call events and StepEnd, then RunEnd or RunError. Events are never
// dropped; callers must drain the channel.
//
// # Client Tools
//
// Tools supplied by the frontend for a single run have no handler. When
// the model calls one, the run ends with TerminationClientToolCall and the
// calls in Result.PendingToolCalls; the frontend executes them and sends
// the results with its next request.
//
//	a.RunStream(ctx, msgs, agent.WithClientTools(input.Tools...))
//
// # Memory
//
// With a memory store and a thread id, earlier messages of the thread are
// loaded before the run and the final history is saved after it.
//
//	a.Run(ctx, msgs, agent.WithMemory(store), agent.WithThreadID("thread-1"))
package agent
