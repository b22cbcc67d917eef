// Package workflow runs committed pipelines of schema-validated steps.
//
// A [Step] declares an input and an output [schema.Shape] and executes as a
// function of its validated input. A [Workflow] chains steps under its own
// input and output contracts:
//
//	wf := workflow.New("stellar-workflow", inputSchema, outputSchema).
//		Then(createAccount)
//	if err := wf.Commit(); err != nil {
//		return err
//	}
//	res, err := wf.Run(ctx, map[string]any{"network": "testnet"})
//
// Commit freezes the step sequence and checks statically that each step's
// output can feed the next step's input. Adding steps after Commit panics,
// and so does running a workflow that was never committed.
//
// Run validates the workflow input, then validates and executes each step
// in order, stopping at the first failure, and finally validates the output
// against the workflow's output shape. Failures are reported as *Fault
// values carrying the failing step's id; a panicking step is recovered into
// a fault as well. The *Result returned by Run is never nil.
//
// Steps that stream text write fragments to [RunContext.Sink], which fans
// out to the sinks given with [WithSink] and, for [Workflow.RunStream], to
// the event channel.
package workflow
