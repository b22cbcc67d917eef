// Package tool provides the tool registry shared by agents, the MCP server
// and the ledger.
//
// Tools are registered with a handler, or as client tools that only carry
// a definition and are executed by the frontend. Typed handlers are bound
// to a schema builder, which both describes the parameters to the model and
// validates the arguments before the handler runs:
//
//	type createArgs struct {
//	    Network string `json:"network"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("create_stellar_account", "Create a Stellar account",
//	        schema.Object().Field("network", schema.String().Enum("testnet", "mainnet").Default("testnet")),
//	        func(ctx context.Context, args createArgs) (string, error) {
//	            return create(ctx, args.Network)
//	        }),
//	)
//
// Execute never fails because of a handler: handler errors, invalid
// arguments and panics become results with IsError set, so the model can
// see what went wrong and retry.
package tool
