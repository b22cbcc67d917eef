// Package schema builds JSON Schema documents with a fluent API and
// validates values against them.
//
// Builders describe tool parameters and the input and output contracts of
// workflow steps:
//
//	in := schema.Object().
//		Field("network", schema.String().Enum("testnet", "mainnet").Default("testnet")).
//		Field("publicKey", schema.String().MinLength(56).Required())
//
// Build serializes a builder for a model provider. Compile turns it into a
// Shape that validates values:
//
//	shape := schema.MustCompile(in)
//	v, err := shape.Validate(map[string]any{"publicKey": "G..."})
//	// v["network"] == "testnet"
//
// Validation errors are *ValidationError values listing every issue by
// field path. The ordering is stable, so the same input always yields the
// same message.
package schema
