// Package stellarflow holds the conversation vocabulary shared by the
// stellarflow packages: messages, responses, tools and categorized errors.
//
// The interesting parts of the module live in sub-packages:
//
//   - [github.com/stellar-agentkit/stellarflow/workflow]: committed,
//     schema-validated step pipelines with structured faults
//   - [github.com/stellar-agentkit/stellarflow/stream]: the stream aggregator
//     that forwards generated fragments to sinks while accumulating them
//   - [github.com/stellar-agentkit/stellarflow/stellar]: the Stellar account
//     steps and workflows
//   - [github.com/stellar-agentkit/stellarflow/agent]: the tool-calling agent
//     served to chat frontends
//   - [github.com/stellar-agentkit/stellarflow/gateway]: the chat gateway
//     that proxies conversations to a remote agent
//
// Packages import this one under the alias ai:
//
//	import ai "github.com/stellar-agentkit/stellarflow"
//
//	msgs := []ai.Message{
//	    {Role: ai.RoleSystem, Content: "You are a Stellar blockchain assistant."},
//	    {Role: ai.RoleUser, Content: "Create a testnet account"},
//	}
//	resp, err := c.Chat(ctx, msgs, ai.WithMaxTokens(1024))
package stellarflow
