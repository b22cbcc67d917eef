// Package stellar holds the Stellar account workflows: the create-account,
// get-account-info and generate-report steps, the pipelines built from
// them, the prompts of the workflow and chat agents, and the tool bindings
// that expose the pipelines to agents and MCP clients.
//
// Ledger access and the language model are injected; nothing in this
// package reads configuration or global state.
package stellar
