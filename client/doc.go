// Package client provides the chat client the agents and workflows use.
//
// A Client wraps one provider adapter, chosen by name in its Config, and
// adds:
//
//   - Default options: model, max tokens and temperature
//   - Automatic retries with exponential backoff for transient errors
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: client.ProviderAnthropic,
//	    APIKeys:  client.APIKeys{Anthropic: os.Getenv("ANTHROPIC_API_KEY")},
//	    Model:    anthropic.ClaudeSonnet4,
//	})
//
//	resp, err := c.Chat(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "Create a testnet account"},
//	})
//
// Per-request options override the configured defaults:
//
//	resp, err := c.Chat(ctx, messages, ai.WithModel(anthropic.ClaudeSonnet35))
//
// # Streaming
//
// ChatStream retries until the provider produces its first event. A
// transient failure reported before any content arrives is retried like a
// failed call; once content has flowed the stream is never restarted.
//
// # Events
//
//	events := make(chan client.Event, 100)
//	c, _ := client.New(ctx, client.Config{..., Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Operation, e.Duration)
//	    }
//	}()
package client
