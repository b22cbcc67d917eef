package client

import (
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before an API request begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after an API request completes successfully.
	// For streams it fires once the stream is established.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when an API request fails for good.
	EventRequestError EventType = "request_error"

	// EventRetry fires before each backoff sleep.
	EventRetry EventType = "retry"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	Type EventType

	// Operation is "chat" or "chat_stream".
	Operation string

	Provider Provider
	Model    string

	// Duration is the elapsed time for completed or failed requests, and
	// the backoff delay for retries.
	Duration time.Duration

	// Attempt is the 1-indexed attempt that failed, for retries.
	Attempt int

	Usage *ai.Usage
	Error error

	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
