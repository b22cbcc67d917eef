package agent

import "errors"

// ErrNoMessages is returned when a run has nothing to respond to.
var ErrNoMessages = errors.New("agent: no messages")
