package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ai "github.com/stellar-agentkit/stellarflow"
)

type mockAPIError struct {
	code int
	msg  string
}

func (e *mockAPIError) Error() string   { return e.msg }
func (e *mockAPIError) StatusCode() int { return e.code }

type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

var _ net.Error = (*mockNetError)(nil)

func TestIsTransientStatusCode(t *testing.T) {
	for code, want := range map[int]bool{200: false, 400: false, 401: false, 404: false, 429: true, 500: true, 503: true, 504: true} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			assert.Equal(t, want, isTransientStatusCode(code))
			assert.Equal(t, want, IsTransient(&mockAPIError{code: code, msg: "status"}))
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"categorized transient", ai.NewTransientError("overloaded", 529, nil), true},
		{"categorized permanent wins over message", ai.NewPermanentError("rate limit config invalid", 401, nil), false},
		{"wrapped status", fmt.Errorf("chat: %w", &mockAPIError{code: 429, msg: "slow down"}), true},
		{"net timeout", &mockNetError{msg: "i/o", timeout: true}, true},
		{"net non-timeout", &mockNetError{msg: "invalid address"}, false},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"overloaded", errors.New("anthropic: Overloaded"), true},
		{"generic", errors.New("invalid input"), false},
		{"google 503", errors.New("googleapi: Error 503: Service Unavailable"), true},
		{"google 400", errors.New("googleapi: Error 400: Bad Request"), false},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ai.NewTransientErrorWithRetry("limited", 429, 3*time.Second, nil))
	assert.Equal(t, 3*time.Second, RetryAfter(err))
	assert.Zero(t, RetryAfter(errors.New("plain")))
}

func TestGoogleAPIStatus(t *testing.T) {
	assert.Equal(t, 429, googleAPIStatus("googleapi: Error 429: Rate Limit Exceeded"))
	assert.Zero(t, googleAPIStatus("something else"))
}
