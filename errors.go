package stellarflow

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrEmptyInput is returned by providers when a request has no messages.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory tells callers whether a failed model or agent call is
// worth retrying.
type ErrorCategory string

const (
	// ErrorTransient covers rate limits, overloads and 5xx answers.
	ErrorTransient ErrorCategory = "transient"
	// ErrorPermanent covers bad keys, missing permissions and unknown models.
	ErrorPermanent ErrorCategory = "permanent"
	// ErrorUserInput means the request itself was rejected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is implemented by errors that carry a category and the
// upstream status. The retry package relies on it.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is the CategorizedError returned by providers and the gateway.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // upstream HTTP status, 0 if none
	RetryDelay time.Duration // Retry-After, 0 if none
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause == nil || e.Cause.Error() == e.Msg {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
}

func (e *Error) Unwrap() error             { return e.Cause }
func (e *Error) Category() ErrorCategory   { return e.Cat }
func (e *Error) Retryable() bool           { return e.Cat == ErrorTransient }
func (e *Error) StatusCode() int           { return e.Code }
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry is NewTransientError with a Retry-After hint.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	e := NewTransientError(msg, statusCode, cause)
	e.RetryDelay = retryAfter
	return e
}

func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// CategorizeStatus maps an upstream HTTP status onto a category: 429 and
// 5xx are transient, 400/404/422 are input errors, the rest permanent.
func CategorizeStatus(code int) ErrorCategory {
	switch {
	case code == http.StatusTooManyRequests, code >= 500 && code < 600:
		return ErrorTransient
	case code == http.StatusBadRequest, code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
		return ErrorUserInput
	}
	return ErrorPermanent
}

// NewStatusError builds an error categorized by CategorizeStatus.
func NewStatusError(msg string, code int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: CategorizeStatus(code), Code: code, RetryDelay: retryAfter, Cause: cause}
}

// categorized finds the first CategorizedError in err's chain.
func categorized(err error) (CategorizedError, bool) {
	var ce CategorizedError
	ok := errors.As(err, &ce)
	return ce, ok
}

func IsTransient(err error) bool { return categoryOf(err) == ErrorTransient }
func IsPermanent(err error) bool { return categoryOf(err) == ErrorPermanent }
func IsUserInput(err error) bool { return categoryOf(err) == ErrorUserInput }

func categoryOf(err error) ErrorCategory {
	if ce, ok := categorized(err); ok {
		return ce.Category()
	}
	return ""
}

// StatusCodeOf returns the upstream status carried by err, or 0.
func StatusCodeOf(err error) int {
	if ce, ok := categorized(err); ok {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the Retry-After hint carried by err, or 0.
func RetryAfterOf(err error) time.Duration {
	if ce, ok := categorized(err); ok {
		return ce.RetryAfter()
	}
	return 0
}
