package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillsoft/paperscope/internal/resilience"
)

// ErrorKind classifies a failed generation call.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate-limited"
	KindServerError ErrorKind = "server-error"
	KindAuthError   ErrorKind = "auth-error"
	KindMalformed   ErrorKind = "malformed"
)

// GenerationError is returned by Gateway.Complete when a call fails for
// good: either every attempt was spent or the failure is not retryable.
type GenerationError struct {
	Kind     ErrorKind
	Attempts int
	// LastRaw holds the last raw response text, when one was received.
	// Empty for failures that produced no response.
	LastRaw string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s) after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ProviderError carries the HTTP status of a failed provider call so the
// gateway can classify it. A zero Status means the failure happened
// before a status was received (network error, context cancellation).
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// malformedError marks a reply that failed shape decoding or validation.
// It is retried like a transient failure.
type malformedError struct {
	raw string
	err error
}

func (e *malformedError) Error() string { return "malformed response: " + e.err.Error() }

func (e *malformedError) Unwrap() error { return e.err }

// classifyKind maps an attempt error to the kind reported to callers.
func classifyKind(err error) ErrorKind {
	var me *malformedError
	if errors.As(err, &me) {
		return KindMalformed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	switch status(err) {
	case 401, 403:
		return KindAuthError
	case 429:
		return KindRateLimited
	}
	return KindServerError
}

// retryable reports whether another attempt could help. Auth failures
// and client-side request errors never retry.
func retryable(err error) bool {
	switch classifyKind(err) {
	case KindMalformed, KindTimeout, KindRateLimited:
		return true
	case KindAuthError:
		return false
	}
	if s := status(err); s > 0 {
		return resilience.IsTransientHTTPStatus(s)
	}
	return resilience.IsTransient(err)
}

func status(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// lastRaw pulls the raw reply out of a malformed attempt error, if any.
func lastRaw(err error) string {
	var me *malformedError
	if errors.As(err, &me) {
		return me.raw
	}
	return ""
}
