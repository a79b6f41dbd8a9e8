package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNoJSONFound is returned when a reply contains no {...} block.
var ErrNoJSONFound = errors.New("no JSON found in LLM response")

// NoJSONFoundError carries a preview of the offending reply.
type NoJSONFoundError struct {
	Preview string
}

func (e *NoJSONFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoJSONFound.Error(), e.Preview)
}

func (e *NoJSONFoundError) Unwrap() error {
	return ErrNoJSONFound
}

// APICallError represents a failed round-trip to the provider
type APICallError struct {
	Provider   Provider
	Message    string
	StatusCode int
	Cause      error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s API call failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s API call failed: %s", e.Provider, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// Transient reports whether retrying the call may succeed.
// Client errors other than rate limiting are permanent.
func (e *APICallError) Transient() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err is an infrastructure fault eligible for retry
// at the job-runner layer. Malformed output is not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoJSONFound) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APICallError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
