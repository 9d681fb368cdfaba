package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// ServiceUnavailableError is returned when a call is rejected because the
// named dependency's circuit breaker is open.
type ServiceUnavailableError struct {
	Dependency string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service unavailable: circuit open for %s", e.Dependency)
}

// IsServiceUnavailable reports whether err carries a ServiceUnavailableError.
func IsServiceUnavailable(err error) bool {
	var sue *ServiceUnavailableError
	return errors.As(err, &sue)
}

// RateLimitError is returned when admission is denied for an actor. The
// RetryAfter hint is derived from the oldest request in the window.
type RateLimitError struct {
	ActorID    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for actor %s, retry after %s", e.ActorID, e.RetryAfter)
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx,
// network timeout) when calling an external prediction dependency.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError marks an error as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
