package httpclient

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying terminal call failures.
var (
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork indicates a transport-level failure before a response arrived.
	ErrNetwork = errors.New("network error")
	// ErrInvalidResponse indicates the response body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response body")
)

// UpstreamError is a non-2xx status from the upstream service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// Retryable reports whether the status is worth another attempt.
// Server-side failures are transient; client errors are not.
func (e *UpstreamError) Retryable() bool {
	return e.Status >= 500
}

// isRetryable is the retry predicate for outbound calls: timeouts, network
// failures, and 5xx responses retry; everything else fails fast.
func isRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}
