// Package retry provides a reusable retry policy with exponential backoff
// for transient failures and support for server-provided rate-limit wait
// hints.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when the retry budget is exhausted.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// RateLimitedError indicates the upstream signalled a rate limit. Hint is the
// server-provided wait, zero when the server sent none.
type RateLimitedError struct {
	Hint time.Duration
	Err  error
}

func (e *RateLimitedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited (hint %s): %v", e.Hint, e.Err)
	}
	return fmt.Sprintf("rate limited (hint %s)", e.Hint)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// AsRateLimited unwraps err to a *RateLimitedError if one is in the chain.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64
	// DefaultRateLimitWait is used when a rate-limit error carries no hint.
	DefaultRateLimitWait time.Duration
	// MaxRateLimitWait clamps any server-provided wait hint.
	MaxRateLimitWait time.Duration
	// IsRetryable determines if an error should be retried. Rate-limit
	// errors are always retried regardless of this predicate.
	IsRetryable func(error) bool
}

// Retry defaults.
const (
	defaultMaxAttempts      = 3
	defaultInitialDelay     = 100 * time.Millisecond
	defaultMaxDelay         = 30 * time.Second
	defaultMultiplier       = 2.0
	defaultRateLimitWait    = 60 * time.Second
	defaultMaxRateLimitWait = 300 * time.Second
)

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          defaultMaxAttempts,
		InitialDelay:         defaultInitialDelay,
		MaxDelay:             defaultMaxDelay,
		Multiplier:           defaultMultiplier,
		DefaultRateLimitWait: defaultRateLimitWait,
		MaxRateLimitWait:     defaultMaxRateLimitWait,
		IsRetryable:          DefaultIsRetryable,
	}
}

// DefaultIsRetryable returns true for timeouts and transport-level failures,
// matched on common error text patterns.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

func (c *Config) setDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = defaultMultiplier
	}
	if c.DefaultRateLimitWait <= 0 {
		c.DefaultRateLimitWait = defaultRateLimitWait
	}
	if c.MaxRateLimitWait <= 0 {
		c.MaxRateLimitWait = defaultMaxRateLimitWait
	}
	if c.IsRetryable == nil {
		c.IsRetryable = DefaultIsRetryable
	}
}

// Do executes fn with retry logic. Rate-limit errors wait for the server
// hint (or the configured default, clamped to the configured maximum);
// other retryable errors back off exponentially. Both waits are cancellable
// through ctx. Exhausting the budget returns ErrMaxAttemptsExceeded wrapping
// the last underlying cause.
func Do(ctx context.Context, config Config, fn func() error) error {
	config.setDefaults()

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		rl, rateLimited := AsRateLimited(err)
		if !rateLimited && !config.IsRetryable(err) {
			return err
		}

		if attempt >= config.MaxAttempts {
			break
		}

		var wait time.Duration
		if rateLimited {
			wait = rl.Hint
			if wait <= 0 {
				wait = config.DefaultRateLimitWait
			}
			if wait > config.MaxRateLimitWait {
				wait = config.MaxRateLimitWait
			}
		} else {
			wait = time.Duration(float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
			if wait > config.MaxDelay {
				wait = config.MaxDelay
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}

// ParseRetryAfter reads a Retry-After header as either delta-seconds or an
// HTTP-date. Returns 0 when absent or unparseable.
func ParseRetryAfter(hdr http.Header) time.Duration {
	v := strings.TrimSpace(hdr.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
