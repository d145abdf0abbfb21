// Package httpclient provides the rate-limited JSON client used for every
// outbound call: local pacing through a token bucket, bounded retries with
// exponential backoff, and honoring server rate-limit hints.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/retry"
)

// Transport defaults shared by every outbound client.
const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// maxErrorBodyBytes caps how much of an error response is kept for
	// the error message.
	maxErrorBodyBytes = 512
)

// Recorder receives per-attempt call accounting. Attempts increment the
// call counter; only terminal failures increment the error counter.
type Recorder interface {
	IncAPICalls(n int)
	IncAPIErrors(n int)
}

type nopRecorder struct{}

func (nopRecorder) IncAPICalls(int)  {}
func (nopRecorder) IncAPIErrors(int) {}

// Config configures a rate-limited client.
type Config struct {
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// RequestsPerSecond paces outbound attempts. Zero disables pacing.
	RequestsPerSecond float64
	// Burst is the token bucket size (default 1 when pacing is enabled).
	Burst int
	// Retry configures the backoff policy for transient failures.
	Retry retry.Config
	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// Client is a JSON HTTP client with local pacing and bounded retries.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	retryCfg  retry.Config
	recorder  Recorder
	userAgent string
	log       logger.Logger
}

// New builds a Client. A nil recorder disables call accounting.
func New(cfg Config, log logger.Logger, rec Recorder) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	retryCfg := cfg.Retry
	if retryCfg.IsRetryable == nil {
		retryCfg.IsRetryable = isRetryable
	}

	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        DefaultMaxIdleConns,
				MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
				IdleConnTimeout:     DefaultIdleConnTimeout,
			},
		},
		limiter:   limiter,
		retryCfg:  retryCfg,
		recorder:  rec,
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, headers, nil, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into
// out. A nil out discards the response body.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, headers, payload, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, headers map[string]string, payload []byte, out any) error {
	err := retry.Do(ctx, c.retryCfg, func() error {
		return c.attempt(ctx, method, url, headers, payload, out)
	})
	if err != nil {
		c.recorder.IncAPIErrors(1)
		c.log.Warn("outbound call failed",
			logger.String("method", method),
			logger.String("url", url),
			logger.Error(err))
	}
	return err
}

func (c *Client) attempt(ctx context.Context, method, url string, headers map[string]string, payload []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.recorder.IncAPICalls(1)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // body drained best-effort
		return &retry.RateLimitedError{
			Hint: retry.ParseRetryAfter(resp.Header),
			Err:  &UpstreamError{Status: resp.StatusCode},
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &UpstreamError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // body drained to reuse the connection
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
