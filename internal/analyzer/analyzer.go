// Package analyzer is the HTTP client for the sentiment analysis service.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/httpclient"
)

// ErrUnavailable indicates the sentiment service is unreachable.
var ErrUnavailable = errors.New("sentiment service unavailable")

// Degraded fallback scores used when the analyzer cannot be reached. The
// zero confidence routes the headline through the low-confidence skip.
const (
	degradedPositive = 33
	degradedNeutral  = 34
	degradedNegative = 33
)

// Client calls the sentiment analysis service.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a sentiment client on top of the shared HTTP client.
func NewClient(baseURL string, http *httpclient.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Positive   float64 `json:"positive"`
	Neutral    float64 `json:"neutral"`
	Negative   float64 `json:"negative"`
	Confidence float64 `json:"confidence"`
}

// Analyze scores one headline. Scores come back as percentages in [0, 100].
func (c *Client) Analyze(ctx context.Context, title string) (domain.SentimentResult, error) {
	var resp analyzeResponse
	err := c.http.PostJSON(ctx, c.baseURL+"/analyze", nil, analyzeRequest{Text: title}, &resp)
	if err != nil {
		return domain.SentimentResult{}, fmt.Errorf("analyze sentiment: %w", err)
	}

	return domain.SentimentResult{
		Positive:   clampScore(resp.Positive),
		Neutral:    clampScore(resp.Neutral),
		Negative:   clampScore(resp.Negative),
		Confidence: clampScore(resp.Confidence),
	}, nil
}

// Health checks the sentiment service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.http.GetJSON(ctx, c.baseURL+"/health", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// DegradedResult is the neutral substitute used when analysis fails. Its
// confidence is zero so downstream classification skips the headline.
func DegradedResult() domain.SentimentResult {
	return domain.SentimentResult{
		Positive:   degradedPositive,
		Neutral:    degradedNeutral,
		Negative:   degradedNegative,
		Confidence: 0,
		Degraded:   true,
	}
}

// Noop is the analyzer used when no sentiment service is configured. Every
// headline gets the zero-confidence degraded result and is skipped by the
// classifier.
type Noop struct{}

// Analyze implements the same contract as Client.Analyze.
func (Noop) Analyze(context.Context, string) (domain.SentimentResult, error) {
	return DegradedResult(), nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
