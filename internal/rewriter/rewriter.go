// Package rewriter generates rewritten headlines through an OpenAI-compatible
// chat completions endpoint.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/httpclient"
)

var (
	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("rewriter returned empty response")
)

const systemPrompt = "You rewrite news headlines. Respond with the rewritten headline only, " +
	"no quotes, no labels, no explanation. Keep it under 15 words and factually faithful " +
	"to the original."

// Tone-specific instructions sent as the user message.
const (
	calmFactualInstruction = "Rewrite this headline in a calm, factual tone. Remove sensational " +
		"or alarmist language while keeping every fact intact."
	balancedPositiveInstruction = "Rewrite this headline with a balanced, constructive framing. " +
		"Keep the facts but present them without negativity bias."
)

// defaultMaxTokens caps the model reply; headlines are short.
const defaultMaxTokens = 60

// Client generates headline rewrites.
type Client struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	http      *httpclient.Client
}

// Config configures the rewriter client.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
}

// NewClient creates a rewriter client on top of the shared HTTP client.
func NewClient(cfg Config, http *httpclient.Client) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		http:      http,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rewrite generates a new title for the headline in the requested tone.
// An empty or all-noise model reply returns ErrEmptyResponse so the caller
// can fall back to the original title.
func (c *Client) Rewrite(ctx context.Context, title string, tone domain.Tone) (domain.RewriteResult, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: instructionFor(tone) + "\n\nHeadline: " + title},
		},
		Temperature: 0.7,
		MaxTokens:   c.maxTokens,
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp chatResponse
	if err := c.http.PostJSON(ctx, c.endpoint+"/chat/completions", headers, req, &resp); err != nil {
		return domain.RewriteResult{}, fmt.Errorf("rewrite headline: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.RewriteResult{}, ErrEmptyResponse
	}

	cleaned := CleanTitle(resp.Choices[0].Message.Content)
	if cleaned == "" {
		return domain.RewriteResult{}, ErrEmptyResponse
	}

	return domain.RewriteResult{Title: cleaned, Model: resp.Model}, nil
}

func instructionFor(tone domain.Tone) string {
	if tone == domain.ToneBalancedPositive {
		return balancedPositiveInstruction
	}
	return calmFactualInstruction
}

// labelPrefixes are boilerplate lead-ins models sometimes prepend despite
// instructions.
var labelPrefixes = []string{
	"rewritten headline:",
	"rewritten:",
	"new headline:",
	"new:",
	"headline:",
}

// CleanTitle strips wrapping quotes, label prefixes, and surrounding
// whitespace from a model reply. Returns "" when nothing survives.
func CleanTitle(raw string) string {
	s := strings.TrimSpace(raw)

	// One label pass, then unquote; prefixes can appear outside the quotes.
	lower := strings.ToLower(s)
	for _, p := range labelPrefixes {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}

	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	return s
}
