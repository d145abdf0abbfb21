// Package domain contains the core domain models shared across the rewrite
// pipeline: articles, sentiment results, classification decisions, and the
// indexed document shape.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is the classifier's verdict for a headline.
type Action string

const (
	// ActionSkip indicates the headline is uploaded unchanged.
	ActionSkip Action = "skip"
	// ActionRewrite indicates the headline is sent to the rewriter.
	ActionRewrite Action = "rewrite"
)

// Tone names the rewrite style requested from the rewriter.
type Tone string

const (
	// ToneCalmFactual strips sensational framing while keeping the facts.
	ToneCalmFactual Tone = "calm_factual"
	// ToneBalancedPositive reframes a negative headline constructively.
	ToneBalancedPositive Tone = "balanced_positive"
)

// Original tone labels recorded on indexed documents.
const (
	// OriginalTonePositive marks headlines kept because they were already positive.
	OriginalTonePositive = "POSITIVE"
	// OriginalToneSensational marks headlines flagged by the lexical rule.
	OriginalToneSensational = "SENSATIONAL"
	// OriginalToneNegative marks headlines flagged by sentiment scores.
	OriginalToneNegative = "NEGATIVE"
	// OriginalToneNeutral marks headlines that were not rewritten.
	OriginalToneNeutral = "NEUTRAL"
)

// Article is a headline fetched from an upstream source.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentResult holds the analyzer's scores for a headline. Scores are
// percentages in [0, 100]. Degraded is true when the analyzer was
// unreachable and neutral fallback scores were substituted.
type SentimentResult struct {
	Positive   float64 `json:"positive"`
	Neutral    float64 `json:"neutral"`
	Negative   float64 `json:"negative"`
	Confidence float64 `json:"confidence"`
	Degraded   bool    `json:"degraded,omitempty"`
}

// Decision is the outcome of classifying one headline.
type Decision struct {
	Action  Action   `json:"action"`
	Tone    Tone     `json:"tone,omitempty"`
	Reason  string   `json:"reason"`
	Rule    string   `json:"rule"`
	Matched []string `json:"matched,omitempty"`
}

// IsRewrite reports whether the decision routes the headline to the rewriter.
func (d Decision) IsRewrite() bool {
	return d.Action == ActionRewrite
}

// RewriteResult is the rewriter's output for one headline.
type RewriteResult struct {
	Title string `json:"title"`
	Model string `json:"model,omitempty"`
}

// Document is the indexed record for one processed headline.
type Document struct {
	ID               string    `json:"id"`
	OriginalTitle    string    `json:"original_title"`
	RewrittenTitle   string    `json:"rewritten_title"`
	Source           string    `json:"source"`
	PublishedDate    time.Time `json:"published_date"`
	ArticleURL       string    `json:"article_url"`
	WasRewritten     bool      `json:"was_rewritten"`
	OriginalTone     string    `json:"original_tone"`
	ConfidenceScore  float64   `json:"confidence_score"`
	RewriteReason    string    `json:"rewrite_reason"`
	ClickbaitScore   float64   `json:"clickbait_score"`
	IsClickbait      bool      `json:"is_clickbait"`
	ClickbaitReasons string    `json:"clickbait_reasons,omitempty"`
	IndexedAt        time.Time `json:"indexed_at"`
}

// NewDocumentID returns a fresh unique document identifier.
func NewDocumentID() string {
	return uuid.NewString()
}

// UploadStatus is the reconciled fate of one submitted document.
type UploadStatus string

const (
	// UploadSucceeded means the store acknowledged the document.
	UploadSucceeded UploadStatus = "succeeded"
	// UploadFailed means the store rejected the document or never saw it.
	UploadFailed UploadStatus = "failed"
)

// UploadOutcome pairs a document ID with its reconciled upload status.
type UploadOutcome struct {
	DocumentID string       `json:"document_id"`
	Status     UploadStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

// NormalizeSource lowercases and trims a source name so reliability
// aggregates for "CNN" and "cnn " land on the same key.
func NormalizeSource(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
