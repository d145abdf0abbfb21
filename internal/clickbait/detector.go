// Package clickbait scores headlines against known manipulation patterns and
// flags headlines whose sentiment does not match their article's content.
package clickbait

import (
	"fmt"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/newsperspective/pipeline/internal/domain"
)

// Severity levels for pattern categories.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Recommendations derived from the final score.
const (
	RecommendKeep         = "keep"
	RecommendRewriteMinor = "rewrite_minor"
	RecommendRewriteMajor = "rewrite_major"
	RecommendReject       = "reject"
)

// Score boundaries.
const (
	patternHitScore = 10
	patternScoreCap = 50
	totalScoreCap   = 100

	clickbaitThreshold    = 70
	rejectThreshold       = 85
	rewriteMajorThreshold = 70
	rewriteMinorThreshold = 40
)

// patternCategories holds the built-in pattern database, grouped by the kind
// of manipulation the phrase signals.
var patternCategories = map[string]struct {
	severity string
	patterns []string
}{
	"exaggeration": {SeverityMedium, []string{
		"shocking", "unbelievable", "incredible", "amazing", "stunning",
		"mind-blowing", "jaw-dropping", "explosive", "massive", "epic",
	}},
	"curiosity_gap": {SeverityHigh, []string{
		"you won't believe", "what happened next", "this is what",
		"the reason why", "here's why", "find out", "the truth about",
		"what really", "secret", "revealed",
	}},
	"urgency": {SeverityMedium, []string{
		"breaking", "just in", "urgent", "alert", "warning", "now",
		"immediately", "must see", "don't miss",
	}},
	"emotional_manipulation": {SeverityHigh, []string{
		"heartbreaking", "devastating", "tragic", "horrifying",
		"outrageous", "infuriating", "disgusting", "terrifying",
	}},
	"listicles": {SeverityLow, []string{
		"reasons why", "ways to", "things you", "facts about",
		"tips for", "tricks to",
	}},
	"sensationalism": {SeverityMedium, []string{
		"slams", "blasts", "destroys", "obliterates", "annihilates",
		"demolishes", "crushes", "hammers", "rips into",
	}},
}

// PatternMatch is one clickbait phrase found in a headline.
type PatternMatch struct {
	Category string `json:"category"`
	Pattern  string `json:"pattern"`
	Severity string `json:"severity"`
}

// Analysis is the full clickbait verdict for one headline.
type Analysis struct {
	Score             float64        `json:"clickbait_score"`
	IsClickbait       bool           `json:"is_clickbait"`
	Confidence        float64        `json:"confidence"`
	Matches           []PatternMatch `json:"pattern_matches,omitempty"`
	Reasons           []string       `json:"reasons,omitempty"`
	SentimentMismatch bool           `json:"sentiment_mismatch"`
	MismatchSeverity  float64        `json:"mismatch_severity"`
	Recommendation    string         `json:"recommendation"`
}

type patternEntry struct {
	category string
	severity string
	pattern  string
}

// Detector matches headlines against the pattern database. Patterns match
// as substrings, so "breaking" also catches "breaking:". Safe for
// concurrent use.
type Detector struct {
	matcher *ahocorasick.Matcher
	entries []patternEntry
}

// New builds a Detector over the built-in pattern database.
func New() *Detector {
	var entries []patternEntry
	var needles []string
	for category, group := range patternCategories {
		for _, p := range group.patterns {
			entries = append(entries, patternEntry{
				category: category,
				severity: group.severity,
				pattern:  p,
			})
			needles = append(needles, p)
		}
	}

	return &Detector{
		matcher: ahocorasick.NewStringMatcher(needles),
		entries: entries,
	}
}

// MatchPatterns returns the pattern hits for a headline and the pattern
// portion of the score, capped at 50 so sentiment mismatch still matters.
func (d *Detector) MatchPatterns(headline string) (float64, []PatternMatch) {
	hits := d.matcher.Match([]byte(strings.ToLower(headline)))
	if len(hits) == 0 {
		return 0, nil
	}

	score := 0.0
	matches := make([]PatternMatch, 0, len(hits))
	for _, idx := range hits {
		if idx >= len(d.entries) {
			continue
		}
		e := d.entries[idx]
		score += patternHitScore
		matches = append(matches, PatternMatch{
			Category: e.category,
			Pattern:  e.pattern,
			Severity: e.severity,
		})
	}

	return min(patternScoreCap, score), matches
}

// Analyze scores one headline. contentSentiment is nil when no article body
// was available for comparison.
func (d *Detector) Analyze(headline string, headlineSentiment domain.SentimentResult, contentSentiment *domain.SentimentResult) Analysis {
	a := Analysis{Recommendation: RecommendKeep}

	patternScore, matches := d.MatchPatterns(headline)
	a.Score = patternScore
	a.Matches = matches

	if contentSentiment != nil {
		severity, mismatch, reasons := compareSentiment(headlineSentiment, *contentSentiment)
		a.SentimentMismatch = mismatch
		a.MismatchSeverity = severity
		a.Reasons = append(a.Reasons, reasons...)
		a.Score += severity
	}

	a.Score = min(totalScoreCap, a.Score)
	a.IsClickbait = a.Score >= clickbaitThreshold
	a.Confidence = confidence(a, headlineSentiment)
	a.Recommendation = recommendation(a.Score)

	return a
}

// Mismatch severities by direction of the headline/content disagreement.
const (
	mismatchNegativeOverPositive = 40
	mismatchPositiveOverNegative = 30
	mismatchMinor                = 15
	mismatchScoreGapBonus        = 10
	negativeGapThreshold         = 30
)

func compareSentiment(headline, content domain.SentimentResult) (float64, bool, []string) {
	var reasons []string
	severity := 0.0

	headlineLabel := dominantLabel(headline)
	contentLabel := dominantLabel(content)
	mismatch := headlineLabel != contentLabel

	switch {
	case !mismatch:
	case headlineLabel == "negative" && contentLabel == "positive":
		severity = mismatchNegativeOverPositive
		reasons = append(reasons,
			"headline is negative but article content is positive",
			"likely clickbait to attract attention")
	case headlineLabel == "positive" && contentLabel == "negative":
		severity = mismatchPositiveOverNegative
		reasons = append(reasons,
			"headline is positive but article content is negative",
			"possible misleading framing")
	default:
		severity = mismatchMinor
		reasons = append(reasons,
			fmt.Sprintf("sentiment mismatch: headline %s, content %s", headlineLabel, contentLabel))
	}

	if gap := headline.Negative - content.Negative; gap > negativeGapThreshold || gap < -negativeGapThreshold {
		severity += mismatchScoreGapBonus
		reasons = append(reasons, fmt.Sprintf(
			"large negative sentiment gap: headline %.0f%%, content %.0f%%",
			headline.Negative, content.Negative))
	}

	return severity, mismatch, reasons
}

func dominantLabel(s domain.SentimentResult) string {
	switch {
	case s.Positive >= s.Neutral && s.Positive >= s.Negative:
		return "positive"
	case s.Negative >= s.Neutral && s.Negative >= s.Positive:
		return "negative"
	default:
		return "neutral"
	}
}

// Confidence heuristics.
const (
	baseConfidence           = 50
	manyMatchesBonus         = 30
	someMatchesBonus         = 15
	mismatchConfidenceBonus  = 20
	strongSentimentBonus     = 10
	strongSentimentThreshold = 70
)

func confidence(a Analysis, headline domain.SentimentResult) float64 {
	c := float64(baseConfidence)

	switch {
	case len(a.Matches) >= 3:
		c += manyMatchesBonus
	case len(a.Matches) >= 1:
		c += someMatchesBonus
	}

	if a.SentimentMismatch {
		c += mismatchConfidenceBonus
	}

	if max(headline.Positive, headline.Neutral, headline.Negative) > strongSentimentThreshold {
		c += strongSentimentBonus
	}

	return min(100, c)
}

func recommendation(score float64) string {
	switch {
	case score >= rejectThreshold:
		return RecommendReject
	case score >= rewriteMajorThreshold:
		return RecommendRewriteMajor
	case score >= rewriteMinorThreshold:
		return RecommendRewriteMinor
	default:
		return RecommendKeep
	}
}
