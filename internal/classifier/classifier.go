// classifier.go implements the ordered decision rules that route a headline
// to the rewriter or upload it unchanged.
package classifier

import (
	"fmt"
	"strings"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
)

// Rule names recorded on decisions.
const (
	RuleAlreadyPositive = "already_positive"
	RuleLowConfidence   = "low_confidence"
	RuleStrongNegative  = "strong_negative"
	RuleSensational     = "sensational_language"
	RuleLeaningNegative = "leaning_negative"
	RuleNeutral         = "neutral"
)

// Thresholds are the sentiment score boundaries for the decision rules.
// All values are percentages in [0, 100].
type Thresholds struct {
	// PositiveSkip: above this positive score the headline is kept as-is.
	PositiveSkip float64
	// NegativeRewrite: above this negative score the headline is rewritten
	// calm_factual.
	NegativeRewrite float64
	// NegativeLean: above this negative score (when negative also exceeds
	// positive) the headline is rewritten balanced_positive.
	NegativeLean float64
	// MinConfidence: below this the headline is skipped rather than
	// rewritten on uncertain scores.
	MinConfidence float64
}

// DefaultThresholds returns the production rule boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PositiveSkip:    80,
		NegativeRewrite: 60,
		NegativeLean:    40,
		MinConfidence:   60,
	}
}

// Classifier applies the decision rules to sentiment scores and headline
// text. Safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
	lexicon    *Lexicon
	log        logger.Logger
}

// New builds a Classifier over the given sensational-phrase lexicon.
func New(thresholds Thresholds, lexicon *Lexicon, log logger.Logger) *Classifier {
	if lexicon == nil {
		lexicon = NewLexicon(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{thresholds: thresholds, lexicon: lexicon, log: log}
}

// Classify runs the rules in order and returns the first match.
//
// Order matters: a clearly positive headline is kept even when confidence
// is low, but every rewrite rule sits behind the confidence gate so the
// pipeline never rewrites on scores it cannot trust.
func (c *Classifier) Classify(title string, s domain.SentimentResult) domain.Decision {
	t := c.thresholds

	if s.Positive > t.PositiveSkip {
		return domain.Decision{
			Action: domain.ActionSkip,
			Reason: "already positive",
			Rule:   RuleAlreadyPositive,
		}
	}

	if s.Confidence < t.MinConfidence {
		return domain.Decision{
			Action: domain.ActionSkip,
			Reason: "low confidence",
			Rule:   RuleLowConfidence,
		}
	}

	if s.Negative > t.NegativeRewrite {
		return domain.Decision{
			Action: domain.ActionRewrite,
			Tone:   domain.ToneCalmFactual,
			Reason: "strongly negative",
			Rule:   RuleStrongNegative,
		}
	}

	if matched := c.lexicon.Match(title); len(matched) > 0 {
		c.log.Debug("sensational phrases matched",
			logger.String("title", title),
			logger.Strings("phrases", matched))
		return domain.Decision{
			Action:  domain.ActionRewrite,
			Tone:    domain.ToneCalmFactual,
			Reason:  fmt.Sprintf("sensational language: %s", strings.Join(matched, ", ")),
			Rule:    RuleSensational,
			Matched: matched,
		}
	}

	if s.Negative > s.Positive && s.Negative > t.NegativeLean {
		return domain.Decision{
			Action: domain.ActionRewrite,
			Tone:   domain.ToneBalancedPositive,
			Reason: "leaning negative",
			Rule:   RuleLeaningNegative,
		}
	}

	return domain.Decision{
		Action: domain.ActionSkip,
		Reason: "neutral or unclear",
		Rule:   RuleNeutral,
	}
}

// OriginalTone maps a decision to the tone label recorded on the indexed
// document.
func OriginalTone(d domain.Decision) string {
	switch d.Rule {
	case RuleAlreadyPositive:
		return domain.OriginalTonePositive
	case RuleSensational:
		return domain.OriginalToneSensational
	case RuleStrongNegative, RuleLeaningNegative:
		return domain.OriginalToneNegative
	default:
		return domain.OriginalToneNeutral
	}
}
