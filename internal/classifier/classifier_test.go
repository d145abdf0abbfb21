//nolint:testpackage // Testing internal rule ordering requires same package access
package classifier

import (
	"strings"
	"testing"

	"github.com/newsperspective/pipeline/internal/config"
	"github.com/newsperspective/pipeline/internal/domain"
)

func newTestClassifier() *Classifier {
	return New(DefaultThresholds(), NewLexicon(config.DefaultSensationalPhrases), nil)
}

func TestClassify_SensationalNegativeHeadline(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("Crisis: Government in chaos as PM refuses to resign", domain.SentimentResult{
		Positive:   5,
		Neutral:    10,
		Negative:   85,
		Confidence: 85,
	})

	if d.Action != domain.ActionRewrite {
		t.Fatalf("Action = %s, want rewrite", d.Action)
	}
	if d.Tone != domain.ToneCalmFactual {
		t.Errorf("Tone = %s, want calm_factual", d.Tone)
	}
	if !strings.Contains(d.Reason, "negative") && !strings.Contains(d.Reason, "sensational") {
		t.Errorf("Reason = %q, want negative or sensational mention", d.Reason)
	}
}

func TestClassify_NeutralHeadline(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("New iPhone announced with incremental camera upgrades", domain.SentimentResult{
		Positive:   20,
		Neutral:    65,
		Negative:   15,
		Confidence: 65,
	})

	if d.Action != domain.ActionSkip {
		t.Fatalf("Action = %s, want skip", d.Action)
	}
	if d.Reason != "neutral or unclear" {
		t.Errorf("Reason = %q, want \"neutral or unclear\"", d.Reason)
	}
}

func TestClassify_AlreadyPositiveHeadline(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("Scientists achieve breakthrough in cancer treatment research", domain.SentimentResult{
		Positive:   88,
		Neutral:    10,
		Negative:   2,
		Confidence: 88,
	})

	if d.Action != domain.ActionSkip {
		t.Fatalf("Action = %s, want skip", d.Action)
	}
	if d.Reason != "already positive" {
		t.Errorf("Reason = %q, want \"already positive\"", d.Reason)
	}
}

func TestClassify_PositiveRuleBeatsLexicalMatch(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	// "threat" is in the lexicon but rule 1 wins.
	d := c.Classify("Community rallies to eliminate flooding threat", domain.SentimentResult{
		Positive:   90,
		Neutral:    5,
		Negative:   5,
		Confidence: 95,
	})

	if d.Action != domain.ActionSkip || d.Rule != RuleAlreadyPositive {
		t.Errorf("decision = %+v, want already_positive skip", d)
	}
}

func TestClassify_LowConfidenceGate(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	tests := []struct {
		name      string
		sentiment domain.SentimentResult
	}{
		{"strongly negative", domain.SentimentResult{Negative: 90, Confidence: 30}},
		{"leaning negative", domain.SentimentResult{Negative: 50, Positive: 10, Confidence: 59}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify("Crisis talks collapse in chaos", tt.sentiment)

			if d.Action != domain.ActionSkip {
				t.Errorf("Action = %s, want skip under the confidence gate", d.Action)
			}
			if d.Rule != RuleLowConfidence {
				t.Errorf("Rule = %s, want low_confidence", d.Rule)
			}
		})
	}
}

func TestClassify_LowConfidenceNeverBlocksPositiveSkip(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("Wonderful news for everyone", domain.SentimentResult{
		Positive:   85,
		Confidence: 10,
	})

	if d.Rule != RuleAlreadyPositive {
		t.Errorf("Rule = %s, want already_positive even at low confidence", d.Rule)
	}
}

func TestClassify_LeaningNegative(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("Local factory to reduce workforce next year", domain.SentimentResult{
		Positive:   15,
		Neutral:    35,
		Negative:   50,
		Confidence: 75,
	})

	if d.Action != domain.ActionRewrite {
		t.Fatalf("Action = %s, want rewrite", d.Action)
	}
	if d.Tone != domain.ToneBalancedPositive {
		t.Errorf("Tone = %s, want balanced_positive", d.Tone)
	}
}

func TestClassify_ThresholdsAreExclusive(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	// Exactly at the positive threshold does not trigger the skip rule.
	d := c.Classify("Quarterly update published", domain.SentimentResult{
		Positive:   80,
		Neutral:    15,
		Negative:   5,
		Confidence: 90,
	})
	if d.Rule == RuleAlreadyPositive {
		t.Error("positive == threshold should not trigger already_positive")
	}

	// Exactly at the negative threshold falls through to later rules.
	d = c.Classify("Quarterly update published", domain.SentimentResult{
		Positive:   10,
		Neutral:    30,
		Negative:   60,
		Confidence: 90,
	})
	if d.Rule == RuleStrongNegative {
		t.Error("negative == threshold should not trigger strong_negative")
	}
}

func TestClassify_DegradedSentimentSkips(t *testing.T) {
	t.Helper()

	c := newTestClassifier()

	d := c.Classify("Crisis deepens", domain.SentimentResult{
		Positive:   33,
		Neutral:    34,
		Negative:   33,
		Confidence: 0,
		Degraded:   true,
	})

	if d.Rule != RuleLowConfidence {
		t.Errorf("Rule = %s, want low_confidence for degraded sentiment", d.Rule)
	}
}

func TestOriginalTone(t *testing.T) {
	t.Helper()

	tests := []struct {
		rule string
		want string
	}{
		{RuleAlreadyPositive, domain.OriginalTonePositive},
		{RuleSensational, domain.OriginalToneSensational},
		{RuleStrongNegative, domain.OriginalToneNegative},
		{RuleLeaningNegative, domain.OriginalToneNegative},
		{RuleNeutral, domain.OriginalToneNeutral},
		{RuleLowConfidence, domain.OriginalToneNeutral},
	}

	for _, tt := range tests {
		if got := OriginalTone(domain.Decision{Rule: tt.rule}); got != tt.want {
			t.Errorf("OriginalTone(%s) = %s, want %s", tt.rule, got, tt.want)
		}
	}
}
