// Package classifier decides whether a headline is uploaded as-is or routed
// to the rewriter. lexicon.go implements Aho-Corasick based phrase matching
// so the sensational-language rule stays O(n+m) regardless of lexicon size.
package classifier

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Lexicon matches sensational phrases against headline text on word
// boundaries. Build once, match many; a built Lexicon is immutable and safe
// for concurrent use.
type Lexicon struct {
	matcher *ahocorasick.Matcher
	phrases []string
}

// NewLexicon builds the automaton from the phrase list. Phrases are
// normalized the same way headline text is, so "Slams" matches "slams".
func NewLexicon(phrases []string) *Lexicon {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		n := normalizeText(p)
		if strings.TrimSpace(n) == "" {
			continue
		}
		// Padding both sides enforces whole-word matches once the input
		// text is padded the same way.
		normalized = append(normalized, " "+strings.TrimSpace(n)+" ")
	}

	l := &Lexicon{phrases: normalized}
	if len(normalized) > 0 {
		l.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return l
}

// Match returns the distinct phrases found in the text, trimmed of the
// boundary padding. Returns nil when nothing matches.
func (l *Lexicon) Match(text string) []string {
	if l.matcher == nil {
		return nil
	}

	padded := " " + normalizeText(text) + " "
	hits := l.matcher.Match([]byte(padded))
	if len(hits) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(hits))
	matched := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx >= len(l.phrases) {
			continue
		}
		phrase := strings.TrimSpace(l.phrases[idx])
		if !seen[phrase] {
			seen[phrase] = true
			matched = append(matched, phrase)
		}
	}
	return matched
}

// PhraseCount returns the number of phrases in the automaton.
func (l *Lexicon) PhraseCount() int {
	return len(l.phrases)
}

// normalizeText lowercases and collapses every non-alphanumeric run to a
// single space, so multi-word phrases survive punctuation between words.
func normalizeText(text string) string {
	text = strings.ToLower(text)

	var result strings.Builder
	result.Grow(len(text))

	lastSpace := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			result.WriteByte(' ')
			lastSpace = true
		}
	}

	return result.String()
}
