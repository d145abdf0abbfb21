//nolint:testpackage // Testing internal normalization requires same package access
package classifier

import (
	"slices"
	"testing"
)

func TestLexicon_Match(t *testing.T) {
	t.Helper()

	l := NewLexicon([]string{"crisis", "chaos", "breaking news"})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single hit", "Crisis deepens in region", []string{"crisis"}},
		{"two hits", "Crisis: government in chaos", []string{"crisis", "chaos"}},
		{"multi-word phrase", "BREAKING NEWS: markets open flat", []string{"breaking news"}},
		{"no hit", "Council approves budget", nil},
		{"substring is not a word", "Crisistown holds annual fair", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Match(tt.text)

			if len(got) != len(tt.want) {
				t.Fatalf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("Match(%q) missing %q, got %v", tt.text, w, got)
				}
			}
		})
	}
}

func TestLexicon_DuplicateHitsReportedOnce(t *testing.T) {
	t.Helper()

	l := NewLexicon([]string{"crisis"})

	got := l.Match("Crisis meets crisis in crisis talks")
	if len(got) != 1 {
		t.Errorf("Match() = %v, want single distinct phrase", got)
	}
}

func TestLexicon_Empty(t *testing.T) {
	t.Helper()

	l := NewLexicon(nil)

	if got := l.Match("anything at all"); got != nil {
		t.Errorf("Match() = %v, want nil for empty lexicon", got)
	}
	if l.PhraseCount() != 0 {
		t.Errorf("PhraseCount() = %d, want 0", l.PhraseCount())
	}
}
