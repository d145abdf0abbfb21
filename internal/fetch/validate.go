package fetch

import (
	"fmt"
	"strings"
	"time"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
)

// Validation defaults.
const (
	DefaultMaxAge              = 7 * 24 * time.Hour
	DefaultSimilarityThreshold = 0.85
)

// ValidatorStats counts validation outcomes for the run summary.
type ValidatorStats struct {
	Checked         int `json:"total_checked"`
	DuplicateURLs   int `json:"duplicates_url"`
	DuplicateTitles int `json:"duplicates_title"`
	MissingFields   int `json:"invalid_missing_fields"`
	TooOld          int `json:"invalid_old_articles"`
	Valid           int `json:"valid_articles"`
}

// Validator deduplicates articles across a run and rejects ones that fail
// quality checks. Not safe for concurrent use; the scheduler validates each
// batch before fanning work out.
type Validator struct {
	maxAge     time.Duration
	similarity float64

	seenURLs   map[string]bool
	seenTitles []string
	stats      ValidatorStats
	log        logger.Logger
}

// NewValidator creates a Validator with the given limits. Zero values take
// the defaults.
func NewValidator(maxAge time.Duration, similarity float64, log logger.Logger) *Validator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if similarity <= 0 {
		similarity = DefaultSimilarityThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Validator{
		maxAge:     maxAge,
		similarity: similarity,
		seenURLs:   make(map[string]bool),
		log:        log,
	}
}

// Validate checks one article. Valid articles are remembered for dedup.
// The reason explains any rejection.
func (v *Validator) Validate(article domain.Article) (bool, string) {
	v.stats.Checked++

	if strings.TrimSpace(article.Title) == "" {
		v.stats.MissingFields++
		return false, "missing required field: title"
	}
	if strings.TrimSpace(article.URL) == "" {
		v.stats.MissingFields++
		return false, "missing required field: url"
	}

	articleURL := strings.TrimSpace(article.URL)
	if v.seenURLs[articleURL] {
		v.stats.DuplicateURLs++
		return false, "duplicate url"
	}

	title := strings.TrimSpace(article.Title)
	for _, seen := range v.seenTitles {
		if sim := similarity(title, seen); sim >= v.similarity {
			v.stats.DuplicateTitles++
			return false, fmt.Sprintf("duplicate title (similarity %.2f)", sim)
		}
	}

	// A zero published date is let through rather than rejected; some feeds
	// omit it.
	if !article.PublishedAt.IsZero() {
		if age := time.Since(article.PublishedAt); age > v.maxAge {
			v.stats.TooOld++
			return false, fmt.Sprintf("article too old: %d days", int(age.Hours()/24))
		}
	}

	v.seenURLs[articleURL] = true
	v.seenTitles = append(v.seenTitles, title)
	v.stats.Valid++
	return true, ""
}

// Filter validates a batch and returns only the valid articles, logging a
// per-reason rejection summary.
func (v *Validator) Filter(articles []domain.Article) []domain.Article {
	valid := make([]domain.Article, 0, len(articles))
	reasons := make(map[string]int)

	for _, a := range articles {
		ok, reason := v.Validate(a)
		if ok {
			valid = append(valid, a)
		} else {
			reasons[reason]++
		}
	}

	if len(reasons) > 0 {
		for reason, count := range reasons {
			v.log.Debug("articles rejected",
				logger.String("reason", reason),
				logger.Int("count", count))
		}
	}
	v.log.Info("batch validated",
		logger.Int("in", len(articles)),
		logger.Int("valid", len(valid)))

	return valid
}

// Stats returns the validation counters.
func (v *Validator) Stats() ValidatorStats { return v.stats }

// Reset clears dedup state and counters.
func (v *Validator) Reset() {
	v.seenURLs = make(map[string]bool)
	v.seenTitles = nil
	v.stats = ValidatorStats{}
}

// similarity is the ratio 2*LCS/(len(a)+len(b)) over lowercased runes, in
// [0, 1]. 1 means identical.
func similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Single-row LCS to keep memory bounded.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}
