package reliability

import (
	"sort"
	"time"
)

// minArticlesForReport filters sources with too little history out of the
// report.
const minArticlesForReport = 5

// SourceReport is one source's line in the reliability report.
type SourceReport struct {
	Name                string    `json:"name"`
	TotalArticles       int       `json:"total_articles"`
	ClickbaitCount      int       `json:"clickbait_count"`
	ClickbaitPercentage float64   `json:"clickbait_percentage"`
	AverageScore        float64   `json:"average_score"`
	Rating              string    `json:"reliability_rating"`
	LastUpdated         time.Time `json:"last_updated"`
}

// Report ranks sources from most to least reliable.
type Report struct {
	TotalSources int            `json:"total_sources"`
	Sources      []SourceReport `json:"sources"`
	Summary      map[string]int `json:"summary"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// Report builds the reliability report from the current state. Sources are
// sorted by average score ascending (lower is better).
func (t *Tracker) Report() Report {
	snapshot := t.Snapshot()

	report := Report{
		TotalSources: len(snapshot),
		Summary: map[string]int{
			RatingExcellent: 0,
			RatingGood:      0,
			RatingModerate:  0,
			RatingPoor:      0,
			RatingUnknown:   0,
		},
		GeneratedAt: time.Now().UTC(),
	}

	for name, rec := range snapshot {
		if rec.TotalArticles < minArticlesForReport {
			continue
		}
		report.Sources = append(report.Sources, SourceReport{
			Name:                name,
			TotalArticles:       rec.TotalArticles,
			ClickbaitCount:      rec.ClickbaitCount,
			ClickbaitPercentage: float64(rec.ClickbaitCount) / float64(rec.TotalArticles) * 100,
			AverageScore:        rec.AverageScore,
			Rating:              rec.Rating,
			LastUpdated:         rec.LastUpdated,
		})
		report.Summary[rec.Rating]++
	}

	sort.Slice(report.Sources, func(i, j int) bool {
		return report.Sources[i].AverageScore < report.Sources[j].AverageScore
	})

	return report
}
