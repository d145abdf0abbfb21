// Package reliability tracks per-source clickbait aggregates across runs.
package reliability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
)

// ErrPersistence wraps store load/save failures so callers can degrade
// rather than crash.
var ErrPersistence = errors.New("reliability persistence error")

// Reliability ratings, ordered best to worst. A source stays unknown until
// it has reported enough articles.
const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingModerate  = "moderate"
	RatingPoor      = "poor"
	RatingUnknown   = "unknown"
)

// Rating boundaries on the cumulative average clickbait score.
const (
	excellentBelow = 30
	goodBelow      = 50
	moderateBelow  = 70

	// minArticlesForRating is how many articles a source needs before a
	// rating is assigned.
	minArticlesForRating = 10

	// flushEvery triggers a store save whenever a source's article count
	// crosses a multiple of this.
	flushEvery = 10
)

// Record is the persistent aggregate for one source.
type Record struct {
	TotalArticles  int       `json:"total_articles" db:"total_articles"`
	ClickbaitCount int       `json:"clickbait_count" db:"clickbait_count"`
	TotalScore     float64   `json:"total_score" db:"total_score"`
	AverageScore   float64   `json:"average_score" db:"average_score"`
	Rating         string    `json:"reliability_rating" db:"rating"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// Store persists the source map between runs.
type Store interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
}

// Tracker maintains the per-source aggregates. All read-modify-write cycles
// run under the lock, so concurrent batch workers cannot lose updates.
type Tracker struct {
	mu      sync.Mutex
	records map[string]Record
	store   Store
	log     logger.Logger

	// saveFailed remembers a failed flush so the next one retries.
	saveFailed bool
}

// NewTracker loads persisted state from the store. A load failure degrades
// to an empty tracker with a logged warning; it never fails the run.
func NewTracker(ctx context.Context, store Store, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}

	t := &Tracker{
		records: make(map[string]Record),
		store:   store,
		log:     log,
	}

	if store == nil {
		return t
	}

	records, err := store.Load(ctx)
	if err != nil {
		log.Warn("reliability state unreadable, starting empty", logger.Error(err))
		return t
	}
	if records != nil {
		t.records = records
	}

	log.Info("reliability state loaded", logger.Int("sources", len(t.records)))
	return t
}

// Update folds one article's clickbait score into the source's aggregate
// and flushes periodically.
func (t *Tracker) Update(ctx context.Context, source string, score float64, isClickbait bool) {
	key := domain.NormalizeSource(source)
	if key == "" {
		return
	}

	t.mu.Lock()
	rec := t.records[key]
	rec.TotalArticles++
	if isClickbait {
		rec.ClickbaitCount++
	}
	rec.TotalScore += score
	rec.AverageScore = rec.TotalScore / float64(rec.TotalArticles)
	rec.Rating = rating(rec)
	rec.LastUpdated = time.Now().UTC()
	t.records[key] = rec

	needsFlush := t.saveFailed || rec.TotalArticles%flushEvery == 0
	t.mu.Unlock()

	if needsFlush {
		t.Flush(ctx)
	}
}

// Get returns the aggregate for a source; ok is false for unseen sources.
func (t *Tracker) Get(source string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[domain.NormalizeSource(source)]
	return rec, ok
}

// Snapshot returns a copy of every record keyed by normalized source name.
func (t *Tracker) Snapshot() map[string]Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Record, len(t.records))
	for k, v := range t.records {
		out[k] = v
	}
	return out
}

// Flush saves the current state. A failure is logged and remembered so the
// next update retries; it never blocks the pipeline.
func (t *Tracker) Flush(ctx context.Context) {
	if t.store == nil {
		return
	}

	snapshot := t.Snapshot()
	if err := t.store.Save(ctx, snapshot); err != nil {
		t.mu.Lock()
		t.saveFailed = true
		t.mu.Unlock()
		t.log.Error("reliability state save failed", logger.Error(err))
		return
	}

	t.mu.Lock()
	t.saveFailed = false
	t.mu.Unlock()
	t.log.Debug("reliability state saved", logger.Int("sources", len(snapshot)))
}

func rating(rec Record) string {
	if rec.TotalArticles < minArticlesForRating {
		return RatingUnknown
	}
	switch {
	case rec.AverageScore < excellentBelow:
		return RatingExcellent
	case rec.AverageScore < goodBelow:
		return RatingGood
	case rec.AverageScore < moderateBelow:
		return RatingModerate
	default:
		return RatingPoor
	}
}
