// Package fetch provides the upstream article sources: the NewsAPI paged
// client, RSS feeds, and the validation/dedup layer that sits in front of
// both.
package fetch

import (
	"context"
	"math/rand"

	"github.com/newsperspective/pipeline/internal/domain"
)

// Source supplies pages of articles. HasMore false signals exhaustion; the
// scheduler stops early rather than issuing empty fetches.
type Source interface {
	// Name identifies the source in logs and stats.
	Name() string
	// FetchPage returns up to pageSize articles for the 1-based page.
	FetchPage(ctx context.Context, page, pageSize int) (articles []domain.Article, hasMore bool, err error)
}

// Multi fans a fetch across several sources, interleaving their results
// until every source is exhausted.
type Multi struct {
	sources []Source
}

// NewMulti combines sources into one. Order is preserved per page.
func NewMulti(sources ...Source) *Multi {
	return &Multi{sources: sources}
}

// Name implements Source.
func (m *Multi) Name() string { return "mixed" }

// FetchPage splits pageSize evenly across the underlying sources, the last
// source absorbing the remainder, then shuffles the combined results so no
// single source dominates the front of a batch. The combined page never
// exceeds pageSize. One source failing does not hide the others' articles;
// the first error is returned alongside whatever was fetched.
func (m *Multi) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Article, bool, error) {
	var (
		articles []domain.Article
		hasMore  bool
		firstErr error
	)

	share := pageSize / len(m.sources)
	for i, s := range m.sources {
		want := share
		if i == len(m.sources)-1 {
			want = pageSize - share*(len(m.sources)-1)
		}
		if want <= 0 {
			continue
		}
		batch, more, err := s.FetchPage(ctx, page, want)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		articles = append(articles, batch...)
		hasMore = hasMore || more
	}

	rand.Shuffle(len(articles), func(i, j int) {
		articles[i], articles[j] = articles[j], articles[i]
	})
	if len(articles) > pageSize {
		articles = articles[:pageSize]
	}

	return articles, hasMore, firstErr
}
