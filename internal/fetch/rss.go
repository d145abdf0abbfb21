package fetch

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
)

// RSS aggregates a fixed list of feeds into a paged Source. Feeds are
// fetched once per run on the first page and paginated from memory after
// that, since feeds have no server-side paging.
type RSS struct {
	feedURLs []string
	parser   *gofeed.Parser
	log      logger.Logger

	items []domain.Article
	read  bool
}

// NewRSS creates an RSS source over the given feed URLs.
func NewRSS(feedURLs []string, log logger.Logger) *RSS {
	if log == nil {
		log = logger.NewNop()
	}
	return &RSS{
		feedURLs: feedURLs,
		parser:   gofeed.NewParser(),
		log:      log,
	}
}

// Name implements Source.
func (r *RSS) Name() string { return "rss" }

// FetchPage implements Source. A feed that fails to parse is logged and
// skipped; the page is only an error when every feed failed.
func (r *RSS) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Article, bool, error) {
	if !r.read {
		if err := r.load(ctx); err != nil {
			return nil, false, err
		}
	}

	start := (page - 1) * pageSize
	if start >= len(r.items) {
		return nil, false, nil
	}

	end := min(start+pageSize, len(r.items))
	return r.items[start:end], end < len(r.items), nil
}

func (r *RSS) load(ctx context.Context) error {
	r.read = true

	failures := 0
	for _, feedURL := range r.feedURLs {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failures++
			r.log.Warn("rss feed failed",
				logger.String("url", feedURL),
				logger.Error(err))
			continue
		}

		source := feed.Title
		for _, item := range feed.Items {
			article := domain.Article{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.Link,
				Source:      source,
			}
			if item.PublishedParsed != nil {
				article.PublishedAt = *item.PublishedParsed
			}
			if article.URL == "" || article.Title == "" {
				continue
			}
			r.items = append(r.items, article)
		}
	}

	if len(r.feedURLs) > 0 && failures == len(r.feedURLs) {
		return fmt.Errorf("all %d rss feeds failed", failures)
	}

	r.log.Info("rss feeds loaded",
		logger.Int("feeds", len(r.feedURLs)-failures),
		logger.Int("articles", len(r.items)))
	return nil
}
