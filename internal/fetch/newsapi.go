package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/httpclient"
)

// NewsAPI is a paged client for the NewsAPI top-headlines endpoint.
type NewsAPI struct {
	baseURL  string
	apiKey   string
	country  string
	category string
	pageSize int
	http     *httpclient.Client
}

// NewsAPIConfig configures the NewsAPI source.
type NewsAPIConfig struct {
	BaseURL  string
	APIKey   string
	Country  string
	Category string
	// PageSize caps how many articles one upstream request may ask for.
	// Zero leaves the caller's page size unclamped.
	PageSize int
}

// NewNewsAPI creates a NewsAPI source on top of the shared HTTP client.
func NewNewsAPI(cfg NewsAPIConfig, http *httpclient.Client) *NewsAPI {
	return &NewsAPI{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		country:  cfg.Country,
		category: cfg.Category,
		pageSize: cfg.PageSize,
		http:     http,
	}
}

// Name implements Source.
func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// FetchPage implements Source. hasMore reflects the API's reported total so
// the scheduler can stop before issuing empty pages.
func (n *NewsAPI) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Article, bool, error) {
	if n.pageSize > 0 && pageSize > n.pageSize {
		pageSize = n.pageSize
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	if n.country != "" {
		q.Set("country", n.country)
	}
	if n.category != "" {
		q.Set("category", n.category)
	}

	endpoint := n.baseURL + "/top-headlines?" + q.Encode()
	headers := map[string]string{"X-Api-Key": n.apiKey}

	var resp newsAPIResponse
	if err := n.http.GetJSON(ctx, endpoint, headers, &resp); err != nil {
		return nil, false, fmt.Errorf("newsapi page %d: %w", page, err)
	}

	if resp.Status != "ok" {
		return nil, false, fmt.Errorf("newsapi page %d: status %q", page, resp.Status)
	}

	articles := make([]domain.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}

	hasMore := page*pageSize < resp.TotalResults
	return articles, hasMore, nil
}
