package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/newsperspective/pipeline/internal/domain"
)

// Searcher queries indexed headlines.
type Searcher struct {
	client *es.Client
	index  string
}

// NewSearcher creates a Searcher over the given index.
func NewSearcher(client *es.Client, index string) *Searcher {
	return &Searcher{client: client, index: index}
}

// Query selects documents. A zero Text matches everything; a non-zero
// Source restricts results to one news source.
type Query struct {
	Text   string
	Source string
	Size   int
}

// Search matches the query against original and rewritten titles, newest
// first. An empty query returns the most recent documents.
func (s *Searcher) Search(ctx context.Context, q Query) ([]domain.Document, error) {
	size := q.Size
	if size <= 0 {
		size = 10
	}

	var match any
	if q.Text == "" {
		match = map[string]any{"match_all": map[string]any{}}
	} else {
		match = map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"original_title", "rewritten_title"},
			},
		}
	}

	if q.Source != "" {
		match = map[string]any{
			"bool": map[string]any{
				"must": []any{match},
				"filter": []any{
					map[string]any{"term": map[string]any{"source": q.Source}},
				},
			},
		}
	}

	body := map[string]any{
		"query": match,
		"size":  size,
		"sort": []map[string]any{
			{"published_date": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source domain.Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	docs := make([]domain.Document, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
