package index_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/index"
)

func newESClient(t *testing.T, url string) *es.Client {
	t.Helper()

	client, err := es.NewClient(es.Config{Addresses: []string{url}})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestUploader_Upload(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_bulk") {
			t.Errorf("path = %s, want _bulk", r.URL.Path)
		}

		// NDJSON: meta line + doc line per document.
		lines := strings.Split(strings.TrimSpace(readBody(t, r)), "\n")
		if len(lines) != 4 {
			t.Errorf("bulk lines = %d, want 4", len(lines))
		}

		var meta struct {
			Index struct {
				ID string `json:"_id"`
			} `json:"index"`
		}
		if err := json.Unmarshal([]byte(lines[0]), &meta); err != nil || meta.Index.ID == "" {
			t.Errorf("first meta line invalid: %s", lines[0])
		}

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"took":   3,
			"errors": true,
			"items": []map[string]any{
				{"index": map[string]any{"_id": "doc-1", "status": 201}},
				{"index": map[string]any{
					"_id": "doc-2", "status": 400,
					"error": map[string]string{"type": "mapper_parsing_exception", "reason": "bad date"},
				}},
			},
		})
	}))
	defer server.Close()

	uploader := index.NewUploader(newESClient(t, server.URL), "news-perspective-index", nil)

	resp, err := uploader.Upload(context.Background(), []domain.Document{
		{ID: "doc-1", OriginalTitle: "First"},
		{ID: "doc-2", OriginalTitle: "Second"},
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if len(resp.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].ID != "doc-1" || resp.Items[0].Status != 201 {
		t.Errorf("item[0] = %+v", resp.Items[0])
	}
	if !strings.Contains(resp.Items[1].Error, "mapper_parsing_exception") {
		t.Errorf("item[1].Error = %q", resp.Items[1].Error)
	}
}

func TestUploader_Upload_Empty(t *testing.T) {
	t.Helper()

	uploader := index.NewUploader(newESClient(t, "http://127.0.0.1:1"), "idx", nil)

	resp, err := uploader.Upload(context.Background(), nil)
	if err != nil {
		t.Fatalf("Upload(nil) error = %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("empty upload should produce no items")
	}
}

func TestUploader_Upload_TransportFailure(t *testing.T) {
	t.Helper()

	uploader := index.NewUploader(newESClient(t, "http://127.0.0.1:1"), "idx", nil)

	_, err := uploader.Upload(context.Background(), []domain.Document{{ID: "doc-1"}})
	if err == nil {
		t.Error("Upload() should fail when the store is unreachable")
	}
}

func TestSearcher_Search(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_search") {
			t.Errorf("path = %s, want _search", r.URL.Path)
		}

		body := readBody(t, r)
		if !strings.Contains(body, "multi_match") {
			t.Errorf("query body missing multi_match: %s", body)
		}

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"hits": map[string]any{
				"hits": []map[string]any{
					{"_id": "doc-1", "_source": map[string]any{
						"original_title":  "Crisis talks fail",
						"rewritten_title": "Negotiations end without agreement",
						"was_rewritten":   true,
					}},
				},
			},
		})
	}))
	defer server.Close()

	searcher := index.NewSearcher(newESClient(t, server.URL), "news-perspective-index")

	docs, err := searcher.Search(context.Background(), index.Query{Text: "talks", Size: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}
	if docs[0].ID != "doc-1" {
		t.Errorf("ID = %q, want doc-1 (filled from _id)", docs[0].ID)
	}
	if !docs[0].WasRewritten {
		t.Error("WasRewritten should be true")
	}
}

func TestSearcher_SourceFilter(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := readBody(t, r)
		if !strings.Contains(body, `"term"`) || !strings.Contains(body, "Example Times") {
			t.Errorf("query body missing source term filter: %s", body)
		}

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"hits": map[string]any{"hits": []map[string]any{}},
		})
	}))
	defer server.Close()

	searcher := index.NewSearcher(newESClient(t, server.URL), "news-perspective-index")

	if _, err := searcher.Search(context.Background(), index.Query{Source: "Example Times"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}
