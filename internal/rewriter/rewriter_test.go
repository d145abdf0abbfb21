package rewriter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/httpclient"
	"github.com/newsperspective/pipeline/internal/retry"
	"github.com/newsperspective/pipeline/internal/rewriter"
)

func newTestClient(endpoint string) *rewriter.Client {
	hc := httpclient.New(httpclient.Config{
		Retry: retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond},
	}, nil, nil)
	return rewriter.NewClient(rewriter.Config{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
	}, hc)
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"model": "gpt-4o-mini",
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
}

func TestClient_Rewrite(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", auth)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode error: %v", err)
		}
		messages, ok := req["messages"].([]any)
		if !ok || len(messages) != 2 {
			t.Errorf("messages = %v, want system + user", req["messages"])
		}

		json.NewEncoder(w).Encode(completionBody("City reports rise in housing applications")) //nolint:errcheck
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Rewrite(
		context.Background(), "Housing CRISIS spirals out of control", domain.ToneCalmFactual)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if result.Title != "City reports rise in housing applications" {
		t.Errorf("Title = %q", result.Title)
	}
}

func TestClient_Rewrite_EmptyChoices(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}}) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Rewrite(context.Background(), "headline", domain.ToneCalmFactual)
	if err != rewriter.ErrEmptyResponse {
		t.Errorf("Rewrite() error = %v, want ErrEmptyResponse", err)
	}
}

func TestClient_Rewrite_WhitespaceOnlyReply(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody("  \"\"  ")) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Rewrite(context.Background(), "headline", domain.ToneBalancedPositive)
	if err != rewriter.ErrEmptyResponse {
		t.Errorf("Rewrite() error = %v, want ErrEmptyResponse", err)
	}
}

func TestCleanTitle(t *testing.T) {
	t.Helper()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Council approves new budget", "Council approves new budget"},
		{"quoted", `"Council approves new budget"`, "Council approves new budget"},
		{"rewritten prefix", "Rewritten: Council approves new budget", "Council approves new budget"},
		{"new prefix", "New: Council approves new budget", "Council approves new budget"},
		{"label then quotes", `Rewritten headline: "Council approves new budget"`, "Council approves new budget"},
		{"whitespace", "   Council approves new budget \n", "Council approves new budget"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewriter.CleanTitle(tt.raw); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClient_Rewrite_ToneSelectsInstruction(t *testing.T) {
	t.Helper()

	var lastUserMsg string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		for _, m := range req.Messages {
			if m.Role == "user" {
				lastUserMsg = m.Content
			}
		}
		json.NewEncoder(w).Encode(completionBody("ok")) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.Rewrite(context.Background(), "h", domain.ToneBalancedPositive); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if !strings.Contains(lastUserMsg, "constructive") {
		t.Errorf("balanced_positive prompt missing, got %q", lastUserMsg)
	}

	if _, err := client.Rewrite(context.Background(), "h", domain.ToneCalmFactual); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if !strings.Contains(lastUserMsg, "calm, factual") {
		t.Errorf("calm_factual prompt missing, got %q", lastUserMsg)
	}
}
