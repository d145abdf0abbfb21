package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newsperspective/pipeline/internal/httpclient"
	"github.com/newsperspective/pipeline/internal/retry"
	"github.com/newsperspective/pipeline/internal/stats"
)

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:          attempts,
		InitialDelay:         time.Millisecond,
		MaxDelay:             5 * time.Millisecond,
		DefaultRateLimitWait: time.Millisecond,
		MaxRateLimitWait:     10 * time.Millisecond,
	}
}

func TestClient_GetJSON_Success(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, nil)

	var out struct {
		Status string `json:"status"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Status != "ok" {
		t.Errorf("status = %q, want ok", out.Status)
	}
}

func TestClient_RateLimitedThenSuccess(t *testing.T) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer server.Close()

	session := stats.NewSession()
	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, session)

	var out map[string]any
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	snap := session.Snapshot()
	if snap.APICalls != 2 {
		t.Errorf("APICalls = %d, want 2 (both attempts counted)", snap.APICalls)
	}
	if snap.APIErrors != 0 {
		t.Errorf("APIErrors = %d, want 0 (recovered calls are not errors)", snap.APIErrors)
	}
}

func TestClient_ServerErrorRetriesThenFails(t *testing.T) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	session := stats.NewSession()
	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, session)

	err := client.GetJSON(context.Background(), server.URL, nil, nil)
	if !errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Fatalf("GetJSON() error = %v, want ErrMaxAttemptsExceeded", err)
	}

	var ue *httpclient.UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusInternalServerError {
		t.Errorf("error should wrap UpstreamError 500, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}

	snap := session.Snapshot()
	if snap.APICalls != 3 {
		t.Errorf("APICalls = %d, want 3", snap.APICalls)
	}
	if snap.APIErrors != 1 {
		t.Errorf("APIErrors = %d, want 1 (one terminal failure)", snap.APIErrors)
	}
}

func TestClient_ClientErrorFailsFast(t *testing.T) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, nil)

	err := client.GetJSON(context.Background(), server.URL, nil, nil)

	var ue *httpclient.UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusBadRequest {
		t.Fatalf("GetJSON() error = %v, want UpstreamError 400", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1 (4xx must not retry)", got)
	}
}

func TestClient_MalformedBodyFailsFast(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"truncated`)) //nolint:errcheck
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, nil)

	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, nil, &out)
	if !errors.Is(err, httpclient.ErrInvalidResponse) {
		t.Errorf("GetJSON() error = %v, want ErrInvalidResponse", err)
	}
}

func TestClient_PostJSON_SendsBody(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		w.Write([]byte(`{"echoed":true}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Config{Retry: fastRetry(3)}, nil, nil)

	var out struct {
		Echoed bool `json:"echoed"`
	}
	err := client.PostJSON(context.Background(), server.URL, nil, map[string]string{"title": "x"}, &out)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if !out.Echoed {
		t.Error("expected echoed response")
	}
}
