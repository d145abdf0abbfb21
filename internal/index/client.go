// Package index stores processed headlines in Elasticsearch: bulk upload,
// per-document reconciliation, and search over the indexed titles.
package index

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/retry"
)

// ClientConfig configures the Elasticsearch connection.
type ClientConfig struct {
	URL      string
	Username string
	Password string
	APIKey   string
	// Timeout bounds waiting for response headers on each request.
	Timeout time.Duration
}

// pingTimeout bounds the connection check.
const pingTimeout = 10 * time.Second

// NewClient creates and verifies an Elasticsearch client. Connection
// verification retries with backoff so a store that is still starting up
// does not fail the run.
func NewClient(ctx context.Context, cfg ClientConfig, log logger.Logger) (*es.Client, error) {
	if log == nil {
		log = logger.NewNop()
	}

	clientConfig := es.Config{
		Addresses: []string{normalizeURL(cfg.URL)},
	}
	if cfg.Timeout > 0 {
		clientConfig.Transport = &http.Transport{ResponseHeaderTimeout: cfg.Timeout}
	}
	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	} else if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		return ping(ctx, client)
	})
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	log.Info("elasticsearch connection established", logger.String("url", cfg.URL))
	return client, nil
}

func ping(ctx context.Context, client *es.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: timeout: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ping: %s", res.String())
	}
	return nil
}

func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}
