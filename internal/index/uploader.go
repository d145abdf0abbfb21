package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
)

// BulkItem is the store's verdict for one submitted document.
type BulkItem struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BulkResponse is the parsed per-item result of a bulk upload.
type BulkResponse struct {
	Took   int        `json:"took"`
	Errors bool       `json:"errors"`
	Items  []BulkItem `json:"items"`
}

// Uploader writes documents to one index in bulk.
type Uploader struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewUploader creates an Uploader for the given index.
func NewUploader(client *es.Client, index string, log logger.Logger) *Uploader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Uploader{client: client, index: index, log: log}
}

// Upload submits the documents as one bulk request and returns the parsed
// per-item results. A transport-level failure returns an error and no
// response; the caller marks every submitted document failed.
func (u *Uploader) Upload(ctx context.Context, docs []domain.Document) (*BulkResponse, error) {
	if len(docs) == 0 {
		return &BulkResponse{}, nil
	}

	var buf bytes.Buffer
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = domain.NewDocumentID()
		}
		if docs[i].IndexedAt.IsZero() {
			docs[i].IndexedAt = time.Now().UTC()
		}

		meta := map[string]any{
			"index": map[string]any{
				"_index": u.index,
				"_id":    docs[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return nil, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(docs[i]); err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
	}

	res, err := u.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		u.client.Bulk.WithContext(ctx),
		u.client.Bulk.WithIndex(u.index),
	)
	if err != nil {
		return nil, fmt.Errorf("bulk upload: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("bulk upload: %s", res.String())
	}

	var raw struct {
		Took   int  `json:"took"`
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse bulk response: %w", err)
	}

	resp := &BulkResponse{Took: raw.Took, Errors: raw.Errors}
	for _, item := range raw.Items {
		// Each item has a single action key ("index" here).
		for _, action := range item {
			bi := BulkItem{ID: action.ID, Status: action.Status}
			if action.Error != nil {
				bi.Error = fmt.Sprintf("%s: %s", action.Error.Type, action.Error.Reason)
			}
			resp.Items = append(resp.Items, bi)
		}
	}

	u.log.Debug("bulk upload complete",
		logger.Int("submitted", len(docs)),
		logger.Int("items", len(resp.Items)),
		logger.Bool("errors", resp.Errors))

	return resp, nil
}
