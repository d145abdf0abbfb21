package index_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/index"
)

func TestReconcile_MatchesByIDNotPosition(t *testing.T) {
	t.Helper()

	submitted := []string{"a", "b", "c"}
	// Response deliberately reordered.
	resp := &index.BulkResponse{Items: []index.BulkItem{
		{ID: "c", Status: 201},
		{ID: "a", Status: 200},
		{ID: "b", Status: 400, Error: "mapper_parsing_exception: bad field"},
	}}

	outcomes := index.Reconcile(submitted, resp)

	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	if outcomes[0].DocumentID != "a" || outcomes[0].Status != domain.UploadSucceeded {
		t.Errorf("outcome[0] = %+v, want a succeeded", outcomes[0])
	}
	if outcomes[1].DocumentID != "b" || outcomes[1].Status != domain.UploadFailed {
		t.Errorf("outcome[1] = %+v, want b failed", outcomes[1])
	}
	if outcomes[2].DocumentID != "c" || outcomes[2].Status != domain.UploadSucceeded {
		t.Errorf("outcome[2] = %+v, want c succeeded", outcomes[2])
	}
}

func TestReconcile_NonstandardStatusGetsMessage(t *testing.T) {
	t.Helper()

	resp := &index.BulkResponse{Items: []index.BulkItem{
		{ID: "a", Status: 599},
	}}

	outcomes := index.Reconcile([]string{"a"}, resp)

	if len(outcomes) != 1 || outcomes[0].Status != domain.UploadFailed {
		t.Fatalf("outcomes = %+v, want one failure", outcomes)
	}
	if outcomes[0].Error != "status 599" {
		t.Errorf("Error = %q, want status 599", outcomes[0].Error)
	}
}

func TestReconcile_TwentyDocsOneMissingOneFailed(t *testing.T) {
	t.Helper()

	submitted := make([]string, 20)
	var items []index.BulkItem
	for i := range submitted {
		submitted[i] = fmt.Sprintf("doc-%02d", i)
		switch i {
		case 7:
			// Omitted from the response entirely.
		case 13:
			items = append(items, index.BulkItem{ID: submitted[i], Status: 429, Error: "rejected"})
		default:
			items = append(items, index.BulkItem{ID: submitted[i], Status: 201})
		}
	}

	outcomes := index.Reconcile(submitted, &index.BulkResponse{Errors: true, Items: items})

	if len(outcomes) != 20 {
		t.Fatalf("len(outcomes) = %d, want 20", len(outcomes))
	}

	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Status == domain.UploadSucceeded {
			succeeded++
		} else {
			failed++
		}
	}
	if succeeded != 18 || failed != 2 {
		t.Errorf("succeeded = %d, failed = %d; want 18, 2", succeeded, failed)
	}

	if outcomes[7].Error != "missing from response" {
		t.Errorf("outcome[7].Error = %q, want missing from response", outcomes[7].Error)
	}
	if outcomes[13].Error != "rejected" {
		t.Errorf("outcome[13].Error = %q, want rejected", outcomes[13].Error)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Helper()

	submitted := []string{"x", "y", "z"}
	resp := &index.BulkResponse{Items: []index.BulkItem{
		{ID: "x", Status: 201},
		{ID: "z", Status: 500, Error: "boom"},
	}}

	first := index.Reconcile(submitted, resp)
	second := index.Reconcile(submitted, resp)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconcile not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestReconcile_OutcomesDrawnFromSubmitted(t *testing.T) {
	t.Helper()

	submitted := []string{"a", "b"}
	// Response contains an ID that was never submitted.
	resp := &index.BulkResponse{Items: []index.BulkItem{
		{ID: "a", Status: 201},
		{ID: "rogue", Status: 201},
	}}

	outcomes := index.Reconcile(submitted, resp)

	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2 (one per submitted id)", len(outcomes))
	}
	for _, o := range outcomes {
		if o.DocumentID != "a" && o.DocumentID != "b" {
			t.Errorf("unexpected outcome id %q", o.DocumentID)
		}
	}
	if outcomes[1].Status != domain.UploadFailed {
		t.Errorf("b should be failed as missing, got %+v", outcomes[1])
	}
}

func TestReconcileTransportFailure(t *testing.T) {
	t.Helper()

	submitted := []string{"a", "b", "c"}
	outcomes := index.ReconcileTransportFailure(submitted, errors.New("connection refused"))

	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != domain.UploadFailed {
			t.Errorf("outcome %s = %s, want failed", o.DocumentID, o.Status)
		}
		if o.Error != "connection refused" {
			t.Errorf("outcome error = %q", o.Error)
		}
	}
}
