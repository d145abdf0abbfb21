package index

import (
	"fmt"
	"net/http"

	"github.com/newsperspective/pipeline/internal/domain"
)

// missingFromResponse marks documents the store never reported back.
const missingFromResponse = "missing from response"

// Reconcile matches submitted document IDs against the bulk response by ID,
// never by position, since the store may reorder results. Every submitted
// ID yields exactly one outcome, in submission order; IDs absent from the
// response are failures. Pure function: the same inputs always produce the
// same outcomes.
func Reconcile(submitted []string, resp *BulkResponse) []domain.UploadOutcome {
	byID := make(map[string]BulkItem, len(resp.Items))
	for _, item := range resp.Items {
		byID[item.ID] = item
	}

	outcomes := make([]domain.UploadOutcome, 0, len(submitted))
	for _, id := range submitted {
		item, found := byID[id]
		switch {
		case !found:
			outcomes = append(outcomes, domain.UploadOutcome{
				DocumentID: id,
				Status:     domain.UploadFailed,
				Error:      missingFromResponse,
			})
		case item.Status == http.StatusOK || item.Status == http.StatusCreated:
			outcomes = append(outcomes, domain.UploadOutcome{
				DocumentID: id,
				Status:     domain.UploadSucceeded,
			})
		default:
			msg := item.Error
			if msg == "" {
				msg = http.StatusText(item.Status)
			}
			if msg == "" {
				// Nonstandard status codes have no text.
				msg = fmt.Sprintf("status %d", item.Status)
			}
			outcomes = append(outcomes, domain.UploadOutcome{
				DocumentID: id,
				Status:     domain.UploadFailed,
				Error:      msg,
			})
		}
	}
	return outcomes
}

// ReconcileTransportFailure marks every submitted document failed with the
// transport error. Used when the bulk call itself failed before producing a
// parseable response.
func ReconcileTransportFailure(submitted []string, err error) []domain.UploadOutcome {
	outcomes := make([]domain.UploadOutcome, 0, len(submitted))
	for _, id := range submitted {
		outcomes = append(outcomes, domain.UploadOutcome{
			DocumentID: id,
			Status:     domain.UploadFailed,
			Error:      err.Error(),
		})
	}
	return outcomes
}
