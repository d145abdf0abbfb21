// Package stats tracks session-level pipeline counters. Counters are safe
// for concurrent use from worker goroutines; derived rates guard their
// denominators so an empty session reports zero rather than NaN.
package stats

import (
	"sync/atomic"
	"time"
)

// Session accumulates counters for one pipeline run.
type Session struct {
	startedAt time.Time

	fetched         atomic.Int64
	processed       atomic.Int64
	rewriteAttempts atomic.Int64
	rewritten       atomic.Int64
	skipped         atomic.Int64
	failed          atomic.Int64
	uploaded        atomic.Int64
	uploadFailed    atomic.Int64
	apiCalls        atomic.Int64
	apiErrors       atomic.Int64
}

// NewSession returns a Session with all counters at zero.
func NewSession() *Session {
	return &Session{startedAt: time.Now()}
}

// AddFetched records n articles returned by the source.
func (s *Session) AddFetched(n int) { s.fetched.Add(int64(n)) }

// AddProcessed records n headlines that completed classification.
func (s *Session) AddProcessed(n int) { s.processed.Add(int64(n)) }

// AddRewriteAttempts records n headlines sent to the rewriter.
func (s *Session) AddRewriteAttempts(n int) { s.rewriteAttempts.Add(int64(n)) }

// AddRewritten records n headlines successfully rewritten.
func (s *Session) AddRewritten(n int) { s.rewritten.Add(int64(n)) }

// AddSkipped records n headlines uploaded unchanged.
func (s *Session) AddSkipped(n int) { s.skipped.Add(int64(n)) }

// AddFailed records n headlines abandoned mid-pipeline.
func (s *Session) AddFailed(n int) { s.failed.Add(int64(n)) }

// AddUploaded records n documents acknowledged by the index.
func (s *Session) AddUploaded(n int) { s.uploaded.Add(int64(n)) }

// AddUploadFailed records n documents the index rejected or dropped.
func (s *Session) AddUploadFailed(n int) { s.uploadFailed.Add(int64(n)) }

// IncAPICalls records n outbound request attempts.
func (s *Session) IncAPICalls(n int) { s.apiCalls.Add(int64(n)) }

// IncAPIErrors records n terminally failed outbound calls.
func (s *Session) IncAPIErrors(n int) { s.apiErrors.Add(int64(n)) }

// Snapshot is a point-in-time copy of the session counters and rates.
type Snapshot struct {
	Fetched            int64         `json:"fetched"`
	Processed          int64         `json:"processed"`
	RewriteAttempts    int64         `json:"rewrite_attempts"`
	Rewritten          int64         `json:"rewritten"`
	Skipped            int64         `json:"skipped"`
	Failed             int64         `json:"failed"`
	Uploaded           int64         `json:"uploaded"`
	UploadFailed       int64         `json:"upload_failed"`
	APICalls           int64         `json:"api_calls"`
	APIErrors          int64         `json:"api_errors"`
	RewriteSuccessRate float64       `json:"rewrite_success_rate"`
	APIErrorRate       float64       `json:"api_error_rate"`
	ProcessingPerMin   float64       `json:"processing_per_min"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Snapshot returns a consistent-enough copy of the counters. Counters are
// read individually, so a snapshot taken mid-batch may straddle updates;
// rates are always computed from the values actually read.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Fetched:         s.fetched.Load(),
		Processed:       s.processed.Load(),
		RewriteAttempts: s.rewriteAttempts.Load(),
		Rewritten:       s.rewritten.Load(),
		Skipped:         s.skipped.Load(),
		Failed:          s.failed.Load(),
		Uploaded:        s.uploaded.Load(),
		UploadFailed:    s.uploadFailed.Load(),
		APICalls:        s.apiCalls.Load(),
		APIErrors:       s.apiErrors.Load(),
		Elapsed:         time.Since(s.startedAt),
	}
	snap.RewriteSuccessRate = rate(snap.Rewritten, snap.RewriteAttempts)
	snap.APIErrorRate = rate(snap.APIErrors, snap.APICalls)

	minutes := snap.Elapsed.Minutes()
	if minutes > 0 {
		snap.ProcessingPerMin = float64(snap.Processed) / minutes
	}
	return snap
}

// rate divides num by denom with a floor of 1 on the denominator.
func rate(num, denom int64) float64 {
	return float64(num) / float64(max(int64(1), denom))
}
