package stats_test

import (
	"sync"
	"testing"

	"github.com/newsperspective/pipeline/internal/stats"
)

func TestSession_Snapshot(t *testing.T) {
	t.Helper()

	s := stats.NewSession()
	s.AddProcessed(10)
	s.AddRewriteAttempts(5)
	s.AddRewritten(4)
	s.AddSkipped(6)
	s.AddUploaded(9)
	s.AddUploadFailed(1)
	s.IncAPICalls(25)
	s.IncAPIErrors(5)

	snap := s.Snapshot()

	if snap.Processed != 10 {
		t.Errorf("Processed = %d, want 10", snap.Processed)
	}
	if snap.RewriteSuccessRate != 0.8 {
		t.Errorf("RewriteSuccessRate = %f, want 0.8", snap.RewriteSuccessRate)
	}
	if snap.APIErrorRate != 0.2 {
		t.Errorf("APIErrorRate = %f, want 0.2", snap.APIErrorRate)
	}
	if snap.ProcessingPerMin <= 0 {
		t.Errorf("ProcessingPerMin = %f, want > 0", snap.ProcessingPerMin)
	}
}

func TestSession_EmptySessionRatesAreZero(t *testing.T) {
	t.Helper()

	snap := stats.NewSession().Snapshot()

	if snap.RewriteSuccessRate != 0 {
		t.Errorf("RewriteSuccessRate = %f, want 0", snap.RewriteSuccessRate)
	}
	if snap.APIErrorRate != 0 {
		t.Errorf("APIErrorRate = %f, want 0", snap.APIErrorRate)
	}
}

func TestSession_ErrorsWithoutCalls(t *testing.T) {
	t.Helper()

	s := stats.NewSession()
	s.IncAPIErrors(3)

	// Denominator floors at 1 so the rate stays finite.
	if got := s.Snapshot().APIErrorRate; got != 3 {
		t.Errorf("APIErrorRate = %f, want 3", got)
	}
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	t.Helper()

	s := stats.NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.AddProcessed(1)
				s.IncAPICalls(1)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Processed != 2000 {
		t.Errorf("Processed = %d, want 2000", snap.Processed)
	}
	if snap.APICalls != 2000 {
		t.Errorf("APICalls = %d, want 2000", snap.APICalls)
	}
}
