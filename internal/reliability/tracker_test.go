package reliability_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/newsperspective/pipeline/internal/reliability"
)

func TestTracker_UpdateAndGet(t *testing.T) {
	t.Helper()

	tr := reliability.NewTracker(context.Background(), nil, nil)

	tr.Update(context.Background(), "Example Times", 40, false)
	tr.Update(context.Background(), "example times ", 60, true)

	rec, ok := tr.Get("EXAMPLE TIMES")
	if !ok {
		t.Fatal("Get() should find the normalized source")
	}
	if rec.TotalArticles != 2 {
		t.Errorf("TotalArticles = %d, want 2 (names must normalize to one key)", rec.TotalArticles)
	}
	if rec.AverageScore != 50 {
		t.Errorf("AverageScore = %f, want 50", rec.AverageScore)
	}
	if rec.ClickbaitCount != 1 {
		t.Errorf("ClickbaitCount = %d, want 1", rec.ClickbaitCount)
	}
}

func TestTracker_RatingNeedsHistory(t *testing.T) {
	t.Helper()

	tr := reliability.NewTracker(context.Background(), nil, nil)

	for i := 0; i < 9; i++ {
		tr.Update(context.Background(), "fresh source", 10, false)
	}
	rec, _ := tr.Get("fresh source")
	if rec.Rating != reliability.RatingUnknown {
		t.Errorf("Rating = %s, want unknown below 10 articles", rec.Rating)
	}

	tr.Update(context.Background(), "fresh source", 10, false)
	rec, _ = tr.Get("fresh source")
	if rec.Rating != reliability.RatingExcellent {
		t.Errorf("Rating = %s, want excellent at avg 10", rec.Rating)
	}
}

func TestTracker_RatingBoundaries(t *testing.T) {
	t.Helper()

	tests := []struct {
		score float64
		want  string
	}{
		{29, reliability.RatingExcellent},
		{30, reliability.RatingGood},
		{49, reliability.RatingGood},
		{50, reliability.RatingModerate},
		{69, reliability.RatingModerate},
		{70, reliability.RatingPoor},
	}

	for _, tt := range tests {
		tr := reliability.NewTracker(context.Background(), nil, nil)
		for i := 0; i < 10; i++ {
			tr.Update(context.Background(), "s", tt.score, false)
		}
		rec, _ := tr.Get("s")
		if rec.Rating != tt.want {
			t.Errorf("avg %f: Rating = %s, want %s", tt.score, rec.Rating, tt.want)
		}
	}
}

func TestTracker_ConcurrentUpdatesLoseNothing(t *testing.T) {
	t.Helper()

	tr := reliability.NewTracker(context.Background(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(context.Background(), "busy source", 50, false)
			}
		}()
	}
	wg.Wait()

	rec, _ := tr.Get("busy source")
	if rec.TotalArticles != 1000 {
		t.Errorf("TotalArticles = %d, want 1000", rec.TotalArticles)
	}
	if rec.AverageScore != 50 {
		t.Errorf("AverageScore = %f, want 50", rec.AverageScore)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "source_reliability.json")
	store := reliability.NewFileStore(path)

	tr := reliability.NewTracker(context.Background(), store, nil)
	for i := 0; i < 10; i++ {
		tr.Update(context.Background(), "persisted source", 20, false)
	}

	// The 10th update crossed the flush boundary.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected flushed state file: %v", err)
	}

	reloaded := reliability.NewTracker(context.Background(), store, nil)
	rec, ok := reloaded.Get("persisted source")
	if !ok {
		t.Fatal("reloaded tracker missing source")
	}
	if rec.TotalArticles != 10 {
		t.Errorf("TotalArticles = %d, want 10", rec.TotalArticles)
	}
	if rec.Rating != reliability.RatingExcellent {
		t.Errorf("Rating = %s, want excellent", rec.Rating)
	}
}

func TestNewTracker_CorruptStateDegrades(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source_reliability.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	tr := reliability.NewTracker(context.Background(), reliability.NewFileStore(path), nil)

	if len(tr.Snapshot()) != 0 {
		t.Error("corrupt state should degrade to an empty tracker")
	}

	// The tracker still works after degrading.
	tr.Update(context.Background(), "s", 10, false)
	if _, ok := tr.Get("s"); !ok {
		t.Error("tracker should accept updates after degraded load")
	}
}

func TestTracker_Report(t *testing.T) {
	t.Helper()

	tr := reliability.NewTracker(context.Background(), nil, nil)

	for i := 0; i < 10; i++ {
		tr.Update(context.Background(), "good source", 20, false)
	}
	for i := 0; i < 10; i++ {
		tr.Update(context.Background(), "bad source", 80, true)
	}
	tr.Update(context.Background(), "thin source", 10, false) // below report minimum

	report := tr.Report()

	if report.TotalSources != 3 {
		t.Errorf("TotalSources = %d, want 3", report.TotalSources)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2 (thin source excluded)", len(report.Sources))
	}
	if report.Sources[0].Name != "good source" {
		t.Errorf("first ranked = %s, want good source (lowest average first)", report.Sources[0].Name)
	}
	if report.Sources[1].ClickbaitPercentage != 100 {
		t.Errorf("ClickbaitPercentage = %f, want 100", report.Sources[1].ClickbaitPercentage)
	}
	if report.Summary[reliability.RatingExcellent] != 1 || report.Summary[reliability.RatingPoor] != 1 {
		t.Errorf("Summary = %v", report.Summary)
	}
}
