package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/newsperspective/pipeline/internal/classifier"
	"github.com/newsperspective/pipeline/internal/clickbait"
	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/fetch"
	"github.com/newsperspective/pipeline/internal/index"
	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/stats"
)

// ErrAllBatchesFailed reports a run in which no batch produced a single
// uploaded document. Callers should exit non-zero.
var ErrAllBatchesFailed = errors.New("scheduler: all batches failed")

// BulkUploader indexes a batch of documents and reports per-item results.
type BulkUploader interface {
	Upload(ctx context.Context, docs []domain.Document) (*index.BulkResponse, error)
}

// ReliabilityUpdater records clickbait observations per source.
type ReliabilityUpdater interface {
	Update(ctx context.Context, source string, score float64, isClickbait bool)
}

// Config sizes a run.
type Config struct {
	// TargetTotal is the number of headlines the run aims to process.
	TargetTotal int
	// BatchSize is how many headlines each iteration handles.
	BatchSize int
	// BatchDelay is the pause between iterations.
	BatchDelay time.Duration
	// Workers is the per-batch concurrency for classification and rewrite.
	Workers int
}

func (c *Config) applyDefaults() {
	if c.TargetTotal <= 0 {
		c.TargetTotal = 50
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Summary describes a finished (or cancelled) run.
type Summary struct {
	BatchesPlanned  int
	BatchesRun      int
	BatchesFailed   int
	SourceExhausted bool
	Cancelled       bool
	Stats           stats.Snapshot
}

// Scheduler walks a source in fixed-size batches and pushes each batch
// through the full sub-pipeline before moving on.
type Scheduler struct {
	cfg       Config
	source    fetch.Source
	validator *fetch.Validator
	processor *itemProcessor
	uploader  BulkUploader
	tracker   ReliabilityUpdater
	session   *stats.Session
	telemetry *stats.Telemetry
	log       logger.Logger

	processed int
}

// Deps bundles the scheduler's collaborators.
type Deps struct {
	Source     fetch.Source
	Validator  *fetch.Validator
	Analyzer   SentimentAnalyzer
	Classifier *classifier.Classifier
	Detector   *clickbait.Detector
	Extractor  ContentExtractor
	Rewriter   RewriteGenerator
	Uploader   BulkUploader
	Tracker    ReliabilityUpdater
	Session    *stats.Session
	Telemetry  *stats.Telemetry
	Logger     logger.Logger
}

// New wires a scheduler. Session and Logger fall back to fresh/no-op
// instances; everything else is required.
func New(cfg Config, deps Deps) *Scheduler {
	cfg.applyDefaults()

	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	session := deps.Session
	if session == nil {
		session = stats.NewSession()
	}

	return &Scheduler{
		cfg:       cfg,
		source:    deps.Source,
		validator: deps.Validator,
		processor: &itemProcessor{
			analyzer:   deps.Analyzer,
			classifier: deps.Classifier,
			detector:   deps.Detector,
			extractor:  deps.Extractor,
			rewriter:   deps.Rewriter,
			session:    session,
			telemetry:  deps.Telemetry,
			workers:    cfg.Workers,
			log:        log,
		},
		uploader:  deps.Uploader,
		tracker:   deps.Tracker,
		session:   session,
		telemetry: deps.Telemetry,
		log:       log,
	}
}

// Processed reports how many headlines the run has handled so far. A
// caller resuming an interrupted run can subtract this from the target.
func (s *Scheduler) Processed() int {
	return s.processed
}

// Run executes the batch loop until the target is reached, the source is
// exhausted, or ctx is cancelled. The returned Summary is valid in every
// case, including cancellation.
func (s *Scheduler) Run(ctx context.Context) (Summary, error) {
	batches := (s.cfg.TargetTotal + s.cfg.BatchSize - 1) / s.cfg.BatchSize
	summary := Summary{BatchesPlanned: batches}

	s.log.Info("starting run",
		logger.String("source", s.source.Name()),
		logger.Int("target", s.cfg.TargetTotal),
		logger.Int("batch_size", s.cfg.BatchSize),
		logger.Int("batches", batches))

	anySucceeded := false

	for batch := 1; batch <= batches; batch++ {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		summary.BatchesRun++
		ok, exhausted := s.runBatch(ctx, batch)
		if !ok {
			summary.BatchesFailed++
		} else {
			anySucceeded = true
		}
		if exhausted {
			summary.SourceExhausted = true
			s.log.Info("source exhausted, stopping early",
				logger.Int("batch", batch),
				logger.Int("processed", s.processed))
			break
		}

		if batch < batches && s.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				summary.Cancelled = true
			case <-time.After(s.cfg.BatchDelay):
			}
			if summary.Cancelled {
				break
			}
		}
	}

	summary.Stats = s.session.Snapshot()
	s.logSummary(summary)

	if summary.BatchesRun > 0 && !anySucceeded {
		return summary, ErrAllBatchesFailed
	}
	return summary, nil
}

// runBatch executes one iteration of the sub-pipeline. It reports whether
// the batch produced at least one uploaded document and whether the
// source ran out of headlines.
func (s *Scheduler) runBatch(ctx context.Context, batch int) (ok, exhausted bool) {
	start := time.Now()

	articles, hasMore, err := s.source.FetchPage(ctx, batch, s.cfg.BatchSize)
	if err != nil {
		if len(articles) == 0 {
			// A fetch failure costs this batch only.
			s.log.Error("fetch failed, skipping batch",
				logger.Int("batch", batch),
				logger.Error(err))
			s.session.AddFailed(s.cfg.BatchSize)
			return false, false
		}
		// A multi-source fetch can fail partially; the articles the
		// healthy sources returned are still a usable page.
		s.log.Warn("fetch partially failed, continuing with partial page",
			logger.Int("batch", batch),
			logger.Int("articles", len(articles)),
			logger.Error(err))
	}
	s.session.AddFetched(len(articles))
	if len(articles) == 0 {
		// An empty source is exhaustion, not failure.
		return true, !hasMore
	}

	if s.validator != nil {
		articles = s.validator.Filter(articles)
	}
	if len(articles) == 0 {
		s.log.Warn("no articles survived validation", logger.Int("batch", batch))
		return false, !hasMore
	}

	results := s.processor.processBatch(ctx, articles)

	docs := make([]domain.Document, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			s.log.Warn("headline failed",
				logger.String("title", r.article.Title),
				logger.Error(r.err))
			continue
		}
		docs = append(docs, r.document)
		if s.tracker != nil {
			s.tracker.Update(ctx, r.article.Source, r.document.ClickbaitScore, r.document.IsClickbait)
		}
	}

	uploaded := s.uploadBatch(ctx, docs)
	s.processed += len(results)

	s.telemetry.ObserveBatch(time.Since(start), len(articles))
	s.log.Info("batch complete",
		logger.Int("batch", batch),
		logger.Int("articles", len(articles)),
		logger.Int("uploaded", uploaded),
		logger.Duration("took", time.Since(start)))

	return uploaded > 0, !hasMore
}

// uploadBatch indexes the surviving documents and reconciles the bulk
// response into per-document outcomes.
func (s *Scheduler) uploadBatch(ctx context.Context, docs []domain.Document) int {
	if len(docs) == 0 {
		return 0
	}

	submitted := make([]string, len(docs))
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = domain.NewDocumentID()
		}
		submitted[i] = docs[i].ID
	}

	resp, err := s.uploader.Upload(ctx, docs)

	var outcomes []domain.UploadOutcome
	if err != nil {
		s.log.Error("bulk upload failed", logger.Error(err))
		outcomes = index.ReconcileTransportFailure(submitted, err)
	} else {
		outcomes = index.Reconcile(submitted, resp)
	}

	uploaded := 0
	for _, o := range outcomes {
		if o.Status == domain.UploadSucceeded {
			uploaded++
			continue
		}
		s.log.Warn("document not indexed",
			logger.String("document_id", o.DocumentID),
			logger.String("error", o.Error))
	}
	s.session.AddUploaded(uploaded)
	s.session.AddUploadFailed(len(outcomes) - uploaded)
	s.telemetry.RecordUpload(stats.UploadOK, uploaded)
	s.telemetry.RecordUpload(stats.UploadFailed, len(outcomes)-uploaded)
	return uploaded
}

func (s *Scheduler) logSummary(summary Summary) {
	snap := summary.Stats
	s.log.Info("run finished",
		logger.Int("batches_run", summary.BatchesRun),
		logger.Int("batches_failed", summary.BatchesFailed),
		logger.Bool("cancelled", summary.Cancelled),
		logger.Int64("processed", snap.Processed),
		logger.Int64("rewritten", snap.Rewritten),
		logger.Int64("skipped", snap.Skipped),
		logger.Int64("failed", snap.Failed),
		logger.Int64("uploaded", snap.Uploaded),
		logger.Float64("rewrite_success_rate", snap.RewriteSuccessRate),
		logger.Float64("api_error_rate", snap.APIErrorRate),
		logger.Duration("elapsed", snap.Elapsed))
}
