// Package scheduler drives the batch pipeline: fetch, classify, rewrite,
// upload, reconcile, repeat.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/newsperspective/pipeline/internal/analyzer"
	"github.com/newsperspective/pipeline/internal/classifier"
	"github.com/newsperspective/pipeline/internal/clickbait"
	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/rewriter"
	"github.com/newsperspective/pipeline/internal/stats"
)

// SentimentAnalyzer scores headline text.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, title string) (domain.SentimentResult, error)
}

// RewriteGenerator produces a rewritten title in the requested tone.
type RewriteGenerator interface {
	Rewrite(ctx context.Context, title string, tone domain.Tone) (domain.RewriteResult, error)
}

// ContentExtractor pulls article text for headline/content comparison.
type ContentExtractor interface {
	FromURL(ctx context.Context, url string) (string, error)
}

// itemResult is one article's journey through the batch sub-pipeline.
type itemResult struct {
	article  domain.Article
	document domain.Document
	decision domain.Decision
	err      error
}

// itemProcessor runs the per-article pipeline inside a worker pool.
type itemProcessor struct {
	analyzer   SentimentAnalyzer
	classifier *classifier.Classifier
	detector   *clickbait.Detector
	extractor  ContentExtractor
	rewriter   RewriteGenerator
	session    *stats.Session
	telemetry  *stats.Telemetry
	workers    int
	log        logger.Logger
}

// processBatch classifies and rewrites a batch concurrently. Failures are
// isolated per item; every input article yields exactly one result.
func (p *itemProcessor) processBatch(ctx context.Context, articles []domain.Article) []itemResult {
	if len(articles) == 0 {
		return nil
	}

	jobs := make(chan domain.Article, len(articles))
	results := make(chan itemResult, len(articles))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	for _, a := range articles {
		jobs <- a
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]itemResult, 0, len(articles))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (p *itemProcessor) worker(ctx context.Context, jobs <-chan domain.Article, results chan<- itemResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for article := range jobs {
		select {
		case <-ctx.Done():
			p.session.AddFailed(1)
			p.telemetry.RecordFailure()
			results <- itemResult{article: article, err: ctx.Err()}
			continue
		default:
		}

		results <- p.processItem(ctx, article)
	}
}

// processItem runs one article through analyze, classify, clickbait
// scoring, and (when the decision asks for it) rewrite.
func (p *itemProcessor) processItem(ctx context.Context, article domain.Article) itemResult {
	res := itemResult{article: article}

	sentiment, err := p.analyzer.Analyze(ctx, article.Title)
	if err != nil {
		// Degraded scores route the headline through the low-confidence
		// skip instead of failing the item.
		p.log.Warn("sentiment analysis unavailable, using degraded scores",
			logger.String("title", article.Title),
			logger.Error(err))
		sentiment = analyzer.DegradedResult()
	}

	decision := p.classifier.Classify(article.Title, sentiment)
	res.decision = decision

	clickbaitAnalysis := p.analyzeClickbait(ctx, article, sentiment)

	doc := domain.Document{
		ID:               domain.NewDocumentID(),
		OriginalTitle:    article.Title,
		RewrittenTitle:   article.Title,
		Source:           article.Source,
		PublishedDate:    article.PublishedAt,
		ArticleURL:       article.URL,
		OriginalTone:     classifier.OriginalTone(decision),
		ConfidenceScore:  sentiment.Confidence,
		RewriteReason:    decision.Reason,
		ClickbaitScore:   clickbaitAnalysis.Score,
		IsClickbait:      clickbaitAnalysis.IsClickbait,
		ClickbaitReasons: clickbaitReasons(clickbaitAnalysis),
	}

	if decision.IsRewrite() {
		p.session.AddRewriteAttempts(1)

		result, rewriteErr := p.rewriter.Rewrite(ctx, article.Title, decision.Tone)
		switch {
		case rewriteErr == nil:
			doc.RewrittenTitle = result.Title
			doc.WasRewritten = true
			p.session.AddRewritten(1)
			p.telemetry.RecordOutcome(stats.OutcomeRewritten)
		case errors.Is(rewriteErr, rewriter.ErrEmptyResponse):
			// The model produced nothing usable; keep the original title
			// rather than dropping the article.
			doc.RewriteReason = "generation failed"
			p.session.AddSkipped(1)
			p.telemetry.RecordOutcome(stats.OutcomeSkipped)
		default:
			res.err = fmt.Errorf("rewrite %q: %w", article.Title, rewriteErr)
			p.session.AddFailed(1)
			p.telemetry.RecordFailure()
			return res
		}
	} else {
		p.session.AddSkipped(1)
		p.telemetry.RecordOutcome(stats.OutcomeSkipped)
	}

	p.session.AddProcessed(1)
	res.document = doc
	return res
}

func (p *itemProcessor) analyzeClickbait(ctx context.Context, article domain.Article, headlineSentiment domain.SentimentResult) clickbait.Analysis {
	var contentSentiment *domain.SentimentResult

	if p.extractor != nil && article.URL != "" {
		content, err := p.extractor.FromURL(ctx, article.URL)
		if err != nil {
			p.log.Debug("article content unavailable",
				logger.String("url", article.URL),
				logger.Error(err))
		} else if content != "" {
			if s, analyzeErr := p.analyzer.Analyze(ctx, content); analyzeErr == nil {
				contentSentiment = &s
			}
		}
	}

	return p.detector.Analyze(article.Title, headlineSentiment, contentSentiment)
}

// clickbaitReasons flattens the analysis into the single field the index
// mapping expects.
func clickbaitReasons(a clickbait.Analysis) string {
	reasons := append([]string(nil), a.Reasons...)
	for _, m := range a.Matches {
		reasons = append(reasons, fmt.Sprintf("%s pattern: %q", m.Category, m.Pattern))
	}
	return strings.Join(reasons, "; ")
}
