// Package run implements the command that executes a full batch run:
// fetch, classify, rewrite, upload, reconcile.
package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/newsperspective/pipeline/cmd/common"
	"github.com/newsperspective/pipeline/internal/analyzer"
	"github.com/newsperspective/pipeline/internal/classifier"
	"github.com/newsperspective/pipeline/internal/clickbait"
	"github.com/newsperspective/pipeline/internal/config"
	"github.com/newsperspective/pipeline/internal/extract"
	"github.com/newsperspective/pipeline/internal/fetch"
	"github.com/newsperspective/pipeline/internal/httpclient"
	"github.com/newsperspective/pipeline/internal/index"
	"github.com/newsperspective/pipeline/internal/logger"
	"github.com/newsperspective/pipeline/internal/retry"
	"github.com/newsperspective/pipeline/internal/rewriter"
	"github.com/newsperspective/pipeline/internal/scheduler"
	"github.com/newsperspective/pipeline/internal/stats"
)

// Command returns the run command. cfgFile and debug point at the root
// command's persistent flags.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		total     int
		batchSize int
		delay     time.Duration
		source    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the headline pipeline",
		Long: `Fetch headlines in batches, classify each one, rewrite the negative and
sensational ones through the language model, and upload the results to
Elasticsearch. Interrupting the run flushes state and prints a partial
summary.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			// Flag overrides beat config.
			cfg := deps.Config
			if total > 0 {
				cfg.Service.TotalArticles = total
			}
			if batchSize > 0 {
				cfg.Service.BatchSize = batchSize
			}
			if delay > 0 {
				cfg.Service.BatchDelay = delay
			}
			if source != "" {
				cfg.Service.SourceMode = source
			}

			return execute(cmd, deps)
		},
	}

	cmd.Flags().IntVarP(&total, "total", "t", 0, "total headlines to process (overrides config)")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "headlines per batch (overrides config)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between batches (overrides config)")
	cmd.Flags().StringVar(&source, "source", "", "headline source: newsapi, rss, or mixed")

	return cmd
}

func execute(cmd *cobra.Command, deps *common.Deps) error {
	cfg, log := deps.Config, deps.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := stats.NewSession()
	telemetry := stats.NewTelemetry()

	metricsSrv := startMetricsServer(cfg.Service.MetricsAddr, telemetry, log)
	if metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	retryCfg := retry.Config{
		MaxAttempts:          cfg.Client.MaxAttempts,
		DefaultRateLimitWait: cfg.Client.RateLimitWait,
		MaxRateLimitWait:     cfg.Client.MaxRateLimitWait,
	}
	recorder := func(service string) stats.CallRecorder {
		return stats.CallRecorder{Session: session, Telemetry: telemetry, Service: service}
	}

	src, err := buildSource(cfg, recorder("newsapi"), log, retryCfg)
	if err != nil {
		return err
	}

	var sentiment scheduler.SentimentAnalyzer = analyzer.Noop{}
	if cfg.Analyzer.URL != "" {
		analyzerClient := httpclient.New(httpclient.Config{
			Timeout: cfg.Analyzer.Timeout,
			Retry:   retryCfg,
		}, log, recorder("analyzer"))
		sentiment = analyzer.NewClient(cfg.Analyzer.URL, analyzerClient)
	} else {
		log.Warn("no analyzer URL configured, sentiment scoring degraded")
	}

	rewriterClient := httpclient.New(httpclient.Config{
		Timeout: cfg.Rewriter.Timeout,
		Retry:   retryCfg,
	}, log, recorder("rewriter"))
	generator := rewriter.NewClient(rewriter.Config{
		Endpoint:  cfg.Rewriter.Endpoint,
		APIKey:    cfg.Rewriter.APIKey,
		Model:     cfg.Rewriter.Model,
		MaxTokens: cfg.Rewriter.MaxTokens,
	}, rewriterClient)

	esClient, err := index.NewClient(ctx, index.ClientConfig{
		URL:      cfg.Search.URL,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		APIKey:   cfg.Search.APIKey,
		Timeout:  cfg.Search.Timeout,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to elasticsearch: %w", err)
	}

	tracker, closeStore, err := common.NewTracker(ctx, cfg.Reliability, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	var extractor scheduler.ContentExtractor
	if cfg.Classification.FetchContent {
		extractor = extract.New(nil)
	}

	sched := scheduler.New(scheduler.Config{
		TargetTotal: cfg.Service.TotalArticles,
		BatchSize:   cfg.Service.BatchSize,
		BatchDelay:  cfg.Service.BatchDelay,
		Workers:     cfg.Service.Concurrency,
	}, scheduler.Deps{
		Source: src,
		Validator: fetch.NewValidator(
			time.Duration(cfg.RSS.MaxAgeDays)*24*time.Hour,
			cfg.RSS.TitleSimilarity,
			log,
		),
		Analyzer: sentiment,
		Classifier: classifier.New(classifier.Thresholds{
			PositiveSkip:    cfg.Classification.PositiveSkipThreshold,
			NegativeRewrite: cfg.Classification.NegativeRewriteThreshold,
			NegativeLean:    cfg.Classification.NegativeLeanThreshold,
			MinConfidence:   cfg.Classification.MinConfidence,
		}, classifier.NewLexicon(cfg.Classification.SensationalPhrases), log),
		Detector:  clickbait.New(),
		Extractor: extractor,
		Rewriter:  generator,
		Uploader:  index.NewUploader(esClient, cfg.Search.Index, log),
		Tracker:   tracker,
		Session:   session,
		Telemetry: telemetry,
		Logger:    log,
	})

	summary, runErr := sched.Run(ctx)

	// Flush with a fresh context; the run context may already be cancelled.
	tracker.Flush(cmd.Context())

	renderSummary(cmd, summary)
	return runErr
}

// buildSource assembles the headline source for the configured mode. The
// NewsAPI client gets its own paced HTTP client so headline fetching cannot
// starve analyzer and rewriter calls of retry budget.
func buildSource(cfg *config.Config, rec stats.CallRecorder, log logger.Logger, retryCfg retry.Config) (fetch.Source, error) {
	newsapi := func() fetch.Source {
		var pace float64
		if cfg.NewsAPI.FetchDelay > 0 {
			pace = 1 / cfg.NewsAPI.FetchDelay.Seconds()
		}
		client := httpclient.New(httpclient.Config{
			Timeout:           cfg.Client.Timeout,
			RequestsPerSecond: pace,
			Retry:             retryCfg,
		}, log, rec)
		return fetch.NewNewsAPI(fetch.NewsAPIConfig{
			BaseURL:  cfg.NewsAPI.BaseURL,
			APIKey:   cfg.NewsAPI.APIKey,
			Country:  cfg.NewsAPI.Country,
			Category: cfg.NewsAPI.Category,
			PageSize: cfg.NewsAPI.PageSize,
		}, client)
	}

	switch cfg.Service.SourceMode {
	case "newsapi":
		return newsapi(), nil
	case "rss":
		return fetch.NewRSS(cfg.RSS.Feeds, log), nil
	case "mixed", "":
		return fetch.NewMulti(newsapi(), fetch.NewRSS(cfg.RSS.Feeds, log)), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Service.SourceMode)
	}
}

// startMetricsServer exposes the Prometheus registry on addr for the
// duration of the run. An empty addr disables the listener.
func startMetricsServer(addr string, telemetry *stats.Telemetry, log logger.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", logger.Error(err))
		}
	}()
	log.Info("metrics server listening", logger.String("addr", addr))

	return server
}

func renderSummary(cmd *cobra.Command, summary scheduler.Summary) {
	snap := summary.Stats

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Batches run", fmt.Sprintf("%d / %d", summary.BatchesRun, summary.BatchesPlanned)},
		{"Batches failed", summary.BatchesFailed},
		{"Headlines fetched", snap.Fetched},
		{"Headlines processed", snap.Processed},
		{"Rewritten", snap.Rewritten},
		{"Skipped", snap.Skipped},
		{"Failed", snap.Failed},
		{"Uploaded", snap.Uploaded},
		{"Upload failures", snap.UploadFailed},
		{"Rewrite success rate", fmt.Sprintf("%.1f%%", snap.RewriteSuccessRate*100)},
		{"API error rate", fmt.Sprintf("%.1f%%", snap.APIErrorRate*100)},
		{"Headlines per minute", fmt.Sprintf("%.1f", snap.ProcessingPerMin)},
		{"Elapsed", snap.Elapsed.Round(time.Second)},
	})
	if summary.Cancelled {
		t.AppendFooter(table.Row{"Note", "run interrupted, partial results"})
	}

	fmt.Fprintln(cmd.OutOrStdout())
	t.Render()
}
