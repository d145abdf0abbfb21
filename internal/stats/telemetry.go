package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Headline outcome labels for the processed counter.
const (
	OutcomeRewritten = "rewritten"
	OutcomeSkipped   = "skipped"
)

// Upload status labels for the uploaded counter.
const (
	UploadOK     = "success"
	UploadFailed = "failed"
)

// Telemetry holds the Prometheus metrics exported by the pipeline. All
// record methods are safe on a nil receiver so callers without telemetry
// wired need no guards.
type Telemetry struct {
	HeadlinesProcessed *prometheus.CounterVec
	HeadlinesFailed    prometheus.Counter
	DocumentsUploaded  *prometheus.CounterVec
	APICalls           *prometheus.CounterVec
	APIErrors          *prometheus.CounterVec
	BatchDuration      prometheus.Histogram
	BatchSize          prometheus.Histogram
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordOutcome counts one headline that finished the pipeline.
func (t *Telemetry) RecordOutcome(outcome string) {
	if t == nil {
		return
	}
	t.HeadlinesProcessed.WithLabelValues(outcome).Inc()
}

// RecordFailure counts one headline abandoned mid-pipeline.
func (t *Telemetry) RecordFailure() {
	if t == nil {
		return
	}
	t.HeadlinesFailed.Inc()
}

// RecordUpload counts n reconciled documents with the given status.
func (t *Telemetry) RecordUpload(status string, n int) {
	if t == nil || n == 0 {
		return
	}
	t.DocumentsUploaded.WithLabelValues(status).Add(float64(n))
}

// RecordAPICall counts one outbound attempt against a service.
func (t *Telemetry) RecordAPICall(service string) {
	if t == nil {
		return
	}
	t.APICalls.WithLabelValues(service).Inc()
}

// RecordAPIError counts one terminal outbound failure against a service.
func (t *Telemetry) RecordAPIError(service string) {
	if t == nil {
		return
	}
	t.APIErrors.WithLabelValues(service).Inc()
}

// ObserveBatch records one finished batch.
func (t *Telemetry) ObserveBatch(took time.Duration, size int) {
	if t == nil {
		return
	}
	t.BatchDuration.Observe(took.Seconds())
	t.BatchSize.Observe(float64(size))
}

// NewTelemetry registers and returns the pipeline metrics on the default
// registry. Call at most once per process.
func NewTelemetry() *Telemetry {
	return &Telemetry{
		HeadlinesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_headlines_processed_total",
			Help: "Total headlines classified, by outcome (rewritten, skipped)",
		}, []string{"outcome"}),
		HeadlinesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_headlines_failed_total",
			Help: "Total headlines abandoned mid-pipeline",
		}),
		DocumentsUploaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_documents_uploaded_total",
			Help: "Total documents submitted to the index, by reconciled status",
		}, []string{"status"}),
		APICalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_api_calls_total",
			Help: "Total outbound API attempts, by service",
		}, []string{"service"}),
		APIErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_api_errors_total",
			Help: "Total terminal outbound API failures, by service",
		}, []string{"service"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_batch_duration_seconds",
			Help:    "Wall time to process one batch end to end",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_batch_size",
			Help:    "Number of headlines per batch",
			Buckets: []float64{1, 5, 10, 20, 50, 100},
		}),
	}
}

// CallRecorder fans outbound call accounting into the session counters and
// the per-service Prometheus counters.
type CallRecorder struct {
	Session   *Session
	Telemetry *Telemetry
	Service   string
}

// IncAPICalls records n outbound attempts.
func (r CallRecorder) IncAPICalls(n int) {
	r.Session.IncAPICalls(n)
	for i := 0; i < n; i++ {
		r.Telemetry.RecordAPICall(r.Service)
	}
}

// IncAPIErrors records n terminal outbound failures.
func (r CallRecorder) IncAPIErrors(n int) {
	r.Session.IncAPIErrors(n)
	for i := 0; i < n; i++ {
		r.Telemetry.RecordAPIError(r.Service)
	}
}
