// Package metrics records sync and job metrics with Prometheus.
// The scheduler serves them over HTTP; one-shot runs push them to a
// Pushgateway when one is configured.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

const namespace = "kvsync"

// Ensure Recorder implements the observer ports.
var (
	_ driven.SyncObserver = (*Recorder)(nil)
	_ driven.RunReporter  = (*Recorder)(nil)
)

// Config configures the recorder.
type Config struct {
	// PushgatewayURL enables pushing after every run when set.
	PushgatewayURL string
	// Job is the Pushgateway job label.
	Job string
}

// Recorder owns a private registry holding every kvsync metric.
type Recorder struct {
	registry *prometheus.Registry
	pusher   *push.Pusher
	logger   *zap.Logger

	pagesFetched    prometheus.Counter
	recordsFetched  prometheus.Counter
	invoicesKept    prometheus.Counter
	invoicesWritten prometheus.Counter
	linesWritten    prometheus.Counter
	detailFailures  prometheus.Counter
	syncsTotal      *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	watermark       prometheus.Gauge

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRunSuccess prometheus.Gauge
	runProducts    prometheus.Gauge
}

// New creates a recorder with its metrics registered.
func New(cfg Config, log *zap.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		logger:   logger.OrNop(log).Named("metrics"),

		pagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_pages_fetched_total",
			Help:      "Invoice list pages fetched",
		}),
		recordsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_records_fetched_total",
			Help:      "Invoice headers returned by the list endpoint",
		}),
		invoicesKept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_records_kept_total",
			Help:      "Invoice headers newer than the watermark",
		}),
		invoicesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_written_total",
			Help:      "Distinct invoices written to the output",
		}),
		linesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_lines_written_total",
			Help:      "Invoice line rows written to the output",
		}),
		detailFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_detail_failures_total",
			Help:      "Invoices whose details could not be fetched",
		}),
		syncsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_syncs_total",
			Help:      "Invoice sync runs by outcome",
		}, []string{"status"}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_sync_duration_seconds",
			Help:      "Invoice sync duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		watermark: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_updated_timestamp_seconds",
			Help:      "Unix time the checkpoint last advanced",
		}),

		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Job runs by status",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Job run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful job run",
		}),
		runProducts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_products_exported",
			Help:      "Products exported by the last job run",
		}),
	}

	if cfg.PushgatewayURL != "" {
		job := cfg.Job
		if job == "" {
			job = namespace
		}
		r.pusher = push.New(cfg.PushgatewayURL, job).Gatherer(reg)
	}

	return r
}

// Registry returns the registry holding the metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// PageFetched counts one list page.
func (r *Recorder) PageFetched(records, kept int) {
	r.pagesFetched.Inc()
	r.recordsFetched.Add(float64(records))
	r.invoicesKept.Add(float64(kept))
}

// InvoiceWritten counts one processed invoice and its rows.
func (r *Recorder) InvoiceWritten(lines int) {
	r.invoicesWritten.Inc()
	r.linesWritten.Add(float64(lines))
}

// DetailFailed counts one degraded invoice.
func (r *Recorder) DetailFailed() {
	r.detailFailures.Inc()
}

// SyncFinished records the outcome of one invoice sync.
func (r *Recorder) SyncFinished(result *domain.SyncResult, err error) {
	if err != nil {
		r.syncsTotal.WithLabelValues(string(domain.RunFailed)).Inc()
		return
	}
	r.syncsTotal.WithLabelValues(string(domain.RunSucceeded)).Inc()
	if result == nil {
		return
	}
	r.syncDuration.Observe(result.Duration.Seconds())
	if result.CheckpointUpdated {
		r.watermark.SetToCurrentTime()
	}
}

// RunFinished records a job run and pushes the registry when a Pushgateway
// is configured.
func (r *Recorder) RunFinished(ctx context.Context, run *domain.SyncRun, elapsed time.Duration) error {
	r.runsTotal.WithLabelValues(string(run.Status)).Inc()
	r.runDuration.Observe(elapsed.Seconds())
	if run.Status == domain.RunSucceeded {
		r.lastRunSuccess.Set(float64(run.FinishedAt.Unix()))
		r.runProducts.Set(float64(run.Products))
	}

	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	r.logger.Debug("metrics pushed", zap.String("run_id", run.ID))
	return nil
}
