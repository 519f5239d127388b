// Package metrics provides the Prometheus and OpenTelemetry backends of metrics.MetricRecorder
// and metrics.Tracer.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	// Layer metrics
	layerRenderSeconds *prometheus.HistogramVec
	layerExposeSeconds *prometheus.HistogramVec

	previewCounter  *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
}

var layerBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "print_job_duration_seconds",
			Help:    "Duration of print jobs from creation to finalization.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}, []string{"printer", "status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "print_job_status_total",
			Help: "Total number of print job transitions by status.",
		}, []string{"printer", "status"}),
		layerRenderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "print_layer_render_seconds",
			Help:    "Time spent rasterizing one layer.",
			Buckets: layerBuckets,
		}, []string{"printer"}),
		layerExposeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "print_layer_expose_seconds",
			Help:    "Time one layer was shown on the printer, including cure time.",
			Buckets: layerBuckets,
		}, []string{"printer"}),
		previewCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "print_preview_total",
			Help: "Total slice previews by cache outcome.",
		}, []string{"cache"}), // cache: hit, miss
		durationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "print_operation_duration_seconds",
			Help:    "Duration of named print operations.",
			Buckets: layerBuckets,
		}, []string{"name", "printer"}),
	}

	registry.MustRegister(r.jobDurationSeconds)
	registry.MustRegister(r.jobStatusCounter)
	registry.MustRegister(r.layerRenderSeconds)
	registry.MustRegister(r.layerExposeSeconds)
	registry.MustRegister(r.previewCounter)
	registry.MustRegister(r.durationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func printerLabel(job *model.PrintJob) string {
	if p := job.Printer(); p != nil {
		return p.Name()
	}
	return "unassigned"
}

// RecordJobStart records a job entering the pipeline.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, job *model.PrintJob) {
	r.jobStatusCounter.WithLabelValues(printerLabel(job), model.JobStatusPrinting.String()).Inc()
	logger.Debugf("Metrics: Job %s started.", job.ID())
}

// RecordJobEnd records the terminal status and elapsed time of a job.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, job *model.PrintJob) {
	printer, status := printerLabel(job), job.Status().String()
	duration := job.ElapsedTime().Seconds()
	r.jobStatusCounter.WithLabelValues(printer, status).Inc()
	r.jobDurationSeconds.WithLabelValues(printer, status).Observe(duration)
	logger.Debugf("Metrics: Job %s ended. Duration: %.3fs", job.ID(), duration)
}

func (r *PrometheusRecorder) RecordLayerRendered(ctx context.Context, printerName string, duration time.Duration) {
	r.layerRenderSeconds.WithLabelValues(printerName).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordLayerExposed(ctx context.Context, printerName string, duration time.Duration) {
	r.layerExposeSeconds.WithLabelValues(printerName).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordPreview(ctx context.Context, cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	r.previewCounter.WithLabelValues(outcome).Inc()
}

// RecordDuration records a named duration. Only the "printer" tag becomes a label.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.durationSeconds.WithLabelValues(name, tags["printer"]).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
