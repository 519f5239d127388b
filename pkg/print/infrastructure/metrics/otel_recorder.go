package metrics

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
)

const instrumentationName = "github.com/tigerroll/layercure/pkg/print"

// OtelRecorder is an OpenTelemetry Metrics implementation of metrics.MetricRecorder.
type OtelRecorder struct {
	jobs        metric.Int64Counter
	jobDuration metric.Float64Histogram
	layerRender metric.Float64Histogram
	layerExpose metric.Float64Histogram
	previews    metric.Int64Counter
	durations   metric.Float64Histogram
}

// NewOtelRecorder creates the instruments on a meter of mp.
func NewOtelRecorder(mp metric.MeterProvider) (*OtelRecorder, error) {
	meter := mp.Meter(instrumentationName)
	var errs *multierror.Error
	r := &OtelRecorder{}
	var err error

	if r.jobs, err = meter.Int64Counter("print.job.transitions",
		metric.WithDescription("Print job transitions by status.")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.jobDuration, err = meter.Float64Histogram("print.job.duration",
		metric.WithDescription("Duration of print jobs."), metric.WithUnit("s")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.layerRender, err = meter.Float64Histogram("print.layer.render",
		metric.WithDescription("Time spent rasterizing one layer."), metric.WithUnit("s")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.layerExpose, err = meter.Float64Histogram("print.layer.expose",
		metric.WithDescription("Time one layer was shown on the printer."), metric.WithUnit("s")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.previews, err = meter.Int64Counter("print.preview",
		metric.WithDescription("Slice previews by cache outcome.")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if r.durations, err = meter.Float64Histogram("print.operation.duration",
		metric.WithDescription("Duration of named print operations."), metric.WithUnit("s")); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OtelRecorder) RecordJobStart(ctx context.Context, job *model.PrintJob) {
	r.jobs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("printer", printerLabel(job)),
		attribute.String("status", model.JobStatusPrinting.String()),
	))
}

func (r *OtelRecorder) RecordJobEnd(ctx context.Context, job *model.PrintJob) {
	attrs := metric.WithAttributes(
		attribute.String("printer", printerLabel(job)),
		attribute.String("status", job.Status().String()),
	)
	r.jobs.Add(ctx, 1, attrs)
	r.jobDuration.Record(ctx, job.ElapsedTime().Seconds(), attrs)
}

func (r *OtelRecorder) RecordLayerRendered(ctx context.Context, printerName string, duration time.Duration) {
	r.layerRender.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("printer", printerName)))
}

func (r *OtelRecorder) RecordLayerExposed(ctx context.Context, printerName string, duration time.Duration) {
	r.layerExpose.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("printer", printerName)))
}

func (r *OtelRecorder) RecordPreview(ctx context.Context, cacheHit bool) {
	r.previews.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache_hit", cacheHit)))
}

// RecordDuration records a named duration with every tag as an attribute.
func (r *OtelRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String("name", name))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	r.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

var _ metrics.MetricRecorder = (*OtelRecorder)(nil)
