package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer on tp.
func NewOpenTelemetryTracer(tp trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: tp.Tracer(instrumentationName)}
}

// StartJobSpan starts the root span of a print job.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, job *model.PrintJob) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "print.job", trace.WithAttributes(
		attribute.String("job.id", job.ID().String()),
		attribute.String("job.file", job.FileName()),
		attribute.String("printer", printerLabel(job)),
	))
	logger.Debugf("Tracer: job span started for %s", job.ID())
	return ctx, func() {
		span.SetAttributes(
			attribute.Int("job.slices.exposed", job.CurrentSlice()),
			attribute.Int("job.slices.total", job.TotalSlices()),
		)
		span.End()
	}
}

// StartLayerSpan starts a span covering the wait for, and the exposure of, one layer.
func (t *OpenTelemetryTracer) StartLayerSpan(ctx context.Context, job *model.PrintJob, index int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "print.layer", trace.WithAttributes(
		attribute.String("job.id", job.ID().String()),
		attribute.Int("layer.index", index),
	))
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks it failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent adds an event to the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

func toAttributes(in map[string]interface{}) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return out
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
