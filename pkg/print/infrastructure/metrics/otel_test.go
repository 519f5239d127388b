package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	inframetrics "github.com/tigerroll/layercure/pkg/print/infrastructure/metrics"
)

func TestOpenTelemetryTracer_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := inframetrics.NewOpenTelemetryTracer(tp)
	job := model.NewPrintJob("cube.stl")

	ctx, endJob := tracer.StartJobSpan(context.Background(), job)
	layerCtx, endLayer := tracer.StartLayerSpan(ctx, job, 3)
	tracer.RecordError(layerCtx, "stl_processor", errors.New("boom"))
	endLayer()
	tracer.RecordEvent(ctx, "print.job.created", map[string]interface{}{"printer": "alpha", "layers": 3})
	endJob()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	layer, root := spans[0], spans[1]
	assert.Equal(t, "print.layer", layer.Name())
	assert.Equal(t, codes.Error, layer.Status().Code)
	assert.Equal(t, root.SpanContext().SpanID(), layer.Parent().SpanID())
	assert.Equal(t, "print.job", root.Name())
	require.Len(t, root.Events(), 1)
	assert.Equal(t, "print.job.created", root.Events()[0].Name)
}

func TestOtelRecorder_CollectsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, err := inframetrics.NewOtelRecorder(mp)
	require.NoError(t, err)

	ctx := context.Background()
	job := model.NewPrintJob("cube.stl")
	r.RecordJobStart(ctx, job)
	r.RecordLayerRendered(ctx, "alpha", 10*time.Millisecond)
	r.RecordPreview(ctx, true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
			if m.Name == "print.job.transitions" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				require.Len(t, sum.DataPoints, 1)
				assert.Equal(t, int64(1), sum.DataPoints[0].Value)
			}
		}
	}
	assert.True(t, names["print.job.transitions"])
	assert.True(t, names["print.layer.render"])
	assert.True(t, names["print.preview"])
}
