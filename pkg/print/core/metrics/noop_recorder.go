package metrics

import (
	"context"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// NoOpMetricRecorder is a MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordJobStart(ctx context.Context, job *model.PrintJob) {}
func (r *NoOpMetricRecorder) RecordJobEnd(ctx context.Context, job *model.PrintJob)   {}
func (r *NoOpMetricRecorder) RecordLayerRendered(ctx context.Context, printerName string, duration time.Duration) {
}
func (r *NoOpMetricRecorder) RecordLayerExposed(ctx context.Context, printerName string, duration time.Duration) {
}
func (r *NoOpMetricRecorder) RecordPreview(ctx context.Context, cacheHit bool) {}
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is a Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartJobSpan(ctx context.Context, job *model.PrintJob) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartLayerSpan(ctx context.Context, job *model.PrintJob, index int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {}

var _ Tracer = (*NoOpTracer)(nil)
