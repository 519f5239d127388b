// Package tracing records job boundaries as trace events.
package tracing

import (
	"context"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
)

// TracingJobListener adds a trace event when a job starts and when it is finalized.
// A failed job also records its failure on the active span.
type TracingJobListener struct {
	tracer metrics.Tracer
}

// NewTracingJobListener creates a TracingJobListener.
func NewTracingJobListener(tracer metrics.Tracer) *TracingJobListener {
	return &TracingJobListener{tracer: tracer}
}

// BeforeJob implements port.JobListener.
func (l *TracingJobListener) BeforeJob(ctx context.Context, job *model.PrintJob) {
	l.tracer.RecordEvent(ctx, "print.job.before", attributes(job))
}

// AfterJob implements port.JobListener.
func (l *TracingJobListener) AfterJob(ctx context.Context, job *model.PrintJob) error {
	attrs := attributes(job)
	attrs["job.status"] = job.Status().String()
	attrs["job.slices.current"] = job.CurrentSlice()
	attrs["job.slices.total"] = job.TotalSlices()
	l.tracer.RecordEvent(ctx, "print.job.after", attrs)
	if err := job.Failure(); err != nil {
		l.tracer.RecordError(ctx, "tracing_listener", err)
	}
	return nil
}

func attributes(job *model.PrintJob) map[string]interface{} {
	attrs := map[string]interface{}{
		"job.id":   job.ID().String(),
		"job.file": job.FileName(),
	}
	if p := job.Printer(); p != nil {
		attrs["printer"] = p.Name()
	}
	return attrs
}

var _ port.JobListener = (*TracingJobListener)(nil)
