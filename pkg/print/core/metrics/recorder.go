// Package metrics defines the metric and tracing abstractions used by the print engine.
package metrics

import (
	"context"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// MetricRecorder is an abstract interface for recording print metrics.
// It lets the engine report to different backends (Prometheus, OpenTelemetry Metrics)
// without depending on them.
type MetricRecorder interface {
	// RecordJobStart records that a job entered the pipeline.
	//
	// ctx: The context for the operation.
	// job: The job that started.
	RecordJobStart(ctx context.Context, job *model.PrintJob)

	// RecordJobEnd records the terminal status and elapsed time of a job.
	//
	// ctx: The context for the operation.
	// job: The finalized job.
	RecordJobEnd(ctx context.Context, job *model.PrintJob)

	// RecordLayerRendered records how long one layer took to rasterize.
	//
	// ctx: The context for the operation.
	// printerName: The printer the layer was rendered for.
	// duration: Time spent inside the render task.
	RecordLayerRendered(ctx context.Context, printerName string, duration time.Duration)

	// RecordLayerExposed records how long one layer was shown on the printer.
	//
	// ctx: The context for the operation.
	// printerName: The printer that exposed the layer.
	// duration: Display plus cure time of the layer.
	RecordLayerExposed(ctx context.Context, printerName string, duration time.Duration)

	// RecordPreview records a preview request.
	//
	// ctx: The context for the operation.
	// cacheHit: true when the cached original layer was reused.
	RecordPreview(ctx context.Context, cacheHit bool)

	// RecordDuration records the execution time of an arbitrary operation.
	//
	// ctx: The context for the operation.
	// name: The name of the duration (e.g., "render_wait").
	// duration: The length of the duration to record.
	// tags: Additional attributes, e.g. `{"printer": "alpha"}`.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
