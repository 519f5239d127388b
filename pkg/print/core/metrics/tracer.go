package metrics

import (
	"context"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of prints.
type Tracer interface {
	// StartJobSpan starts a span covering a whole print job.
	//
	// Returns: A context carrying the span, and a function that ends it.
	StartJobSpan(ctx context.Context, job *model.PrintJob) (context.Context, func())

	// StartLayerSpan starts a span for one layer, normally under the job span.
	//
	// Returns: A context carrying the span, and a function that ends it.
	StartLayerSpan(ctx context.Context, job *model.PrintJob, index int) (context.Context, func())

	// RecordError records err on the span in ctx.
	//
	// module: The component where the error occurred (e.g., "stl_processor").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records a named event on the span in ctx.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
