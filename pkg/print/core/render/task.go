package render

import (
	"image"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
)

// RenderedLayer is the result of a SliceRenderTask.
type RenderedLayer struct {
	Index int
	// Slot is the LayerBuffer slot holding Image.
	Slot  int
	Image *image.Gray
	// Area is the number of lit pixels.
	Area     float64
	Duration time.Duration
}

// SliceRenderTask is one asynchronous layer rasterization.
type SliceRenderTask struct {
	Index  int
	Slot   int
	future *workerpool.Future[RenderedLayer]
}

// Done is closed when the task has finished.
func (t *SliceRenderTask) Done() <-chan struct{} {
	return t.future.Done()
}
