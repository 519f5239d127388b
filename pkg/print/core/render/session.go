package render

import (
	"context"
	"fmt"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "rendering_session"

// SessionParams configures a RenderingSession.
type SessionParams struct {
	// Slicer must already hold the loaded mesh.
	Slicer port.Slicer
	Width  int
	Height int
	// Transform is applied to every layer. nil or identity settings skip the transform.
	Transform  *model.TransformSettings
	Correction geometry.CorrectionMode
	Direction  model.BuildDirection
	Pool       *workerpool.Pool
}

// RenderingSession is the per-job rendering state. At most one SliceRenderTask is
// outstanding at any time; Launch refuses a second one.
// Launch, Await, Present and Close are called from the job's driver goroutine only.
type RenderingSession struct {
	slicer    port.Slicer
	buffer    *LayerBuffer
	pool      *workerpool.Pool
	direction model.BuildDirection
	width     int
	height    int

	transform *geometry.Affine
	scratch   *image.Gray

	inFlight *SliceRenderTask

	mu          sync.Mutex
	currentArea float64
	meshErrors  []model.MeshError
	closed      bool
}

// NewRenderingSession creates a session over a loaded slicer.
func NewRenderingSession(p SessionParams) (*RenderingSession, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, exception.GeometryError(moduleName, fmt.Sprintf("impossible buffer size %dx%d", p.Width, p.Height), nil)
	}
	s := &RenderingSession{
		slicer:     p.Slicer,
		buffer:     NewLayerBuffer(p.Width, p.Height),
		pool:       p.Pool,
		direction:  p.Direction,
		width:      p.Width,
		height:     p.Height,
		meshErrors: p.Slicer.Errors(),
	}
	if !p.Transform.IsIdentity() {
		m := geometry.NewTransform(p.Transform, float64(p.Width), float64(p.Height), p.Correction)
		s.transform = &m
		s.scratch = image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	}
	return s, nil
}

// Slicer returns the session's slicing cursor.
func (s *RenderingSession) Slicer() port.Slicer { return s.slicer }

// Buffer returns the session's layer buffer.
func (s *RenderingSession) Buffer() *LayerBuffer { return s.buffer }

// TotalSlices is MaxIndex - MinIndex.
func (s *RenderingSession) TotalSlices() int {
	return s.slicer.MaxIndex() - s.slicer.MinIndex()
}

// ScanOrder returns the layer indices in exposure order: MinIndex..MaxIndex-1 bottom-up,
// MaxIndex-1..MinIndex top-down.
func (s *RenderingSession) ScanOrder() []int {
	lo, hi := s.slicer.MinIndex(), s.slicer.MaxIndex()
	if hi <= lo {
		return nil
	}
	order := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		order = append(order, i)
	}
	if s.direction.Vector() < 0 {
		slices.Reverse(order)
	}
	return order
}

// Launch starts rendering layer index into the non-current buffer slot.
func (s *RenderingSession) Launch(index int) (*SliceRenderTask, error) {
	if s.inFlight != nil {
		return nil, exception.IllegalStateError(moduleName,
			fmt.Sprintf("layer %d is still rendering, cannot launch layer %d", s.inFlight.Index, index))
	}
	slot, dst := s.buffer.back()
	task := &SliceRenderTask{Index: index, Slot: slot}
	task.future = workerpool.Submit(s.pool, fmt.Sprintf("render-layer-%d", index), func(ctx context.Context) (RenderedLayer, error) {
		return s.render(index, slot, dst)
	})
	s.inFlight = task
	return task, nil
}

// InFlight returns the outstanding task, or nil.
func (s *RenderingSession) InFlight() *SliceRenderTask {
	return s.inFlight
}

// Await blocks until the outstanding task completes. Render failures are returned as
// slice handling errors. The task is cleared even when ctx ends first.
func (s *RenderingSession) Await(ctx context.Context) (RenderedLayer, error) {
	task := s.inFlight
	if task == nil {
		return RenderedLayer{}, exception.IllegalStateError(moduleName, "no layer is rendering")
	}
	layer, err := task.future.Get(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		// The task keeps running; Close waits for it.
		return RenderedLayer{}, err
	}
	s.inFlight = nil
	if err != nil {
		return RenderedLayer{}, exception.SliceHandlingError(moduleName, err)
	}
	return layer, nil
}

// RenderNow rasterizes layer index synchronously on the caller's goroutine.
func (s *RenderingSession) RenderNow(index int) (RenderedLayer, error) {
	if s.inFlight != nil {
		return RenderedLayer{}, exception.IllegalStateError(moduleName, "a layer is already rendering")
	}
	slot, dst := s.buffer.back()
	layer, err := s.render(index, slot, dst)
	if err != nil {
		return RenderedLayer{}, exception.SliceHandlingError(moduleName, err)
	}
	return layer, nil
}

// Present makes layer the current image and records its area.
func (s *RenderingSession) Present(layer RenderedLayer) {
	s.buffer.Present(layer.Slot)
	s.mu.Lock()
	s.currentArea = layer.Area
	s.mu.Unlock()
}

// CurrentArea returns the lit pixel count of the current layer.
func (s *RenderingSession) CurrentArea() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentArea
}

// Errors returns the mesh errors seen by the last completed render.
func (s *RenderingSession) Errors() []model.MeshError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.meshErrors)
}

// Close waits for an outstanding task and releases the buffer. It is safe to call twice.
func (s *RenderingSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.inFlight != nil {
		if _, err := s.inFlight.future.Get(context.Background()); err != nil {
			logger.Debugf("Discarded render of layer %d: %v", s.inFlight.Index, err)
		}
		s.inFlight = nil
	}
	s.buffer.Release()
}

func (s *RenderingSession) render(index, slot int, dst *image.Gray) (RenderedLayer, error) {
	start := time.Now()
	s.slicer.SetIndex(index)

	target := dst
	if s.transform != nil {
		target = s.scratch
	}
	area, err := s.slicer.Rasterize(target)

	s.mu.Lock()
	s.meshErrors = s.slicer.Errors()
	s.mu.Unlock()

	if err != nil {
		return RenderedLayer{}, err
	}
	if s.transform != nil {
		geometry.Into(dst, s.scratch, *s.transform)
	}
	return RenderedLayer{
		Index:    index,
		Slot:     slot,
		Image:    dst,
		Area:     area,
		Duration: time.Since(start),
	}, nil
}
