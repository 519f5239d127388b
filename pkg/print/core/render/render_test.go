package render_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/core/render"
	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

// gatedSlicer paints column `index` white and blocks each Rasterize until released.
type gatedSlicer struct {
	mu      sync.Mutex
	index   int
	min     int
	max     int
	gate    chan struct{}
	failAt  int
	entered chan int
}

func newGatedSlicer(min, max int) *gatedSlicer {
	return &gatedSlicer{min: min, max: max, failAt: -1, entered: make(chan int, 16)}
}

func (s *gatedSlicer) LoadFile(r io.Reader, xRes, yRes float64) error { return nil }
func (s *gatedSlicer) SetIndex(i int)                                   { s.mu.Lock(); s.index = i; s.mu.Unlock() }
func (s *gatedSlicer) Index() int                                       { s.mu.Lock(); defer s.mu.Unlock(); return s.index }
func (s *gatedSlicer) MinIndex() int                                    { return s.min }
func (s *gatedSlicer) MaxIndex() int                                    { return s.max }
func (s *gatedSlicer) FirstTriangle() *model.Triangle                   { return nil }
func (s *gatedSlicer) Errors() []model.MeshError                        { return nil }

func (s *gatedSlicer) Rasterize(dst draw.Image) (float64, error) {
	idx := s.Index()
	s.entered <- idx
	if s.gate != nil {
		<-s.gate
	}
	if idx == s.failAt {
		return 0, exception.GeometryError("test", "bad layer", nil)
	}
	b := dst.Bounds()
	draw.Draw(dst, b, image.Black, image.Point{}, draw.Src)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		dst.Set(idx, y, color.White)
	}
	return float64(b.Dy()), nil
}

func newSession(t *testing.T, slicer *gatedSlicer, dir model.BuildDirection, ts *model.TransformSettings) *render.RenderingSession {
	t.Helper()
	pool := workerpool.NewPool()
	t.Cleanup(func() { _ = pool.Close(context.Background()) })
	s, err := render.NewRenderingSession(render.SessionParams{
		Slicer:    slicer,
		Width:     8,
		Height:    2,
		Transform: ts,
		Direction: dir,
		Pool:      pool,
	})
	require.NoError(t, err)
	return s
}

func TestLayerBuffer_SnapshotAndPresent(t *testing.T) {
	b := render.NewLayerBuffer(2, 2)
	assert.Equal(t, -1, b.Current())
	assert.Nil(t, b.Snapshot())

	b.Present(1)
	assert.Equal(t, 1, b.Current())
	snap := b.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, image.Rect(0, 0, 2, 2), snap.Bounds())

	b.Release()
	assert.Nil(t, b.Snapshot())
}

func TestRenderingSession_ScanOrder(t *testing.T) {
	up := newSession(t, newGatedSlicer(2, 6), model.BuildDirectionBottomUp, nil)
	assert.Equal(t, []int{2, 3, 4, 5}, up.ScanOrder())
	assert.Equal(t, 4, up.TotalSlices())

	down := newSession(t, newGatedSlicer(2, 6), model.BuildDirectionTopDown, nil)
	assert.Equal(t, []int{5, 4, 3, 2}, down.ScanOrder())

	empty := newSession(t, newGatedSlicer(3, 3), model.BuildDirectionBottomUp, nil)
	assert.Empty(t, empty.ScanOrder())
}

func TestRenderingSession_RejectsImpossibleBuffer(t *testing.T) {
	_, err := render.NewRenderingSession(render.SessionParams{Slicer: newGatedSlicer(0, 1), Width: 0, Height: 5})
	assert.ErrorIs(t, err, exception.ErrGeometry)
}

func TestRenderingSession_SingleInFlightAndSlotDiscipline(t *testing.T) {
	slicer := newGatedSlicer(0, 3)
	slicer.gate = make(chan struct{})
	s := newSession(t, slicer, model.BuildDirectionBottomUp, nil)
	ctx := context.Background()

	first, err := s.Launch(0)
	require.NoError(t, err)
	<-slicer.entered

	_, err = s.Launch(1)
	assert.ErrorIs(t, err, exception.ErrIllegalState, "a second task must be refused while one is in flight")

	slicer.gate <- struct{}{}
	layer0, err := s.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Slot, layer0.Slot)
	s.Present(layer0)
	assert.Equal(t, layer0.Slot, s.Buffer().Current())

	second, err := s.Launch(1)
	require.NoError(t, err)
	assert.NotEqual(t, s.Buffer().Current(), second.Slot, "task must never target the current slot")

	// While layer 1 renders, the current slot stays readable and shows layer 0.
	<-slicer.entered
	snap := s.Buffer().Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, uint8(255), snap.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), snap.GrayAt(1, 0).Y)

	slicer.gate <- struct{}{}
	layer1, err := s.Await(ctx)
	require.NoError(t, err)
	s.Present(layer1)
	assert.Equal(t, 2.0, s.CurrentArea())
	assert.Nil(t, s.InFlight())

	s.Close()
	assert.Nil(t, s.Buffer().Snapshot())
}

func TestRenderingSession_AwaitWrapsGeometryError(t *testing.T) {
	slicer := newGatedSlicer(0, 3)
	slicer.failAt = 0
	s := newSession(t, slicer, model.BuildDirectionBottomUp, nil)

	_, err := s.Launch(0)
	require.NoError(t, err)
	_, err = s.Await(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrSliceHandling)
	assert.ErrorIs(t, err, exception.ErrGeometry)
	assert.Nil(t, s.InFlight())
}

func TestRenderingSession_AwaitWithoutTask(t *testing.T) {
	s := newSession(t, newGatedSlicer(0, 1), model.BuildDirectionBottomUp, nil)
	_, err := s.Await(context.Background())
	assert.ErrorIs(t, err, exception.ErrIllegalState)
}

func TestRenderingSession_AppliesTransform(t *testing.T) {
	slicer := newGatedSlicer(0, 3)
	s := newSession(t, slicer, model.BuildDirectionBottomUp, &model.TransformSettings{XScale: -1, YScale: 1})

	layer, err := s.RenderNow(0)
	require.NoError(t, err)
	<-slicer.entered

	// Column 0 mirrored onto column 7 of an 8 pixel wide canvas.
	assert.Equal(t, uint8(255), layer.Image.GrayAt(7, 0).Y)
	assert.Equal(t, uint8(0), layer.Image.GrayAt(0, 0).Y)
}

func TestRenderingSession_CloseWaitsForInFlight(t *testing.T) {
	slicer := newGatedSlicer(0, 3)
	slicer.gate = make(chan struct{})
	s := newSession(t, slicer, model.BuildDirectionBottomUp, nil)

	_, err := s.Launch(0)
	require.NoError(t, err)
	<-slicer.entered

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a render was still running")
	case <-time.After(20 * time.Millisecond):
	}
	slicer.gate <- struct{}{}
	<-closed
	s.Close()
}

func TestRenderingSession_AwaitContextCancelled(t *testing.T) {
	slicer := newGatedSlicer(0, 3)
	slicer.gate = make(chan struct{})
	s := newSession(t, slicer, model.BuildDirectionBottomUp, nil)

	_, err := s.Launch(0)
	require.NoError(t, err)
	<-slicer.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Await(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotNil(t, s.InFlight(), "the task stays tracked until it finishes")

	slicer.gate <- struct{}{}
	s.Close()
}

func TestGeometryModes_MatchForMirror(t *testing.T) {
	settings := &model.TransformSettings{XScale: -1, YScale: 1}
	a := geometry.NewTransform(settings, 8, 2, geometry.CorrectionComposed)
	b := geometry.NewTransform(settings, 8, 2, geometry.CorrectionCentered)
	assert.Equal(t, a, b)
}
