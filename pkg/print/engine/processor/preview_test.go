package processor_test

import (
	"context"
	"errors"
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/adapter/printer/simulated"
	"github.com/tigerroll/layercure/pkg/print/adapter/slicer/dummy"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/engine/processor"
	"github.com/tigerroll/layercure/pkg/print/infrastructure/printer"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

func newPreviewProcessor(printers ...model.Printer) (*processor.STLFileProcessor, *dummy.Factory) {
	slicers := dummy.NewFactory()
	return processor.NewSTLFileProcessor(processor.Params{
		SlicerFactory: slicers,
		Printers:      printer.NewRegistry(printers...),
		Correction:    geometry.CorrectionComposed,
	}), slicers
}

func gray(t *testing.T, img image.Image) *image.Gray {
	t.Helper()
	g, ok := img.(*image.Gray)
	require.True(t, ok, "preview should be grayscale")
	return g
}

func TestPreviewSlice_ReusesIdentityRender(t *testing.T) {
	p := simulated.New("alpha", profile)
	stl, slicers := newPreviewProcessor(p)
	file := writeBox(t, t.TempDir(), 10)
	c := &model.Customizer{Name: "box", SupportsTransform: true}

	first, err := stl.PreviewSlice(context.Background(), c, file, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), slicers.RasterizeCalls())
	assert.Equal(t, image.Rect(0, 0, 40, 40), first.Bounds())
	assert.Equal(t, 1, p.ShownCount())

	c.Transform = &model.TransformSettings{XTranslate: 5, XScale: 1, YScale: 1}
	moved, err := stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), slicers.RasterizeCalls(), "a cached original must not be rasterized again")
	assert.Equal(t, 1, p.BlankCount())
	assert.Equal(t, geometry.Apply(gray(t, first), c.Transform, geometry.CorrectionComposed).Pix, gray(t, moved).Pix)
	assert.NotEqual(t, gray(t, first).Pix, gray(t, moved).Pix)

	c.Transform = nil
	again, err := stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), slicers.RasterizeCalls())
	assert.Equal(t, gray(t, first).Pix, gray(t, again).Pix)
}

func TestPreviewSlice_TransformedMissIsNotCached(t *testing.T) {
	stl, slicers := newPreviewProcessor(simulated.New("alpha", profile))
	file := writeBox(t, t.TempDir(), 10)
	c := &model.Customizer{
		Name:              "box",
		SupportsTransform: true,
		Transform:         &model.TransformSettings{XScale: -1, YScale: 1},
	}

	_, err := stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)
	_, err = stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), slicers.RasterizeCalls())
}

func TestPreviewSlice_FileChangeInvalidatesCache(t *testing.T) {
	stl, slicers := newPreviewProcessor(simulated.New("alpha", profile))
	dir := t.TempDir()
	file := writeBox(t, dir, 10)
	c := &model.Customizer{Name: "box"}

	_, err := stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)

	writeBox(t, dir, 6)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(file, later, later))

	_, err = stl.PreviewSlice(context.Background(), c, file, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), slicers.RasterizeCalls())
}

func TestPreviewSlice_NoPrinterAvailable(t *testing.T) {
	busy := simulated.New("alpha", profile)
	busy.SetStatus(model.JobStatusPrinting)
	stl, _ := newPreviewProcessor(busy)
	file := writeBox(t, t.TempDir(), 10)

	_, err := stl.PreviewSlice(context.Background(), &model.Customizer{Name: "box"}, file, false)
	assert.True(t, errors.Is(err, exception.ErrNoPrinterAvailable))

	_, err = stl.PreviewSlice(context.Background(), &model.Customizer{Name: "box", PrinterName: "beta"}, file, false)
	assert.True(t, errors.Is(err, exception.ErrNoPrinterAvailable))
}

func TestPreviewSlice_NamedPrinter(t *testing.T) {
	alpha := simulated.New("alpha", profile)
	beta := simulated.New("beta", profile)
	stl, _ := newPreviewProcessor(alpha, beta)
	file := writeBox(t, t.TempDir(), 10)

	_, err := stl.PreviewSlice(context.Background(), &model.Customizer{Name: "box", PrinterName: "beta"}, file, true)
	require.NoError(t, err)
	assert.Equal(t, 0, alpha.ShownCount())
	assert.Equal(t, 1, beta.ShownCount())
}

func TestPreviewSlice_MissingCalibration(t *testing.T) {
	uncalibrated := profile
	uncalibrated.DotsPerMMY = 0
	stl, _ := newPreviewProcessor(simulated.New("alpha", uncalibrated))
	file := writeBox(t, t.TempDir(), 10)

	_, err := stl.PreviewSlice(context.Background(), &model.Customizer{Name: "box"}, file, false)
	assert.True(t, errors.Is(err, exception.ErrSliceHandling))
	assert.True(t, errors.Is(err, exception.ErrGeometry))
}
