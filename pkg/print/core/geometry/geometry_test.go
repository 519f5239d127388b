package geometry_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
)

const (
	width  = 40.0
	height = 30.0
)

func TestNewTransform_NilIsIdentity(t *testing.T) {
	m := geometry.NewTransform(nil, width, height, geometry.CorrectionComposed)
	assert.True(t, m.IsIdentity())
}

func TestNewTransform_IdentitySettings(t *testing.T) {
	for _, mode := range []geometry.CorrectionMode{geometry.CorrectionComposed, geometry.CorrectionCentered} {
		m := geometry.NewTransform(model.NewTransformSettings(), width, height, mode)
		assert.True(t, m.IsIdentity(), mode.String())
	}
}

func TestNewTransform_XMirrorStaysOnCanvas(t *testing.T) {
	settings := &model.TransformSettings{XScale: -1, YScale: 1}

	for _, mode := range []geometry.CorrectionMode{geometry.CorrectionComposed, geometry.CorrectionCentered} {
		m := geometry.NewTransform(settings, width, height, mode)

		x, y := m.Apply(0, 0)
		assert.InDelta(t, width, x, 1e-9, mode.String())
		assert.InDelta(t, 0, y, 1e-9, mode.String())

		x, y = m.Apply(width, height)
		assert.InDelta(t, 0, x, 1e-9, mode.String())
		assert.InDelta(t, height, y, 1e-9, mode.String())

		x, _ = m.Apply(width/2, 0)
		assert.InDelta(t, width/2, x, 1e-9, "centre column is fixed")
	}
}

func TestNewTransform_YMirrorStaysOnCanvas(t *testing.T) {
	settings := &model.TransformSettings{XScale: 1, YScale: -1}
	m := geometry.NewTransform(settings, width, height, geometry.CorrectionComposed)

	_, y := m.Apply(5, 0)
	assert.InDelta(t, height, y, 1e-9)
	_, y = m.Apply(5, height)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestNewTransform_ModesDivergeForScaledTranslate(t *testing.T) {
	settings := &model.TransformSettings{XTranslate: 4, XScale: 0.5, YScale: 1}

	composed := geometry.NewTransform(settings, width, height, geometry.CorrectionComposed)
	centered := geometry.NewTransform(settings, width, height, geometry.CorrectionCentered)

	// composed: 0.5 * (x + 4 - 10)
	x, _ := composed.Apply(0, 0)
	assert.InDelta(t, -3, x, 1e-9)
	// centered: 0.5 * (x + 4) + 10
	x, _ = centered.Apply(0, 0)
	assert.InDelta(t, 12, x, 1e-9)
}

func TestNewTransform_TranslateOnly(t *testing.T) {
	settings := &model.TransformSettings{XTranslate: 3, YTranslate: -2, XScale: 1, YScale: 1}

	for _, mode := range []geometry.CorrectionMode{geometry.CorrectionComposed, geometry.CorrectionCentered} {
		m := geometry.NewTransform(settings, width, height, mode)
		x, y := m.Apply(1, 1)
		assert.InDelta(t, 4, x, 1e-9)
		assert.InDelta(t, -1, y, 1e-9)
	}
}

func TestApply_MirrorsPixels(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		src.SetGray(x, 0, color.Gray{Y: uint8(10 * (x + 1))})
		src.SetGray(x, 1, color.Gray{Y: uint8(100 + x)})
	}

	out := geometry.Apply(src, &model.TransformSettings{XScale: -1, YScale: 1}, geometry.CorrectionComposed)

	require.Equal(t, src.Bounds(), out.Bounds())
	for x := 0; x < 4; x++ {
		assert.Equal(t, src.GrayAt(3-x, 0), out.GrayAt(x, 0))
		assert.Equal(t, src.GrayAt(3-x, 1), out.GrayAt(x, 1))
	}
}

func TestApply_IdentityCopies(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(1, 1, color.Gray{Y: 200})

	out := geometry.Apply(src, model.NewTransformSettings(), geometry.CorrectionComposed)

	assert.Equal(t, src.Pix, out.Pix)
	out.SetGray(0, 0, color.Gray{Y: 1})
	assert.Equal(t, uint8(0), src.GrayAt(0, 0).Y, "result must not alias the source")
}

func TestApply_SingularTransformIsBlank(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	out := geometry.Apply(src, &model.TransformSettings{XScale: 0, YScale: 1}, geometry.CorrectionComposed)

	for _, p := range out.Pix {
		assert.Zero(t, p)
	}
}

func TestParseCorrectionMode(t *testing.T) {
	m, err := geometry.ParseCorrectionMode("")
	require.NoError(t, err)
	assert.Equal(t, geometry.CorrectionComposed, m)

	m, err = geometry.ParseCorrectionMode("centered")
	require.NoError(t, err)
	assert.Equal(t, geometry.CorrectionCentered, m)

	_, err = geometry.ParseCorrectionMode("sideways")
	assert.Error(t, err)
}
