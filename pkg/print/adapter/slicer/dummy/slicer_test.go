package dummy_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/adapter/slicer/dummy"
	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

func params() port.SlicerParams {
	return port.SlicerParams{
		PixelsPerMMX:    2,
		PixelsPerMMY:    2,
		LayerHeight:     1,
		HalfLayerOffset: 0.5,
		Watertight:      true,
		Mend:            "close-off",
	}
}

func loadBox(t *testing.T, f *dummy.Factory) port.Slicer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dummy.WriteBoxSTL(&buf, 0, 0, 0, 10, 10, 10))
	s, err := f.NewSlicer(params())
	require.NoError(t, err)
	require.NoError(t, s.LoadFile(&buf, 40, 40))
	return s
}

func TestNewSlicer_RequiresCalibration(t *testing.T) {
	f := dummy.NewFactory()
	p := params()
	p.PixelsPerMMX = 0
	_, err := f.NewSlicer(p)
	assert.ErrorIs(t, err, exception.ErrGeometry)

	p = params()
	p.LayerHeight = 0
	_, err = f.NewSlicer(p)
	assert.ErrorIs(t, err, exception.ErrGeometry)
}

func TestLoadFile_BoxIndices(t *testing.T) {
	s := loadBox(t, dummy.NewFactory())

	assert.Equal(t, 0, s.MinIndex())
	assert.Equal(t, 10, s.MaxIndex())
	assert.Equal(t, 0, s.Index())
	assert.Empty(t, s.Errors())

	n := 0
	for tri := s.FirstTriangle(); tri != nil; tri = tri.Next() {
		n++
	}
	assert.Equal(t, 12, n)
}

func TestRasterize_FillsContour(t *testing.T) {
	f := dummy.NewFactory()
	s := loadBox(t, f)
	dst := image.NewGray(image.Rect(0, 0, 40, 40))

	s.SetIndex(4)
	area, err := s.Rasterize(dst)
	require.NoError(t, err)

	// A 10mm box at 2 dots/mm is 20x20 pixels centred on the 40x40 canvas.
	assert.Equal(t, 400.0, area)
	assert.Equal(t, uint8(255), dst.GrayAt(20, 20).Y)
	assert.Equal(t, uint8(255), dst.GrayAt(10, 10).Y)
	assert.Equal(t, uint8(0), dst.GrayAt(9, 9).Y)
	assert.Equal(t, uint8(0), dst.GrayAt(30, 30).Y)
	assert.Equal(t, int64(1), f.RasterizeCalls())

	// Above the mesh the layer is empty and the previous content is cleared.
	s.SetIndex(12)
	area, err = s.Rasterize(dst)
	require.NoError(t, err)
	assert.Zero(t, area)
	assert.Equal(t, uint8(0), dst.GrayAt(20, 20).Y)
}

func TestRasterize_FailAtIndex(t *testing.T) {
	f := dummy.NewFactory()
	f.FailAtIndex = 5
	s := loadBox(t, f)

	s.SetIndex(5)
	_, err := s.Rasterize(image.NewGray(image.Rect(0, 0, 40, 40)))
	assert.ErrorIs(t, err, exception.ErrGeometry)
}

func TestLoadFile_Errors(t *testing.T) {
	f := dummy.NewFactory()

	s, err := f.NewSlicer(params())
	require.NoError(t, err)
	err = s.LoadFile(strings.NewReader("solid empty\nendsolid empty\n"), 10, 10)
	assert.ErrorIs(t, err, exception.ErrGeometry)

	err = s.LoadFile(strings.NewReader("solid x\nfacet normal 0 0 1\nvertex 0 0 zz\n"), 10, 10)
	assert.ErrorIs(t, err, exception.ErrGeometry)

	err = s.LoadFile(bytes.NewReader(make([]byte, 20)), 10, 10)
	assert.ErrorIs(t, err, exception.ErrGeometry)
}

func TestLoadFile_DegenerateFacetReported(t *testing.T) {
	stl := `solid d
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 1 1
    vertex 2 2 2
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 0 3
  endloop
endfacet
endsolid d
`
	s, err := dummy.NewFactory().NewSlicer(params())
	require.NoError(t, err)
	require.NoError(t, s.LoadFile(strings.NewReader(stl), 10, 10))

	assert.Contains(t, s.Errors(), model.MeshError{Kind: model.MeshErrorDegenerate, Detail: "facet 0"})
}

func TestLoadFile_Binary(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
	for _, v := range []float32{0, 0, 1, 0, 0, 0, 4, 0, 0, 0, 0, 3} {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))

	s, err := dummy.NewFactory().NewSlicer(params())
	require.NoError(t, err)
	require.NoError(t, s.LoadFile(&buf, 10, 10))
	assert.Equal(t, 0, s.MinIndex())
	assert.Equal(t, 3, s.MaxIndex())
	assert.Equal(t, 4.0, s.FirstTriangle().Vertices[1].X)
}

func TestLoadFile_BinaryWithSolidHeader(t *testing.T) {
	box := dummy.BoxSolid(0, 0, 0, 10, 10, 4)
	box.IsAscii = false
	box.BinaryHeader = []byte("solid box exported in binary form")
	var buf bytes.Buffer
	require.NoError(t, box.WriteAll(&buf))

	s, err := dummy.NewFactory().NewSlicer(params())
	require.NoError(t, err)
	require.NoError(t, s.LoadFile(&buf, 40, 40))
	assert.Equal(t, 0, s.MinIndex())
	assert.Equal(t, 4, s.MaxIndex())

	n := 0
	for tri := s.FirstTriangle(); tri != nil; tri = tri.Next() {
		n++
	}
	assert.Equal(t, 12, n)
}
