// Package dummy provides a simple STL slicer. It cuts every facet with the layer plane
// and fills the bounding box of the resulting contour. It is meant for simulation and
// tests, not for real prints.
package dummy

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hschendel/stl"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

const moduleName = "dummy_slicer"

// Factory creates Slicers and counts every rasterization they perform.
type Factory struct {
	// FailAtIndex makes Rasterize fail with a geometry error at that layer. Negative disables it.
	FailAtIndex int
	// RenderDelay is added to every rasterization.
	RenderDelay time.Duration

	calls atomic.Int64
}

// NewFactory creates a Factory that never fails.
func NewFactory() *Factory {
	return &Factory{FailAtIndex: -1}
}

// RasterizeCalls returns the number of Rasterize calls made by slicers of this factory.
func (f *Factory) RasterizeCalls() int64 {
	return f.calls.Load()
}

// NewSlicer validates params and returns an empty Slicer.
func (f *Factory) NewSlicer(params port.SlicerParams) (port.Slicer, error) {
	if params.PixelsPerMMX <= 0 || params.PixelsPerMMY <= 0 {
		return nil, exception.GeometryError(moduleName,
			fmt.Sprintf("printer calibration missing: %gx%g dots per mm", params.PixelsPerMMX, params.PixelsPerMMY), nil)
	}
	if params.LayerHeight <= 0 {
		return nil, exception.GeometryError(moduleName, fmt.Sprintf("invalid layer height %g", params.LayerHeight), nil)
	}
	return &Slicer{params: params, factory: f, errs: make(map[model.MeshError]struct{})}, nil
}

var _ port.SlicerFactory = (*Factory)(nil)

// Slicer is a port.Slicer over an in-memory triangle chain.
type Slicer struct {
	params  port.SlicerParams
	factory *Factory

	first      *model.Triangle
	count      int
	degenerate map[*model.Triangle]bool
	minZ, maxZ float64
	centerX    float64
	centerY    float64
	xRes, yRes float64

	mu    sync.Mutex
	index int
	errs  map[model.MeshError]struct{}
}

// LoadFile reads an ASCII or binary STL stream.
func (s *Slicer) LoadFile(r io.Reader, xRes, yRes float64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return exception.GeometryError(moduleName, "failed to read mesh", err)
	}
	tris, err := readTriangles(data)
	if err != nil {
		return exception.GeometryError(moduleName, "malformed STL data", err)
	}
	if len(tris) == 0 {
		return exception.GeometryError(moduleName, "mesh contains no triangles", nil)
	}

	s.xRes, s.yRes = xRes, yRes
	s.degenerate = make(map[*model.Triangle]bool)
	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)
	var prev *model.Triangle
	for i, t := range tris {
		for _, v := range t.Vertices {
			minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
			minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
			minZ, maxZ = math.Min(minZ, v.Z), math.Max(maxZ, v.Z)
		}
		n, area := normal(t)
		if area == 0 {
			s.degenerate[t] = true
			s.addError(model.MeshError{Kind: model.MeshErrorDegenerate, Detail: fmt.Sprintf("facet %d", i)})
		} else if s.params.OverrideNormals {
			t.Normal = n
		}
		if prev == nil {
			s.first = t
		} else {
			prev.Link(t)
		}
		prev = t
	}
	s.count = len(tris)
	s.minZ, s.maxZ = minZ, maxZ
	s.centerX, s.centerY = (minX+maxX)/2, (minY+maxY)/2
	s.SetIndex(s.MinIndex())
	return nil
}

func (s *Slicer) SetIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = i
}

func (s *Slicer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// MinIndex is floor(minZ / layerHeight).
func (s *Slicer) MinIndex() int {
	return int(math.Floor(s.minZ/s.params.LayerHeight + 1e-9))
}

// MaxIndex is ceil(maxZ / layerHeight).
func (s *Slicer) MaxIndex() int {
	return int(math.Ceil(s.maxZ/s.params.LayerHeight - 1e-9))
}

func (s *Slicer) FirstTriangle() *model.Triangle {
	return s.first
}

// TriangleCount returns the number of facets loaded.
func (s *Slicer) TriangleCount() int {
	return s.count
}

func (s *Slicer) Errors() []model.MeshError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MeshError, 0, len(s.errs))
	for e := range s.errs {
		out = append(out, e)
	}
	return out
}

func (s *Slicer) addError(e model.MeshError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[e] = struct{}{}
}

// Rasterize fills the pixel bounding box of the contour at the current layer.
func (s *Slicer) Rasterize(dst draw.Image) (float64, error) {
	s.factory.calls.Add(1)
	if s.factory.RenderDelay > 0 {
		time.Sleep(s.factory.RenderDelay)
	}
	index := s.Index()
	if index == s.factory.FailAtIndex {
		return 0, exception.GeometryError(moduleName, fmt.Sprintf("rasterization failed at layer %d", index), nil)
	}

	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.Black, image.Point{}, draw.Src)

	z := float64(index)*s.params.LayerHeight + s.params.HalfLayerOffset
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	segments := 0
	for t := s.first; t != nil; t = t.Next() {
		if s.degenerate[t] || z < t.MinZ() || z > t.MaxZ() {
			continue
		}
		pts := cut(t, z)
		if len(pts) < 2 {
			continue
		}
		segments++
		for _, p := range pts {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
	}
	if segments == 0 {
		return 0, nil
	}
	if segments < 3 {
		s.addError(model.MeshError{Kind: model.MeshErrorOpenLoop, Detail: fmt.Sprintf("layer %d", index)})
	}

	rect := image.Rect(
		int(math.Floor(s.toPixelX(minX))), int(math.Floor(s.toPixelY(minY))),
		int(math.Ceil(s.toPixelX(maxX))), int(math.Ceil(s.toPixelY(maxY))),
	).Intersect(bounds)
	if rect.Empty() {
		return 0, nil
	}
	draw.Draw(dst, rect, image.White, image.Point{}, draw.Src)
	return float64(rect.Dx() * rect.Dy()), nil
}

func (s *Slicer) toPixelX(x float64) float64 {
	return (x-s.centerX)*s.params.PixelsPerMMX + s.xRes/2
}

func (s *Slicer) toPixelY(y float64) float64 {
	return (y-s.centerY)*s.params.PixelsPerMMY + s.yRes/2
}

// cut returns the XY points where the plane at z crosses the edges of t.
func cut(t *model.Triangle, z float64) [][2]float64 {
	var pts [][2]float64
	for i := 0; i < 3; i++ {
		a, b := t.Vertices[i], t.Vertices[(i+1)%3]
		if a.Z == b.Z {
			if a.Z == z {
				pts = append(pts, [2]float64{a.X, a.Y}, [2]float64{b.X, b.Y})
			}
			continue
		}
		if (z < a.Z && z < b.Z) || (z > a.Z && z > b.Z) {
			continue
		}
		f := (z - a.Z) / (b.Z - a.Z)
		pts = append(pts, [2]float64{a.X + f*(b.X-a.X), a.Y + f*(b.Y-a.Y)})
	}
	return pts
}

// normal returns the right-hand-rule unit normal of t and twice its area.
func normal(t *model.Triangle) (model.Point3D, float64) {
	a, b, c := t.Vertices[0], t.Vertices[1], t.Vertices[2]
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	n := model.Point3D{X: uy*vz - uz*vy, Y: uz*vx - ux*vz, Z: ux*vy - uy*vx}
	l := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z)
	if l == 0 {
		return model.Point3D{}, 0
	}
	return model.Point3D{X: n.X / l, Y: n.Y / l, Z: n.Z / l}, l
}

// readTriangles decodes an ASCII or binary STL stream into an unlinked facet list.
func readTriangles(data []byte) ([]*model.Triangle, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	tris := make([]*model.Triangle, 0, len(solid.Triangles))
	for _, st := range solid.Triangles {
		t := &model.Triangle{Normal: point(st.Normal)}
		for v := range st.Vertices {
			t.Vertices[v] = point(st.Vertices[v])
		}
		tris = append(tris, t)
	}
	return tris, nil
}

func point(v stl.Vec3) model.Point3D {
	return model.Point3D{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
