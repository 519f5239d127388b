package dummy

import (
	"io"

	"github.com/hschendel/stl"
)

// WriteBoxSTL writes an axis-aligned box as ASCII STL.
func WriteBoxSTL(w io.Writer, minX, minY, minZ, maxX, maxY, maxZ float64) error {
	return BoxSolid(minX, minY, minZ, maxX, maxY, maxZ).WriteAll(w)
}

// BoxSolid builds the twelve outward-facing facets of an axis-aligned box.
func BoxSolid(minX, minY, minZ, maxX, maxY, maxZ float64) *stl.Solid {
	c := [8]stl.Vec3{
		vec(minX, minY, minZ), vec(maxX, minY, minZ), vec(maxX, maxY, minZ), vec(minX, maxY, minZ),
		vec(minX, minY, maxZ), vec(maxX, minY, maxZ), vec(maxX, maxY, maxZ), vec(minX, maxY, maxZ),
	}
	faces := [12][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{1, 2, 6}, {1, 6, 5}, // right
		{2, 3, 7}, {2, 7, 6}, // back
		{3, 0, 4}, {3, 4, 7}, // left
	}
	solid := &stl.Solid{Name: "box", IsAscii: true}
	for _, f := range faces {
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Vertices: [3]stl.Vec3{c[f[0]], c[f[1]], c[f[2]]},
		})
	}
	return solid
}

func vec(x, y, z float64) stl.Vec3 {
	return stl.Vec3{float32(x), float32(y), float32(z)}
}
