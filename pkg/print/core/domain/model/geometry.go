package model

import "fmt"

// Point3D is a vertex in model space, in millimetres.
type Point3D struct {
	X, Y, Z float64
}

// Triangle is one facet of a mesh. Facets form a singly linked chain in mesh order.
type Triangle struct {
	Vertices [3]Point3D
	Normal   Point3D
	next     *Triangle
}

// Next returns the following triangle in mesh order, or nil at the end of the chain.
func (t *Triangle) Next() *Triangle {
	return t.next
}

// Link appends n after t and returns n.
func (t *Triangle) Link(n *Triangle) *Triangle {
	t.next = n
	return n
}

// MinZ returns the lowest Z of the facet.
func (t *Triangle) MinZ() float64 {
	return min(t.Vertices[0].Z, t.Vertices[1].Z, t.Vertices[2].Z)
}

// MaxZ returns the highest Z of the facet.
func (t *Triangle) MaxZ() float64 {
	return max(t.Vertices[0].Z, t.Vertices[1].Z, t.Vertices[2].Z)
}

// MeshErrorKind classifies a problem the slicer found in the mesh.
type MeshErrorKind string

const (
	MeshErrorDegenerate MeshErrorKind = "DEGENERATE_TRIANGLE"
	MeshErrorOpenLoop   MeshErrorKind = "OPEN_LOOP"
	MeshErrorBadNormal  MeshErrorKind = "BAD_NORMAL"
)

// MeshError is a single mesh problem. It is comparable so sets of errors can be kept in maps.
type MeshError struct {
	Kind   MeshErrorKind
	Detail string
}

// String implements fmt.Stringer.
func (e MeshError) String() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}
