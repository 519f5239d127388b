// Package geometry builds the 2D affine transforms applied to rendered layers.
//
// Matrices follow the row-major convention of f64.Aff3:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Scale and Translate concatenate on the right, so the operation added last is applied to
// the point first.
package geometry

import (
	"fmt"

	"golang.org/x/image/math/f64"

	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// Affine is a 2D affine transform.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Scale returns m concatenated with a scale by (sx, sy).
func (m Affine) Scale(sx, sy float64) Affine {
	return Affine{
		A: m.A * sx, B: m.B * sy, C: m.C,
		D: m.D * sx, E: m.E * sy, F: m.F,
	}
}

// Translate returns m concatenated with a translation by (tx, ty).
func (m Affine) Translate(tx, ty float64) Affine {
	return Affine{
		A: m.A, B: m.B, C: m.A*tx + m.B*ty + m.C,
		D: m.D, E: m.E, F: m.D*tx + m.E*ty + m.F,
	}
}

// Apply maps (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// ScaleX returns the X scale component.
func (m Affine) ScaleX() float64 { return m.A }

// ScaleY returns the Y scale component.
func (m Affine) ScaleY() float64 { return m.E }

// Determinant returns the determinant of the linear part.
func (m Affine) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// Aff3 converts m for golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// CorrectionMode selects how a negative scale is brought back into the positive quadrant.
type CorrectionMode int

const (
	// CorrectionComposed appends translate(-(dim - s*dim)/2) after scale and translate,
	// reading s from the composed transform. The offset is therefore expressed in pre-scale space.
	CorrectionComposed CorrectionMode = iota
	// CorrectionCentered adds (1 - s)*dim/2 in output space, using the requested scale.
	CorrectionCentered
)

// String implements fmt.Stringer.
func (c CorrectionMode) String() string {
	switch c {
	case CorrectionComposed:
		return config.CorrectionComposed
	case CorrectionCentered:
		return config.CorrectionCentered
	default:
		return fmt.Sprintf("CorrectionMode(%d)", int(c))
	}
}

// ParseCorrectionMode converts a configuration value. The empty string selects CorrectionComposed.
func ParseCorrectionMode(s string) (CorrectionMode, error) {
	switch s {
	case "", config.CorrectionComposed:
		return CorrectionComposed, nil
	case config.CorrectionCentered:
		return CorrectionCentered, nil
	default:
		return CorrectionComposed, fmt.Errorf("unknown correction mode '%s'", s)
	}
}

// NewTransform builds the transform for settings on a width x height canvas.
// nil settings yield the identity.
//
// Both modes agree whenever |scale| == 1 on an axis. With a non-unit scale and a
// non-zero translate they place the image differently.
func NewTransform(settings *model.TransformSettings, width, height float64, mode CorrectionMode) Affine {
	if settings == nil {
		return Identity()
	}
	sx, sy := settings.XScale, settings.YScale
	tx, ty := settings.XTranslate, settings.YTranslate

	switch mode {
	case CorrectionCentered:
		offX := (1 - sx) * width / 2
		offY := (1 - sy) * height / 2
		return Identity().Translate(offX, offY).Scale(sx, sy).Translate(tx, ty)
	default:
		m := Identity().Scale(sx, sy).Translate(tx, ty)
		yOff := -(height - m.ScaleY()*height) / 2
		xOff := -(width - m.ScaleX()*width) / 2
		return m.Translate(xOff, yOff)
	}
}
