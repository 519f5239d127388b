package geometry

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// Into draws src transformed by m onto dst. dst is cleared first; pixels that no
// source pixel maps to stay black. A singular m leaves dst black.
func Into(dst *image.Gray, src image.Image, m Affine) {
	clear(dst.Pix)
	if m.Determinant() == 0 {
		return
	}
	draw.NearestNeighbor.Transform(dst, m.Aff3(), src, src.Bounds(), draw.Src, nil)
}

// Apply returns a new image of the same size as src with settings applied.
// Identity settings return a plain copy.
func Apply(src *image.Gray, settings *model.TransformSettings, mode CorrectionMode) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	if settings.IsIdentity() {
		draw.Draw(dst, b, src, b.Min, draw.Src)
		return dst
	}
	m := NewTransform(settings, float64(b.Dx()), float64(b.Dy()), mode)
	Into(dst, src, m)
	return dst
}

// ToGray converts img to the canonical 8-bit grayscale layer format.
func ToGray(img image.Image) *image.Gray {
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
