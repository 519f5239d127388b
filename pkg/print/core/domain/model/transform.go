package model

// TransformSettings are the affine parameters of a customizer.
// A negative scale mirrors the axis.
type TransformSettings struct {
	XTranslate float64
	YTranslate float64
	XScale     float64
	YScale     float64
	// ScriptCalculator is an opaque script reference. It is carried but never evaluated.
	ScriptCalculator string
}

// NewTransformSettings returns identity settings.
func NewTransformSettings() *TransformSettings {
	return &TransformSettings{XScale: 1, YScale: 1}
}

// IsIdentity reports whether the settings are exactly the identity. No tolerance is applied.
func (s *TransformSettings) IsIdentity() bool {
	if s == nil {
		return true
	}
	return s.XTranslate == 0 && s.YTranslate == 0 && s.XScale == 1 && s.YScale == 1
}
