package model

// BuildDirection is the direction in which layers are exposed.
type BuildDirection string

const (
	BuildDirectionBottomUp BuildDirection = "bottom_up"
	BuildDirectionTopDown  BuildDirection = "top_down"
)

// Vector returns the index step of the scan: +1 for bottom-up, -1 for top-down.
func (d BuildDirection) Vector() int {
	if d == BuildDirectionTopDown {
		return -1
	}
	return 1
}

// SlicingProfile carries the calibration a printer needs to rasterize layers.
type SlicingProfile struct {
	DotsPerMMX    float64
	DotsPerMMY    float64
	LayerHeightMM float64
	XResolution   int
	YResolution   int
	Direction     BuildDirection
	// ExposureTimeMillis is how long one layer is shown to cure.
	ExposureTimeMillis int
	// OverrideModelNormals recomputes facet normals with the right-hand rule.
	OverrideModelNormals bool
}
