package config

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// PrinterConfig is the slicing profile of one printer as written in YAML.
type PrinterConfig struct {
	Name                 string  `mapstructure:"name"`
	DotsPerMMX           float64 `mapstructure:"dots_per_mm_x"`
	DotsPerMMY           float64 `mapstructure:"dots_per_mm_y"`
	LayerHeightMM        float64 `mapstructure:"layer_height_mm"`
	XResolution          int     `mapstructure:"x_resolution"`
	YResolution          int     `mapstructure:"y_resolution"`
	Direction            string  `mapstructure:"direction"` // "bottom_up" or "top_down".
	ExposureTimeMillis   int     `mapstructure:"exposure_time_millis"`
	OverrideModelNormals bool    `mapstructure:"override_model_normals"`
}

// TransformConfig holds the affine settings of a customizer.
type TransformConfig struct {
	XTranslate float64  `mapstructure:"x_translate"`
	YTranslate float64  `mapstructure:"y_translate"`
	XScale     *float64 `mapstructure:"x_scale"`
	YScale     *float64 `mapstructure:"y_scale"`
}

// CustomizerConfig is a customizer definition as written in YAML.
type CustomizerConfig struct {
	Name               string           `mapstructure:"name"`
	PrinterName        string           `mapstructure:"printer"`
	PrintableName      string           `mapstructure:"printable_name"`
	PrintableExtension string           `mapstructure:"printable_extension"`
	SupportsTransform  bool             `mapstructure:"supports_transform"`
	Transform          *TransformConfig `mapstructure:"transform"`
}

// PrinterProfiles decodes the free-form printer section. The map key is used as the
// printer name when the profile does not set one.
func (h *HostConfig) PrinterProfiles() (map[string]PrinterConfig, error) {
	profiles := make(map[string]PrinterConfig, len(h.Printers))
	for key, raw := range h.Printers {
		var pc PrinterConfig
		if err := mapstructure.Decode(raw, &pc); err != nil {
			return nil, fmt.Errorf("failed to decode printer profile '%s': %w", key, err)
		}
		if pc.Name == "" {
			pc.Name = key
		}
		if pc.Direction == "" {
			pc.Direction = "bottom_up"
		}
		profiles[key] = pc
	}
	return profiles, nil
}

// PrinterNames returns the configured printer names in sorted order.
func (h *HostConfig) PrinterNames() []string {
	names := make([]string, 0, len(h.Printers))
	for key := range h.Printers {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// CustomizerDefinitions decodes the free-form customizer section.
func (h *HostConfig) CustomizerDefinitions() ([]CustomizerConfig, error) {
	defs := make([]CustomizerConfig, 0, len(h.Customizers))
	for i, raw := range h.Customizers {
		var cc CustomizerConfig
		if err := mapstructure.Decode(raw, &cc); err != nil {
			return nil, fmt.Errorf("failed to decode customizer #%d: %w", i, err)
		}
		defs = append(defs, cc)
	}
	return defs, nil
}
