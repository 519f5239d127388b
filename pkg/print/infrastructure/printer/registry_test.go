package printer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/adapter/printer/simulated"
	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/infrastructure/printer"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

func TestRegistry_Printer(t *testing.T) {
	p := simulated.New("alpha", model.SlicingProfile{})
	r := printer.NewRegistry(p)

	got, err := r.Printer("alpha")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = r.Printer("beta")
	assert.True(t, errors.Is(err, exception.ErrNoPrinterAvailable))
}

func TestRegistry_FirstAvailable(t *testing.T) {
	busy := simulated.New("a", model.SlicingProfile{})
	busy.SetStatus(model.JobStatusPrinting)
	stopped := simulated.New("b", model.SlicingProfile{}, simulated.Stopped())
	idle := simulated.New("c", model.SlicingProfile{})

	r := printer.NewRegistry(idle, stopped, busy)
	got, err := r.FirstAvailable()
	require.NoError(t, err)
	assert.Equal(t, "c", got.Name())

	idle.SetStatus(model.JobStatusPaused)
	_, err = r.FirstAvailable()
	assert.True(t, errors.Is(err, exception.ErrNoPrinterAvailable))
}

func TestProfileFromConfig(t *testing.T) {
	profile, err := printer.ProfileFromConfig(config.PrinterConfig{
		Name:               "p",
		DotsPerMMX:         10,
		DotsPerMMY:         12,
		LayerHeightMM:      0.05,
		XResolution:        1920,
		YResolution:        1080,
		Direction:          "top_down",
		ExposureTimeMillis: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BuildDirectionTopDown, profile.Direction)
	assert.Equal(t, 1920, profile.XResolution)
	assert.Equal(t, 800, profile.ExposureTimeMillis)

	_, err = printer.ProfileFromConfig(config.PrinterConfig{Name: "p", Direction: "sideways"})
	assert.Error(t, err)
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Host.Printers = map[string]interface{}{
		"vat-1": map[string]interface{}{"dots_per_mm_x": 10.0, "dots_per_mm_y": 10.0, "layer_height_mm": 0.1, "x_resolution": 100, "y_resolution": 80},
		"vat-2": map[string]interface{}{"name": "second", "direction": "top_down"},
	}

	r, err := printer.NewRegistryFromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, r.Printers(), 2)

	p, err := r.Printer("vat-1")
	require.NoError(t, err)
	assert.Equal(t, 100, p.SlicingProfile().XResolution)

	p, err = r.Printer("second")
	require.NoError(t, err)
	assert.Equal(t, model.BuildDirectionTopDown, p.SlicingProfile().Direction)
}
