// Package printer holds the printers known to the host.
package printer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tigerroll/layercure/pkg/print/adapter/printer/simulated"
	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "printer_registry"

// Registry is a port.PrinterLocator over a fixed set of printers.
type Registry struct {
	mu       sync.RWMutex
	printers map[string]model.Printer
}

// NewRegistry creates a Registry holding printers.
func NewRegistry(printers ...model.Printer) *Registry {
	r := &Registry{printers: make(map[string]model.Printer, len(printers))}
	for _, p := range printers {
		r.printers[p.Name()] = p
	}
	return r
}

// Add registers p, replacing a printer with the same name.
func (r *Registry) Add(p model.Printer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printers[p.Name()] = p
}

func (r *Registry) Printer(name string) (model.Printer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.printers[name]
	if !ok {
		return nil, exception.NoPrinterAvailableError(moduleName, fmt.Sprintf("printer '%s' not found", name), nil)
	}
	return p, nil
}

// FirstAvailable returns the first started, idle printer in name order.
func (r *Registry) FirstAvailable() (model.Printer, error) {
	for _, p := range r.Printers() {
		if p.IsStarted() && !p.IsPrintActive() {
			return p, nil
		}
	}
	return nil, exception.NoPrinterAvailableError(moduleName, "no started printer is idle", nil)
}

// Printers lists the printers sorted by name.
func (r *Registry) Printers() []model.Printer {
	r.mu.RLock()
	list := make([]model.Printer, 0, len(r.printers))
	for _, p := range r.printers {
		list = append(list, p)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// ProfileFromConfig converts a configured printer profile into a slicing profile.
func ProfileFromConfig(pc config.PrinterConfig) (model.SlicingProfile, error) {
	dir := model.BuildDirection(pc.Direction)
	switch dir {
	case model.BuildDirectionBottomUp, model.BuildDirectionTopDown:
	case "":
		dir = model.BuildDirectionBottomUp
	default:
		return model.SlicingProfile{}, fmt.Errorf("printer '%s': unknown build direction '%s'", pc.Name, pc.Direction)
	}
	return model.SlicingProfile{
		DotsPerMMX:           pc.DotsPerMMX,
		DotsPerMMY:           pc.DotsPerMMY,
		LayerHeightMM:        pc.LayerHeightMM,
		XResolution:          pc.XResolution,
		YResolution:          pc.YResolution,
		Direction:            dir,
		ExposureTimeMillis:   pc.ExposureTimeMillis,
		OverrideModelNormals: pc.OverrideModelNormals,
	}, nil
}

// NewRegistryFromConfig creates a simulated printer for every configured profile.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	profiles, err := cfg.Host.PrinterProfiles()
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, key := range cfg.Host.PrinterNames() {
		pc := profiles[key]
		profile, err := ProfileFromConfig(pc)
		if err != nil {
			return nil, err
		}
		r.Add(simulated.New(pc.Name, profile))
		logger.Infof("Printer '%s' registered (%dx%d px, %.3f mm layers, %s).",
			pc.Name, profile.XResolution, profile.YResolution, profile.LayerHeightMM, profile.Direction)
	}
	return r, nil
}

var _ port.PrinterLocator = (*Registry)(nil)
