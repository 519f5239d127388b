package processor

import (
	"go.uber.org/fx"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/core/metrics"
	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
)

// ProcessorParams defines the dependencies of NewSTLFileProcessorProvider.
type ProcessorParams struct {
	fx.In
	Config        *config.PrintConfig
	SlicerFactory port.SlicerFactory
	Lifecycle     port.PrintLifecycle
	Printers      port.PrinterLocator
	Pool          *workerpool.Pool
	Recorder      metrics.MetricRecorder
	Tracer        metrics.Tracer
}

// NewSTLFileProcessorProvider builds the STL processor from configuration.
func NewSTLFileProcessorProvider(p ProcessorParams) (*STLFileProcessor, error) {
	mode, err := geometry.ParseCorrectionMode(p.Config.CorrectionMode)
	if err != nil {
		return nil, err
	}
	return NewSTLFileProcessor(Params{
		SlicerFactory: p.SlicerFactory,
		Lifecycle:     p.Lifecycle,
		Printers:      p.Printers,
		Pool:          p.Pool,
		Recorder:      p.Recorder,
		Tracer:        p.Tracer,
		Correction:    mode,
	}), nil
}

// NewRegistryProvider registers the STL processor.
func NewRegistryProvider(stl *STLFileProcessor) *Registry {
	return NewRegistry(stl)
}

// Module provides the STL processor and the processor registry.
var Module = fx.Options(
	fx.Provide(NewSTLFileProcessorProvider),
	fx.Provide(fx.Annotate(
		NewRegistryProvider,
		fx.As(new(port.ProcessorFactory)),
	)),
)
