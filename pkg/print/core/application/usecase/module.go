package usecase

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	config "github.com/tigerroll/layercure/pkg/print/core/config"
	repository "github.com/tigerroll/layercure/pkg/print/core/domain/repository"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
	workerpool "github.com/tigerroll/layercure/pkg/print/core/workerpool"
)

// JobManagerParams defines the dependencies of NewPrintJobManagerProvider.
type JobManagerParams struct {
	fx.In
	Registry    repository.JobRegistry
	Assignment  port.PrinterAssignment
	Processors  port.ProcessorFactory
	Customizers port.CustomizerResolver `optional:"true"`
	Notifier    port.Notifier           `optional:"true"`
	Listeners   []port.JobListener      `group:"job_listeners"`
	Pool        *workerpool.Pool
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer
	Config      *config.PrintConfig
}

// NewPrintJobManagerProvider builds the PrintJobManager from the Fx graph.
func NewPrintJobManagerProvider(p JobManagerParams) *PrintJobManager {
	return NewPrintJobManager(Dependencies{
		Registry:    p.Registry,
		Assignment:  p.Assignment,
		Processors:  p.Processors,
		Customizers: p.Customizers,
		Notifier:    p.Notifier,
		Listeners:   p.Listeners,
		Pool:        p.Pool,
		Recorder:    p.Recorder,
		Tracer:      p.Tracer,
		Config:      p.Config,
	})
}

// Module provides the PrintJobManager.
var Module = fx.Options(
	fx.Provide(NewPrintJobManagerProvider),
)
