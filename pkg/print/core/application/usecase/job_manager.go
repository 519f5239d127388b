// Package usecase holds the print job manager.
package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	config "github.com/tigerroll/layercure/pkg/print/core/config"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	repository "github.com/tigerroll/layercure/pkg/print/core/domain/repository"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
	workerpool "github.com/tigerroll/layercure/pkg/print/core/workerpool"
	exception "github.com/tigerroll/layercure/pkg/print/support/util/exception"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "job_manager"

// Dependencies are the collaborators of a PrintJobManager.
type Dependencies struct {
	Registry    repository.JobRegistry
	Assignment  port.PrinterAssignment
	Processors  port.ProcessorFactory
	Customizers port.CustomizerResolver
	Notifier    port.Notifier
	Listeners   []port.JobListener
	Pool        *workerpool.Pool
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer
	Config      *config.PrintConfig
}

// PrintJobManager creates print jobs, binds them to printers and guarantees that every
// created job is finalized exactly once.
type PrintJobManager struct {
	registry    repository.JobRegistry
	assignment  port.PrinterAssignment
	processors  port.ProcessorFactory
	customizers port.CustomizerResolver
	notifier    port.Notifier
	listeners   []port.JobListener
	pool        *workerpool.Pool
	recorder    metrics.MetricRecorder
	tracer      metrics.Tracer
	cfg         *config.PrintConfig
}

// NewPrintJobManager creates a PrintJobManager. Nil Recorder, Tracer and Config fall back to
// no-ops and defaults.
func NewPrintJobManager(d Dependencies) *PrintJobManager {
	m := &PrintJobManager{
		registry:    d.Registry,
		assignment:  d.Assignment,
		processors:  d.Processors,
		customizers: d.Customizers,
		notifier:    d.Notifier,
		listeners:   d.Listeners,
		pool:        d.Pool,
		recorder:    d.Recorder,
		tracer:      d.Tracer,
		cfg:         d.Config,
	}
	if m.recorder == nil {
		m.recorder = metrics.NewNoOpMetricRecorder()
	}
	if m.tracer == nil {
		m.tracer = metrics.NewNoOpTracer()
	}
	if m.cfg == nil {
		m.cfg = &config.NewConfig().Host.Print
	}
	return m
}

// CreateJob registers a job for file, binds printer to it and starts printing in the background.
// The returned job is live; its outcome is reported through the notifier and job listeners.
//
// Returns:
//
//	error: a JobCreationError when printer is nil, file is not a regular file or no processor
//	       accepts it, a PrinterBusyError when printer is bound to another job.
func (m *PrintJobManager) CreateJob(ctx context.Context, file string, printer model.Printer, useCustomizer bool) (*model.PrintJob, error) {
	if printer == nil {
		return nil, exception.JobCreationError(moduleName, fmt.Sprintf("no printer given for '%s'", file), nil)
	}
	job := model.NewPrintJob(file)
	if existing := m.registry.PutIfAbsent(job); existing != nil {
		return nil, exception.JobCreationError(moduleName, fmt.Sprintf("job id %s is already registered", job.ID()), nil)
	}

	info, err := os.Stat(file)
	if err != nil {
		m.registry.Remove(job.ID())
		return nil, exception.JobCreationError(moduleName, fmt.Sprintf("print file '%s' does not exist", file), err)
	}
	if !info.Mode().IsRegular() {
		m.registry.Remove(job.ID())
		return nil, exception.JobCreationError(moduleName, fmt.Sprintf("print file '%s' is not a regular file", file), nil)
	}
	processor, err := m.processors.ProcessorFor(file)
	if err != nil {
		m.registry.Remove(job.ID())
		return nil, err
	}

	if useCustomizer && m.customizers != nil {
		if c := m.customizers.Lookup(job.FileName()); c != nil {
			job.SetCustomizer(c)
			logger.Debugf("Job %s uses customizer '%s'.", job.ID(), c.Name)
		}
	}
	job.ResetSliceCounters()
	job.MarkStarted()

	var (
		assigned bool
		future   *workerpool.Future[model.JobStatus]
	)
	defer func() {
		m.scheduleCloser(job, printer, assigned, future)
	}()

	if err := m.assignment.Assign(job, printer); err != nil {
		m.registry.Remove(job.ID())
		return nil, exception.PrinterBusyError(moduleName, printer.Name(), err)
	}
	assigned = true
	job.SetPrintFileProcessor(processor)

	logger.Infof("Job %s created for '%s' on printer '%s' (%s).", job.ID(), job.FileName(), printer.Name(), processor.FriendlyName())
	m.tracer.RecordEvent(ctx, "print.job.created", map[string]interface{}{
		"job.id":  job.ID().String(),
		"printer": printer.Name(),
	})
	future = workerpool.Submit(m.pool, "print-"+job.ID().String(), func(ctx context.Context) (model.JobStatus, error) {
		return m.runJob(ctx, job, printer, processor)
	})
	return job, nil
}

func (m *PrintJobManager) runJob(ctx context.Context, job *model.PrintJob, printer model.Printer, processor model.PrintFileProcessor) (model.JobStatus, error) {
	printer.SetStatus(model.JobStatusPrinting)
	job.SetStatus(model.JobStatusPrinting)
	for _, l := range m.listeners {
		l.BeforeJob(ctx, job)
	}

	jobCtx, end := m.tracer.StartJobSpan(ctx, job)
	defer end()
	m.recorder.RecordJobStart(jobCtx, job)

	status, err := processor.ProcessFile(jobCtx, job)
	if err != nil {
		m.tracer.RecordError(jobCtx, moduleName, err)
		return model.JobStatusFailed, err
	}
	return status, nil
}

// scheduleCloser runs the closer on the pool, or inline when the pool no longer accepts work.
func (m *PrintJobManager) scheduleCloser(job *model.PrintJob, printer model.Printer, assigned bool, future *workerpool.Future[model.JobStatus]) {
	c := &jobCloser{m: m, job: job, printer: printer, assigned: assigned, future: future}
	if err := workerpool.Go(m.pool, "close-"+job.ID().String(), c.run); err != nil {
		logger.Warnf("Job %s: closer could not be scheduled (%v); closing inline.", job.ID(), err)
		c.run(context.Background())
	}
}

// RemoveJob deregisters job.
//
// Returns:
//
//	bool: whether the job was registered.
//	error: an IllegalStateError when the job's printer is printing.
func (m *PrintJobManager) RemoveJob(job *model.PrintJob) (bool, error) {
	if job == nil {
		return false, nil
	}
	if p := job.Printer(); p != nil && p.IsPrintActive() {
		return false, exception.IllegalStateError(moduleName,
			fmt.Sprintf("job %s cannot be removed while printer '%s' is %s", job.ID(), p.Name(), p.Status()))
	}
	removed := m.registry.Remove(job.ID())
	if removed {
		logger.Debugf("Job %s removed.", job.ID())
	}
	return removed, nil
}

// Jobs lists every registered job.
func (m *PrintJobManager) Jobs() []*model.PrintJob {
	return m.registry.List()
}

// Job returns the registered job with id.
func (m *PrintJobManager) Job(id uuid.UUID) (*model.PrintJob, bool) {
	return m.registry.Get(id)
}

// JobByPrinterName returns the job currently bound to the named printer.
func (m *PrintJobManager) JobByPrinterName(printerName string) (*model.PrintJob, bool) {
	id, ok := m.assignment.AssignedJob(printerName)
	if !ok {
		return nil, false
	}
	return m.registry.Get(id)
}

// JobsByFileName lists the registered jobs printing a file with the given base name, oldest first.
func (m *PrintJobManager) JobsByFileName(fileName string) []*model.PrintJob {
	var jobs []*model.PrintJob
	for _, job := range m.registry.List() {
		if job.FileName() == fileName {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// AwaitJob blocks until job has been finalized or ctx is done.
func (m *PrintJobManager) AwaitJob(ctx context.Context, job *model.PrintJob) (model.JobStatus, error) {
	select {
	case <-job.Done():
		return job.Status(), nil
	case <-ctx.Done():
		return job.Status(), ctx.Err()
	}
}

// jobCloser finalizes one job. It runs exactly once per created job, whether the print
// completed, failed, was cancelled or never started.
type jobCloser struct {
	m        *PrintJobManager
	job      *model.PrintJob
	printer  model.Printer
	assigned bool
	future   *workerpool.Future[model.JobStatus]
}

func (c *jobCloser) run(ctx context.Context) {
	job := c.job
	if !job.MarkFinalized() {
		return
	}
	defer job.MarkDone()

	status, runErr := c.outcome()
	if runErr != nil {
		job.Fail(runErr)
		status = model.JobStatusFailed
		logger.Errorf("Job %s failed: %v", job.ID(), runErr)
	}

	if !c.assigned {
		// The caller never received this job; only the notifier hears about it.
		job.RecordElapsedTime()
		job.SetStatus(status)
		if c.m.notifier != nil {
			c.m.notifier.JobChanged(c.printer, job)
		}
		return
	}

	cleanup := c.releasePrinter(status)
	job.SetStatus(status)

	// The job is already stopped; listener and metric work must not be cut short by pool shutdown.
	ctx = context.WithoutCancel(ctx)
	c.m.recorder.RecordJobEnd(ctx, job)
	for _, l := range c.m.listeners {
		if err := l.AfterJob(ctx, job); err != nil {
			cleanup = multierror.Append(cleanup, err)
		}
	}
	if err := cleanup.ErrorOrNil(); err != nil {
		logger.Warnf("Job %s: finalization finished with errors: %v", job.ID(), err)
	}

	logger.Infof("Job %s finished with status %s after %s (%d/%d slices).",
		job.ID(), job.Status(), job.ElapsedTime(), job.CurrentSlice(), job.TotalSlices())
	if c.m.notifier != nil {
		c.m.notifier.JobChanged(c.printer, job)
	}
}

// outcome waits for the driver. A job whose driver was never submitted has failed.
func (c *jobCloser) outcome() (model.JobStatus, error) {
	if c.future == nil {
		return model.JobStatusFailed, exception.PipelineFailure(moduleName,
			fmt.Sprintf("job %s was never started", c.job.ID()), nil)
	}
	status, err := c.future.Get(context.Background())
	if err != nil {
		return model.JobStatusFailed, exception.PipelineFailure(moduleName, "print job failed", err)
	}
	if !status.IsFinished() {
		return model.JobStatusFailed, exception.PipelineFailure(moduleName,
			fmt.Sprintf("print ended in non-terminal status %s", status), nil)
	}
	return status, nil
}

func (c *jobCloser) releasePrinter(status model.JobStatus) *multierror.Error {
	var result *multierror.Error
	job, printer := c.job, c.printer

	printer.SetStatus(status)
	job.RecordElapsedTime()
	if err := printer.ShowBlankImage(); err != nil {
		result = multierror.Append(result, fmt.Errorf("blank frame on '%s': %w", printer.Name(), err))
	}
	if c.m.cfg.RemoveJobOnCompletion {
		c.m.registry.Remove(job.ID())
	}
	printer.SetCurrentSlicePauseTime(0)
	c.m.assignment.Release(job)
	if p := job.PrintFileProcessor(); p != nil {
		job.SetPrintFileProcessor(c.m.processors.Inert(p))
	}
	printer.SetStatus(model.JobStatusReady)
	return result
}
