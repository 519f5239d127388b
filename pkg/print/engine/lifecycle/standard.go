// Package lifecycle provides the per-layer duties shared by every print file:
// pause and cancel handling, exposure, slice accounting and progress notification.
package lifecycle

import (
	"context"
	"image"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/metrics"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "print_lifecycle"

// StandardLifecycle is the default port.PrintLifecycle.
type StandardLifecycle struct {
	notifier  port.Notifier
	recorder  metrics.MetricRecorder
	pausePoll time.Duration
}

// NewStandardLifecycle creates a StandardLifecycle. notifier may be nil; a nil recorder
// records nothing.
func NewStandardLifecycle(cfg *config.PrintConfig, notifier port.Notifier, recorder metrics.MetricRecorder) *StandardLifecycle {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	poll := time.Duration(cfg.PausePollIntervalMillis) * time.Millisecond
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}
	return &StandardLifecycle{notifier: notifier, recorder: recorder, pausePoll: poll}
}

// Header clears any pause left on the printer.
func (l *StandardLifecycle) Header(ctx context.Context, env *port.JobEnv) error {
	env.Printer.SetCurrentSlicePauseTime(0)
	logger.Infof("Job %s: printing %d layers of '%s' on '%s'.",
		env.Job.ID(), env.Job.TotalSlices(), env.Job.FileName(), env.Printer.Name())
	return nil
}

// PreSlice merges mesh errors into the job, waits out a pause and turns a cancel request
// or an inactive printer into Cancelled.
func (l *StandardLifecycle) PreSlice(ctx context.Context, env *port.JobEnv, meshErrors []model.MeshError) (model.JobStatus, bool, error) {
	env.Job.AddMeshErrors(meshErrors)

	status := env.Printer.Status()
	if status == model.JobStatusPaused {
		var err error
		if status, err = l.waitWhilePaused(ctx, env); err != nil {
			return model.JobStatusCancelled, true, nil
		}
	}

	switch {
	case status == model.JobStatusCancelling:
		logger.Infof("Job %s: cancel requested at slice %d.", env.Job.ID(), env.Job.CurrentSlice())
		return model.JobStatusCancelled, true, nil
	case !status.IsPrintActive():
		return model.JobStatusCancelled, true, nil
	}
	return "", false, nil
}

func (l *StandardLifecycle) waitWhilePaused(ctx context.Context, env *port.JobEnv) (model.JobStatus, error) {
	start := time.Now()
	logger.Infof("Job %s: paused at slice %d.", env.Job.ID(), env.Job.CurrentSlice())
	ticker := time.NewTicker(l.pausePoll)
	defer ticker.Stop()

	status := env.Printer.Status()
	for status == model.JobStatusPaused {
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
		status = env.Printer.Status()
	}
	paused := time.Since(start)
	env.Printer.SetCurrentSlicePauseTime(env.Printer.CurrentSlicePauseTime() + paused.Milliseconds())
	logger.Infof("Job %s: resumed after %s.", env.Job.ID(), paused)
	return status, nil
}

// PostSlice shows img, holds it for the exposure time and advances the slice counter.
func (l *StandardLifecycle) PostSlice(ctx context.Context, env *port.JobEnv, img image.Image) (model.JobStatus, bool, error) {
	start := time.Now()
	if err := env.Printer.ShowImage(img); err != nil {
		return model.JobStatusFailed, true, exception.PipelineFailure(moduleName, "printer rejected layer image", err)
	}

	if exposure := time.Duration(env.Profile.ExposureTimeMillis) * time.Millisecond; exposure > 0 {
		timer := time.NewTimer(exposure)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.JobStatusCancelled, true, nil
		case <-timer.C:
		}
	}

	env.Printer.SetCurrentSlicePauseTime(0)
	slice := env.Job.IncrementCurrentSlice()
	l.recorder.RecordLayerExposed(ctx, env.Printer.Name(), time.Since(start))
	if l.notifier != nil {
		l.notifier.SliceExposed(env.Printer, env.Job)
	}
	logger.Debugf("Job %s: exposed slice %d/%d.", env.Job.ID(), slice, env.Job.TotalSlices())
	return "", false, nil
}

// Footer returns Completed when every slice was exposed, otherwise Cancelled.
func (l *StandardLifecycle) Footer(ctx context.Context, env *port.JobEnv) (model.JobStatus, error) {
	if env.Job.CurrentSlice() >= env.Job.TotalSlices() {
		return model.JobStatusCompleted, nil
	}
	logger.Infof("Job %s: stopped after %d of %d slices.", env.Job.ID(), env.Job.CurrentSlice(), env.Job.TotalSlices())
	return model.JobStatusCancelled, nil
}

var _ port.PrintLifecycle = (*StandardLifecycle)(nil)
