package logging

import (
	"context"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

type LoggingJobListener struct{}

func NewLoggingJobListener() *LoggingJobListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, job *model.PrintJob) {
	logger.Infof("JobListener: BeforeJob - ID: %s, File: %s, Printer: %s", job.ID(), job.FileName(), printerName(job))
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, job *model.PrintJob) error {
	if err := job.Failure(); err != nil {
		logger.Warnf("JobListener: AfterJob - ID: %s, Status: %s, Slices: %d/%d, Failure: %v",
			job.ID(), job.Status(), job.CurrentSlice(), job.TotalSlices(), err)
		return nil
	}
	logger.Infof("JobListener: AfterJob - ID: %s, Status: %s, Slices: %d/%d, Elapsed: %s",
		job.ID(), job.Status(), job.CurrentSlice(), job.TotalSlices(), job.ElapsedTime())
	if errs := job.MeshErrors(); len(errs) > 0 {
		logger.Warnf("JobListener: AfterJob - ID: %s reported %d mesh errors.", job.ID(), len(errs))
	}
	return nil
}

func printerName(job *model.PrintJob) string {
	if p := job.Printer(); p != nil {
		return p.Name()
	}
	return "-"
}

var _ port.JobListener = (*LoggingJobListener)(nil)
