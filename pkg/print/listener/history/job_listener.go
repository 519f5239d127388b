// Package history stores a record of every finalized job.
package history

import (
	"context"
	"fmt"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	repository "github.com/tigerroll/layercure/pkg/print/core/domain/repository"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// HistoryJobListener saves a repository.JobRecord when a job is finalized.
// With a nil repository it does nothing.
type HistoryJobListener struct {
	repo repository.HistoryRepository
}

// NewHistoryJobListener creates a HistoryJobListener.
func NewHistoryJobListener(repo repository.HistoryRepository) *HistoryJobListener {
	return &HistoryJobListener{repo: repo}
}

// BeforeJob implements port.JobListener.
func (l *HistoryJobListener) BeforeJob(ctx context.Context, job *model.PrintJob) {}

// AfterJob implements port.JobListener.
func (l *HistoryJobListener) AfterJob(ctx context.Context, job *model.PrintJob) error {
	if l.repo == nil {
		return nil
	}
	rec := repository.NewJobRecord(job)
	if err := l.repo.SaveJobRecord(ctx, rec); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	logger.Debugf("History: job %s stored with status %s.", rec.ID, rec.Status)
	return nil
}

var _ port.JobListener = (*HistoryJobListener)(nil)
