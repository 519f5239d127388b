// Package repository defines the storage interfaces of the print host.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// ErrJobRecordNotFound is returned when no history record exists for an id.
var ErrJobRecordNotFound = errors.New("job record not found")

// JobRegistry holds the jobs known to the host. It is safe for concurrent use.
type JobRegistry interface {
	// PutIfAbsent stores job unless a job with the same id exists.
	// It returns the job already stored under the id, or nil when job was stored.
	PutIfAbsent(job *model.PrintJob) *model.PrintJob
	Get(id uuid.UUID) (*model.PrintJob, bool)
	// Remove deletes the job with id and reports whether it was present.
	Remove(id uuid.UUID) bool
	List() []*model.PrintJob
}

// JobRecord is the persisted summary of a finished job.
type JobRecord struct {
	ID             string
	FileName       string
	PrinterName    string
	Status         model.JobStatus
	CurrentSlice   int
	TotalSlices    int
	ElapsedMillis  int64
	Failure        string
	MeshErrorCount int
	FinishedAt     time.Time
}

// NewJobRecord summarizes job.
func NewJobRecord(job *model.PrintJob) *JobRecord {
	rec := &JobRecord{
		ID:             job.ID().String(),
		FileName:       job.FileName(),
		Status:         job.Status(),
		CurrentSlice:   job.CurrentSlice(),
		TotalSlices:    job.TotalSlices(),
		ElapsedMillis:  job.ElapsedTime().Milliseconds(),
		MeshErrorCount: len(job.MeshErrors()),
		FinishedAt:     time.Now(),
	}
	if p := job.Printer(); p != nil {
		rec.PrinterName = p.Name()
	}
	if err := job.Failure(); err != nil {
		rec.Failure = err.Error()
	}
	return rec
}

// HistoryRepository persists finished jobs.
type HistoryRepository interface {
	SaveJobRecord(ctx context.Context, rec *JobRecord) error
	FindJobRecord(ctx context.Context, id string) (*JobRecord, error)
	FindJobRecordsByFileName(ctx context.Context, fileName string) ([]*JobRecord, error)
	Close() error
}
