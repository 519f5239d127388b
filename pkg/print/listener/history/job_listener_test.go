package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	repository "github.com/tigerroll/layercure/pkg/print/core/domain/repository"
	"github.com/tigerroll/layercure/pkg/print/listener/history"
)

type memoryHistory struct {
	records map[string]*repository.JobRecord
	err     error
}

func (m *memoryHistory) SaveJobRecord(ctx context.Context, rec *repository.JobRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *memoryHistory) FindJobRecord(ctx context.Context, id string) (*repository.JobRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrJobRecordNotFound
	}
	return rec, nil
}

func (m *memoryHistory) FindJobRecordsByFileName(ctx context.Context, fileName string) ([]*repository.JobRecord, error) {
	return nil, nil
}

func (m *memoryHistory) Close() error { return nil }

func TestHistoryJobListener_SavesFinalizedJob(t *testing.T) {
	repo := &memoryHistory{records: map[string]*repository.JobRecord{}}
	l := history.NewHistoryJobListener(repo)
	job := model.NewPrintJob("/models/bracket.stl")
	job.SetTotalSlices(40)
	job.Fail(errors.New("resin low"))
	job.SetStatus(model.JobStatusFailed)

	require.NoError(t, l.AfterJob(context.Background(), job))

	rec, err := repo.FindJobRecord(context.Background(), job.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "bracket.stl", rec.FileName)
	assert.Equal(t, model.JobStatusFailed, rec.Status)
	assert.Equal(t, 40, rec.TotalSlices)
	assert.Contains(t, rec.Failure, "resin low")
	assert.Empty(t, rec.PrinterName)
}

func TestHistoryJobListener_PropagatesSaveError(t *testing.T) {
	boom := errors.New("disk full")
	l := history.NewHistoryJobListener(&memoryHistory{err: boom})

	err := l.AfterJob(context.Background(), model.NewPrintJob("a.stl"))
	assert.True(t, errors.Is(err, boom))
}

func TestHistoryJobListener_WithoutRepository(t *testing.T) {
	l := history.NewHistoryJobListener(nil)
	assert.NoError(t, l.AfterJob(context.Background(), model.NewPrintJob("a.stl")))
}
