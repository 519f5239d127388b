// Package gorm persists finished print jobs with GORM.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/domain/repository"
)

// jobRecordModel is the table row of a repository.JobRecord.
type jobRecordModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	FileName       string `gorm:"index;size:255"`
	PrinterName    string `gorm:"size:128"`
	Status         string `gorm:"size:16"`
	CurrentSlice   int
	TotalSlices    int
	ElapsedMillis  int64
	Failure        string `gorm:"type:text"`
	MeshErrorCount int
	FinishedAt     time.Time `gorm:"index"`
}

// TableName implements gorm's Tabler.
func (jobRecordModel) TableName() string {
	return "print_job_history"
}

func toModel(rec *repository.JobRecord) *jobRecordModel {
	return &jobRecordModel{
		ID:             rec.ID,
		FileName:       rec.FileName,
		PrinterName:    rec.PrinterName,
		Status:         rec.Status.String(),
		CurrentSlice:   rec.CurrentSlice,
		TotalSlices:    rec.TotalSlices,
		ElapsedMillis:  rec.ElapsedMillis,
		Failure:        rec.Failure,
		MeshErrorCount: rec.MeshErrorCount,
		FinishedAt:     rec.FinishedAt.UTC(),
	}
}

func (m *jobRecordModel) toRecord() *repository.JobRecord {
	return &repository.JobRecord{
		ID:             m.ID,
		FileName:       m.FileName,
		PrinterName:    m.PrinterName,
		Status:         model.JobStatus(m.Status),
		CurrentSlice:   m.CurrentSlice,
		TotalSlices:    m.TotalSlices,
		ElapsedMillis:  m.ElapsedMillis,
		Failure:        m.Failure,
		MeshErrorCount: m.MeshErrorCount,
		FinishedAt:     m.FinishedAt,
	}
}

// HistoryRepository is a repository.HistoryRepository on a GORM connection.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository migrates the history table on db.
func NewHistoryRepository(db *gorm.DB) (*HistoryRepository, error) {
	if err := db.AutoMigrate(&jobRecordModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate job history table: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// SaveJobRecord inserts rec, replacing a record with the same id.
func (r *HistoryRepository) SaveJobRecord(ctx context.Context, rec *repository.JobRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("job record must have an id")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toModel(rec)).Error
	if err != nil {
		return fmt.Errorf("failed to save job record %s: %w", rec.ID, err)
	}
	return nil
}

// FindJobRecord returns the record with id, or repository.ErrJobRecordNotFound.
func (r *HistoryRepository) FindJobRecord(ctx context.Context, id string) (*repository.JobRecord, error) {
	var row jobRecordModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s: %w", id, repository.ErrJobRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job record %s: %w", id, err)
	}
	return row.toRecord(), nil
}

// FindJobRecordsByFileName lists the records of fileName, oldest first.
func (r *HistoryRepository) FindJobRecordsByFileName(ctx context.Context, fileName string) ([]*repository.JobRecord, error) {
	var rows []jobRecordModel
	err := r.db.WithContext(ctx).
		Where("file_name = ?", fileName).
		Order("finished_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job records for '%s': %w", fileName, err)
	}
	records := make([]*repository.JobRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}
	return records, nil
}

// Close closes the underlying connection pool.
func (r *HistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ repository.HistoryRepository = (*HistoryRepository)(nil)
