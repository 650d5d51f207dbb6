package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// costRepo implements CostRepository using GORM.
type costRepo struct {
	db *gorm.DB
}

// NewCostRepository creates a new CostRepository.
func NewCostRepository(db *gorm.DB) *costRepo {
	return &costRepo{db: db}
}

// Append appends a ledger entry.
func (r *costRepo) Append(ctx context.Context, entry *models.CostLedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("appending cost entry: %w", err)
	}
	return nil
}

// ForJob retrieves all ledger entries for a job in insertion order.
func (r *costRepo) ForJob(ctx context.Context, jobID models.ULID) ([]*models.CostLedgerEntry, error) {
	var entries []*models.CostLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("getting cost entries: %w", err)
	}
	return entries, nil
}

// DeleteForJob deletes all ledger entries for a job.
func (r *costRepo) DeleteForJob(ctx context.Context, jobID models.ULID) error {
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Delete(&models.CostLedgerEntry{}).Error; err != nil {
		return fmt.Errorf("deleting cost entries: %w", err)
	}
	return nil
}

// DeleteOrphaned deletes ledger entries whose job no longer exists.
func (r *costRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("job_id NOT IN (?)", r.db.Model(&models.Job{}).Select("id")).
		Delete(&models.CostLedgerEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting orphaned cost entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Ensure costRepo implements CostRepository at compile time.
var _ CostRepository = (*costRepo)(nil)
