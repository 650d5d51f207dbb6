// Package repository defines data access interfaces for yts entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// JobFilter narrows job listings.
type JobFilter struct {
	// Status filters by job status when non-empty.
	Status models.JobStatus
	// Limit caps the number of returned jobs (0 = default).
	Limit int
	// Offset skips the first N jobs in newest-first order.
	Offset int
}

// JobRepository defines operations for job persistence.
type JobRepository interface {
	// Create creates a new job.
	Create(ctx context.Context, job *models.Job) error
	// GetByID retrieves a job by ID. Returns nil when not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Job, error)
	// List retrieves jobs newest first, filtered and paginated.
	// Returns the page and the total count matching the filter.
	List(ctx context.Context, filter JobFilter) ([]*models.Job, int64, error)
	// GetQueued retrieves all queued jobs, oldest first.
	GetQueued(ctx context.Context) ([]*models.Job, error)
	// GetRunning retrieves all currently running jobs.
	GetRunning(ctx context.Context) ([]*models.Job, error)
	// CountByStatus returns job counts grouped by status.
	CountByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
	// Update updates an existing job.
	Update(ctx context.Context, job *models.Job) error
	// Delete deletes a job by ID.
	Delete(ctx context.Context, id models.ULID) error
	// DeleteTerminal deletes terminal jobs older than the specified time.
	DeleteTerminal(ctx context.Context, before time.Time) (int64, error)
	// AcquireJob atomically acquires a queued job for execution.
	// Returns nil when no job is available.
	AcquireJob(ctx context.Context, workerID string) (*models.Job, error)
	// ReleaseJob returns a job to the queue, clearing its lock.
	ReleaseJob(ctx context.Context, id models.ULID) error
	// RequestCancel sets the cooperative cancellation flag. Queued jobs are
	// cancelled immediately; running jobs are flagged for their worker.
	RequestCancel(ctx context.Context, id models.ULID) (*models.Job, error)
	// IsCancelRequested reads the cancellation flag for a running job.
	IsCancelRequested(ctx context.Context, id models.ULID) (bool, error)
}

// CostRepository defines operations for cost ledger persistence.
type CostRepository interface {
	// Append appends a ledger entry.
	Append(ctx context.Context, entry *models.CostLedgerEntry) error
	// ForJob retrieves all ledger entries for a job in insertion order.
	ForJob(ctx context.Context, jobID models.ULID) ([]*models.CostLedgerEntry, error)
	// DeleteForJob deletes all ledger entries for a job.
	DeleteForJob(ctx context.Context, jobID models.ULID) error
	// DeleteOrphaned deletes ledger entries left behind by deleted jobs.
	DeleteOrphaned(ctx context.Context) (int64, error)
}
