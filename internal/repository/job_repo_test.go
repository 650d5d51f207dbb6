package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.CostLedgerEntry{}))
	return db
}

func createTestJob(t *testing.T, repo JobRepository, kind models.JobKind) *models.Job {
	t.Helper()
	job := &models.Job{
		Kind:   kind,
		Status: models.JobStatusQueued,
		Params: models.JobParams{SourceURL: "https://example.com/watch?v=abc"},
	}
	require.NoError(t, repo.Create(context.Background(), job))
	return job
}

func TestJobRepo_CreateAndGet(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job := createTestJob(t, repo, models.JobKindDub)
	assert.False(t, job.ID.IsZero())

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.JobKindDub, got.Kind)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, "https://example.com/watch?v=abc", got.Params.SourceURL)
}

func TestJobRepo_GetByID_NotFound(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	got, err := repo.GetByID(context.Background(), models.NewULID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJobRepo_NoDeduplication(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	// Submitting an identical request twice creates two distinct jobs.
	a := createTestJob(t, repo, models.JobKindTranscribe)
	b := createTestJob(t, repo, models.JobKindTranscribe)
	assert.NotEqual(t, a.ID, b.ID)

	_, total, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestJobRepo_List(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createTestJob(t, repo, models.JobKindTranscribe)
	}
	done := createTestJob(t, repo, models.JobKindDub)
	require.NoError(t, done.MarkRunning("w"))
	require.NoError(t, done.MarkCompleted())
	require.NoError(t, repo.Update(ctx, done))

	// Unfiltered
	jobs, total, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, jobs, 6)

	// Status filter
	jobs, total, err = repo.List(ctx, JobFilter{Status: models.JobStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, jobs, 1)
	assert.Equal(t, done.ID, jobs[0].ID)

	// Pagination: total reflects the filter, not the page
	jobs, total, err = repo.List(ctx, JobFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, jobs, 2)
}

func TestJobRepo_AcquireJob(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	first := createTestJob(t, repo, models.JobKindTranscribe)
	createTestJob(t, repo, models.JobKindDub)

	// Oldest job is acquired first
	acquired, err := repo.AcquireJob(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, acquired)
	assert.Equal(t, first.ID, acquired.ID)
	assert.Equal(t, models.JobStatusRunning, acquired.Status)
	assert.Equal(t, "worker-1", acquired.LockedBy)

	// Second acquire gets the other job
	second, err := repo.AcquireJob(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, acquired.ID, second.ID)

	// Queue drained
	third, err := repo.AcquireJob(ctx, "worker-3")
	require.NoError(t, err)
	assert.Nil(t, third)
}

func TestJobRepo_ReleaseJob(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	createTestJob(t, repo, models.JobKindTranscribe)
	acquired, err := repo.AcquireJob(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, acquired)

	require.NoError(t, repo.ReleaseJob(ctx, acquired.ID))

	got, err := repo.GetByID(ctx, acquired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Empty(t, got.LockedBy)

	// Released job is acquirable again
	again, err := repo.AcquireJob(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, acquired.ID, again.ID)
}

func TestJobRepo_RequestCancel_Queued(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job := createTestJob(t, repo, models.JobKindDub)

	got, err := repo.RequestCancel(ctx, job.ID)
	require.NoError(t, err)
	// Queued jobs cancel immediately
	assert.Equal(t, models.JobStatusCancelled, got.Status)
	assert.True(t, got.CancelRequested)
}

func TestJobRepo_RequestCancel_Running(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	createTestJob(t, repo, models.JobKindDub)
	acquired, err := repo.AcquireJob(ctx, "worker-1")
	require.NoError(t, err)

	got, err := repo.RequestCancel(ctx, acquired.ID)
	require.NoError(t, err)
	// Running jobs stay running until the worker observes the flag
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.True(t, got.CancelRequested)

	flag, err := repo.IsCancelRequested(ctx, acquired.ID)
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestJobRepo_RequestCancel_Terminal(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job := createTestJob(t, repo, models.JobKindDub)
	require.NoError(t, job.MarkRunning("w"))
	require.NoError(t, job.MarkCompleted())
	require.NoError(t, repo.Update(ctx, job))

	_, err := repo.RequestCancel(ctx, job.ID)
	assert.ErrorIs(t, err, models.ErrJobTerminal)
}

func TestJobRepo_RequestCancel_NotFound(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	_, err := repo.RequestCancel(context.Background(), models.NewULID())
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestJobRepo_CountByStatus(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	createTestJob(t, repo, models.JobKindTranscribe)
	createTestJob(t, repo, models.JobKindTranscribe)
	done := createTestJob(t, repo, models.JobKindDub)
	require.NoError(t, done.MarkRunning("w"))
	require.NoError(t, done.MarkCompleted())
	require.NoError(t, repo.Update(ctx, done))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.JobStatusQueued])
	assert.Equal(t, int64(1), counts[models.JobStatusCompleted])
}

func TestJobRepo_DeleteTerminal(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	live := createTestJob(t, repo, models.JobKindTranscribe)

	done := createTestJob(t, repo, models.JobKindDub)
	require.NoError(t, done.MarkRunning("w"))
	require.NoError(t, done.MarkCompleted())
	require.NoError(t, repo.Update(ctx, done))

	deleted, err := repo.DeleteTerminal(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Live jobs survive the sweep
	got, err := repo.GetByID(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCostRepo(t *testing.T) {
	db := setupTestDB(t)
	jobs := NewJobRepository(db)
	costs := NewCostRepository(db)
	ctx := context.Background()

	job := createTestJob(t, jobs, models.JobKindDub)

	require.NoError(t, costs.Append(ctx, &models.CostLedgerEntry{
		JobID: job.ID, Stage: "recognize", Type: "quote", AmountUSD: 0.32,
	}))
	require.NoError(t, costs.Append(ctx, &models.CostLedgerEntry{
		JobID: job.ID, Stage: "recognize", Type: "actual", AmountUSD: 0.29,
	}))

	entries, err := costs.ForJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "quote", entries[0].Type)
	assert.Equal(t, "actual", entries[1].Type)

	require.NoError(t, costs.DeleteForJob(ctx, job.ID))
	entries, err = costs.ForJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
