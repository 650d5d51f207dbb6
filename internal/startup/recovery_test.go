package startup

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRepo(t *testing.T) repository.JobRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))

	return repository.NewJobRepository(db)
}

func seedJob(t *testing.T, repo repository.JobRepository, mutate func(*models.Job)) *models.Job {
	t.Helper()

	job := &models.Job{
		Kind:   models.JobKindTranscribe,
		Status: models.JobStatusQueued,
		Params: models.JobParams{SourceURL: "https://example.com/watch?v=abc"},
	}
	require.NoError(t, repo.Create(context.Background(), job))

	if mutate != nil {
		mutate(job)
		require.NoError(t, repo.Update(context.Background(), job))
	}
	return job
}

func TestRequeueOrphanedJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("requeues running jobs", func(t *testing.T) {
		repo := setupTestRepo(t)

		orphan := seedJob(t, repo, func(j *models.Job) {
			require.NoError(t, j.MarkRunning("worker-dead-1"))
			j.CurrentStage = "recognize"
		})

		count, err := RequeueOrphanedJobs(ctx, newTestLogger(), repo)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := repo.GetByID(ctx, orphan.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.JobStatusQueued, got.Status)
		assert.Empty(t, got.LockedBy)
		assert.Nil(t, got.LockedAt)
	})

	t.Run("cancels orphans with pending cancellation", func(t *testing.T) {
		repo := setupTestRepo(t)

		orphan := seedJob(t, repo, func(j *models.Job) {
			require.NoError(t, j.MarkRunning("worker-dead-1"))
			j.CancelRequested = true
		})

		count, err := RequeueOrphanedJobs(ctx, newTestLogger(), repo)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := repo.GetByID(ctx, orphan.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.JobStatusCancelled, got.Status)
		assert.NotNil(t, got.CompletedAt)
	})

	t.Run("leaves queued and terminal jobs alone", func(t *testing.T) {
		repo := setupTestRepo(t)

		queued := seedJob(t, repo, nil)
		done := seedJob(t, repo, func(j *models.Job) {
			require.NoError(t, j.MarkRunning("worker-1"))
			require.NoError(t, j.MarkCompleted())
		})

		count, err := RequeueOrphanedJobs(ctx, newTestLogger(), repo)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		gotQueued, err := repo.GetByID(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusQueued, gotQueued.Status)

		gotDone, err := repo.GetByID(ctx, done.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, gotDone.Status)
	})

	t.Run("no running jobs is a no-op", func(t *testing.T) {
		repo := setupTestRepo(t)

		count, err := RequeueOrphanedJobs(ctx, newTestLogger(), repo)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
