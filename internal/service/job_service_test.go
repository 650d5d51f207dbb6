package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceEnv struct {
	jobRepo  repository.JobRepository
	costRepo repository.CostRepository
	store    *artifact.Store
	catalog  *tts.Catalog
	registry *tts.Registry
	jobs     *JobService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.CostLedgerEntry{}))

	jobRepo := repository.NewJobRepository(db)
	costRepo := repository.NewCostRepository(db)

	store, err := artifact.NewStore(config.StorageConfig{
		BaseDir:     t.TempDir(),
		ArtifactDir: "artifacts",
		TempDir:     "tmp",
	}, testLogger())
	require.NoError(t, err)

	catalog := tts.MustLoadCatalog()
	registry := tts.NewRegistry(catalog, true,
		tts.NewMockProvider("google", catalog.Voices("google", "")...),
		tts.NewMockProvider("elevenlabs", catalog.Voices("elevenlabs", "")...),
	)

	return &serviceEnv{
		jobRepo:  jobRepo,
		costRepo: costRepo,
		store:    store,
		catalog:  catalog,
		registry: registry,
		jobs:     NewJobService(jobRepo, costRepo, store, registry).WithLogger(testLogger()),
	}
}

func kindOf(t *testing.T, err error) models.ErrorKind {
	t.Helper()
	require.Error(t, err)
	return models.KindOf(err)
}

func TestSubmitTranscribe(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	job, err := env.jobs.Submit(ctx, models.JobKindTranscribe, models.JobParams{
		SourceURL: "https://www.youtube.com/watch?v=abc123",
	})
	require.NoError(t, err)
	assert.False(t, job.ID.IsZero())
	assert.Equal(t, models.JobStatusQueued, job.Status)
}

func TestSubmitNoDeduplication(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	params := models.JobParams{SourceURL: "https://example.com/v"}

	a, err := env.jobs.Submit(ctx, models.JobKindTranscribe, params)
	require.NoError(t, err)
	b, err := env.jobs.Submit(ctx, models.JobKindTranscribe, params)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, total, err := env.jobs.List(ctx, repository.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSubmitValidation(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		kind   models.JobKind
		params models.JobParams
		want   models.ErrorKind
	}{
		{
			name: "unknown kind",
			kind: models.JobKind("remix"),
			params: models.JobParams{
				SourceURL: "https://example.com/v",
			},
			want: models.ErrorKindInvalidRequest,
		},
		{
			name:   "transcribe without source",
			kind:   models.JobKindTranscribe,
			params: models.JobParams{},
			want:   models.ErrorKindInvalidRequest,
		},
		{
			name: "bad source url scheme",
			kind: models.JobKindTranscribe,
			params: models.JobParams{
				SourceURL: "ftp://example.com/v",
			},
			want: models.ErrorKindInvalidRequest,
		},
		{
			name: "translate without target language",
			kind: models.JobKindTranslate,
			params: models.JobParams{
				SourceURL: "https://example.com/v",
			},
			want: models.ErrorKindInvalidRequest,
		},
		{
			name: "malformed language tag",
			kind: models.JobKindTranscribe,
			params: models.JobParams{
				SourceURL:      "https://example.com/v",
				SourceLanguage: "not a language",
			},
			want: models.ErrorKindInvalidRequest,
		},
		{
			name: "unknown translation context",
			kind: models.JobKindTranslate,
			params: models.JobParams{
				SourceURL:      "https://example.com/v",
				TargetLanguage: "en-US",
				Context:        "piratical",
			},
			want: models.ErrorKindInvalidRequest,
		},
		{
			name: "explicit voice miss",
			kind: models.JobKindDub,
			params: models.JobParams{
				SourceURL:      "https://example.com/v",
				TargetLanguage: "en-US",
				TTSProvider:    "google",
				VoiceID:        "no-such-voice",
			},
			want: models.ErrorKindVoiceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.jobs.Submit(ctx, tt.kind, tt.params)
			assert.Equal(t, tt.want, kindOf(t, err))
		})
	}

	// None of the rejected submissions created a job
	_, total, err := env.jobs.List(ctx, repository.JobFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubmitSynthesizeFromText(t *testing.T) {
	env := newServiceEnv(t)

	job, err := env.jobs.Submit(context.Background(), models.JobKindSynthesize, models.JobParams{
		InputText:      "[0:00:01] hello there",
		SourceLanguage: "en-US",
		TTSProvider:    "elevenlabs",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
}

func TestGetByIDNotFound(t *testing.T) {
	env := newServiceEnv(t)

	_, err := env.jobs.GetByID(context.Background(), models.NewULID())
	assert.Equal(t, models.ErrorKindNotFound, kindOf(t, err))
}

func TestCancel(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	job, err := env.jobs.Submit(ctx, models.JobKindTranscribe, models.JobParams{
		SourceURL: "https://example.com/v",
	})
	require.NoError(t, err)

	got, err := env.jobs.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)

	// Cancelling again is rejected: the job is terminal now
	_, err = env.jobs.Cancel(ctx, job.ID)
	assert.Equal(t, models.ErrorKindInvalidRequest, kindOf(t, err))

	_, err = env.jobs.Cancel(ctx, models.NewULID())
	assert.Equal(t, models.ErrorKindNotFound, kindOf(t, err))
}

func TestDelete(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	job, err := env.jobs.Submit(ctx, models.JobKindTranscribe, models.JobParams{
		SourceURL: "https://example.com/v",
	})
	require.NoError(t, err)

	// Live jobs cannot be deleted
	err = env.jobs.Delete(ctx, job.ID)
	assert.Equal(t, models.ErrorKindInvalidRequest, kindOf(t, err))

	// Terminal job: artifacts and ledger go with it
	require.NoError(t, env.store.Write(job.ID, "transcript.txt", []byte("[0:00:01] hi")))
	job.AddArtifact("transcript.txt")
	require.NoError(t, job.MarkRunning("w"))
	require.NoError(t, job.MarkCompleted())
	require.NoError(t, env.jobRepo.Update(ctx, job))
	require.NoError(t, env.costRepo.Append(ctx, &models.CostLedgerEntry{
		JobID: job.ID, Stage: "recognize", Type: "actual", AmountUSD: 0.1,
	}))

	require.NoError(t, env.jobs.Delete(ctx, job.ID))

	_, err = env.jobs.GetByID(ctx, job.ID)
	assert.Equal(t, models.ErrorKindNotFound, kindOf(t, err))

	_, err = env.store.Read(job.ID, "transcript.txt")
	assert.Error(t, err)

	entries, err := env.costRepo.ForJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchArtifact(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	job, err := env.jobs.Submit(ctx, models.JobKindTranscribe, models.JobParams{
		SourceURL: "https://example.com/v",
	})
	require.NoError(t, err)

	_, err = env.jobs.FetchArtifact(ctx, job.ID, artifact.Kind("bogus"))
	assert.Equal(t, models.ErrorKindInvalidRequest, kindOf(t, err))

	// Not produced yet
	_, err = env.jobs.FetchArtifact(ctx, job.ID, artifact.KindTranscript)
	assert.Equal(t, models.ErrorKindArtifactNotReady, kindOf(t, err))

	require.NoError(t, env.store.Write(job.ID, "transcript.txt", []byte("[0:00:01] hi")))
	job.AddArtifact("transcript.txt")
	require.NoError(t, env.jobRepo.Update(ctx, job))

	got, err := env.jobs.FetchArtifact(ctx, job.ID, artifact.KindTranscript)
	require.NoError(t, err)
	assert.Equal(t, "transcript.txt", got.Name)
	assert.Equal(t, []byte("[0:00:01] hi"), got.Data)
}

func TestGetStats(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.jobs.Submit(ctx, models.JobKindTranscribe, models.JobParams{
			SourceURL: "https://example.com/v",
		})
		require.NoError(t, err)
	}
	job, err := env.jobs.Submit(ctx, models.JobKindDub, models.JobParams{
		SourceURL:      "https://example.com/v",
		TargetLanguage: "en-US",
	})
	require.NoError(t, err)
	_, err = env.jobs.Cancel(ctx, job.ID)
	require.NoError(t, err)

	stats, err := env.jobs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Queued)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Nil(t, stats.Runner)
}
