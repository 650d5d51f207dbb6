// Package service implements the application operations behind the HTTP
// API: job submission and lifecycle, artifact retrieval, and TTS catalog
// queries. Validation happens here so transports stay thin.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/genai"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/scheduler"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/urlutil"
)

// JobService provides high-level job management operations.
type JobService struct {
	jobRepo  repository.JobRepository
	costRepo repository.CostRepository
	store    *artifact.Store
	registry *tts.Registry
	runner   *scheduler.Runner
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
func NewJobService(jobRepo repository.JobRepository, costRepo repository.CostRepository, store *artifact.Store, registry *tts.Registry) *JobService {
	return &JobService{
		jobRepo:  jobRepo,
		costRepo: costRepo,
		store:    store,
		registry: registry,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (s *JobService) WithLogger(logger *slog.Logger) *JobService {
	s.logger = logger
	return s
}

// WithRunner sets the runner instance used for stats reporting.
func (s *JobService) WithRunner(runner *scheduler.Runner) *JobService {
	s.runner = runner
	return s
}

// Submit validates a request and queues a job for it. Validation failures
// create no job; in particular an explicitly named voice that does not
// exist is rejected up front, never remapped later. Identical requests are
// not deduplicated: submitting twice queues two jobs.
func (s *JobService) Submit(ctx context.Context, kind models.JobKind, params models.JobParams) (*models.Job, error) {
	if err := s.validate(kind, params); err != nil {
		return nil, err
	}

	job := &models.Job{
		Kind:   kind,
		Status: models.JobStatusQueued,
		Params: params,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.Info("job submitted",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(kind)))
	return job, nil
}

func (s *JobService) validate(kind models.JobKind, params models.JobParams) error {
	if !kind.Valid() {
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			fmt.Sprintf("unknown job kind %q", kind))
	}

	switch kind {
	case models.JobKindSynthesize:
		if params.SourceURL == "" && params.InputText == "" {
			return models.NewJobError(models.ErrorKindInvalidRequest, "",
				"synthesize requires a source url or input text")
		}
	case models.JobKindTranslate:
		// Translation runs over a fetched video or a transcript supplied
		// in the request body.
		if params.SourceURL == "" && params.InputText == "" {
			return models.NewJobError(models.ErrorKindInvalidRequest, "",
				"translate requires a source url or a transcript")
		}
	default:
		if params.SourceURL == "" {
			return models.NewJobError(models.ErrorKindInvalidRequest, "",
				"source url is required")
		}
	}
	if params.SourceURL != "" {
		if err := urlutil.ValidateSourceURL(params.SourceURL); err != nil {
			return models.NewJobError(models.ErrorKindInvalidRequest, "", err.Error())
		}
	}

	if kind == models.JobKindTranslate && params.TargetLanguage == "" {
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			"translate requires a target language")
	}

	switch params.Quality {
	case "", string(genai.QualityFast), string(genai.QualityBalanced), string(genai.QualityHigh):
	default:
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			fmt.Sprintf("unknown quality %q", params.Quality))
	}
	if params.MaxCostUSD < 0 {
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			"max cost must not be negative")
	}

	for _, tag := range []string{params.SourceLanguage, params.TargetLanguage} {
		if tag == "" {
			continue
		}
		if _, err := language.Parse(tag); err != nil {
			return models.NewJobError(models.ErrorKindInvalidRequest, "",
				fmt.Sprintf("invalid language code %q", tag))
		}
	}

	if !models.ValidTranslationContext(params.Context) {
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			fmt.Sprintf("unknown translation context %q", params.Context))
	}

	// Resolve the voice now so a bad spec fails the request, not the job.
	if kind == models.JobKindSynthesize || kind == models.JobKindDub {
		spec := tts.VoiceSpec{
			Provider: params.TTSProvider,
			VoiceID:  params.VoiceID,
			Language: params.TargetLanguage,
		}
		if spec.Language == "" {
			spec.Language = params.SourceLanguage
		}
		if spec.Provider != "" && spec.Provider != tts.ProviderAuto {
			if _, _, err := s.registry.Select(spec); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetByID retrieves a job by ID.
func (s *JobService) GetByID(ctx context.Context, id models.ULID) (*models.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	if job == nil {
		return nil, models.NewJobError(models.ErrorKindNotFound, "",
			fmt.Sprintf("job %s not found", id))
	}
	return job, nil
}

// List retrieves jobs newest first, with pagination and optional status
// filter. Returns the page and the total count matching the filter.
func (s *JobService) List(ctx context.Context, filter repository.JobFilter) ([]*models.Job, int64, error) {
	return s.jobRepo.List(ctx, filter)
}

// Cancel requests cancellation of a job. Queued jobs cancel immediately;
// running jobs stop at their next checkpoint.
func (s *JobService) Cancel(ctx context.Context, id models.ULID) (*models.Job, error) {
	job, err := s.jobRepo.RequestCancel(ctx, id)
	if err != nil {
		switch err {
		case models.ErrJobNotFound:
			return nil, models.NewJobError(models.ErrorKindNotFound, "",
				fmt.Sprintf("job %s not found", id))
		case models.ErrJobTerminal:
			return nil, models.NewJobError(models.ErrorKindInvalidRequest, "",
				"job already finished")
		}
		return nil, fmt.Errorf("requesting cancel: %w", err)
	}

	s.logger.Info("job cancellation requested",
		slog.String("job_id", id.String()),
		slog.String("status", string(job.Status)))
	return job, nil
}

// Delete removes a terminal job together with its artifacts and ledger.
func (s *JobService) Delete(ctx context.Context, id models.ULID) error {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsTerminal() {
		return models.NewJobError(models.ErrorKindInvalidRequest, "",
			"job is still queued or running")
	}

	if err := s.store.Remove(id); err != nil {
		return fmt.Errorf("removing artifacts: %w", err)
	}
	if err := s.costRepo.DeleteForJob(ctx, id); err != nil {
		return fmt.Errorf("removing cost ledger: %w", err)
	}
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}

	s.logger.Info("job deleted", slog.String("job_id", id.String()))
	return nil
}

// Artifact holds one retrievable job output.
type Artifact struct {
	Name string
	Kind artifact.Kind
	Data []byte
}

// FetchArtifact returns a job's artifact of the given kind. An artifact
// the job has not (yet) produced is ArtifactNotReady.
func (s *JobService) FetchArtifact(ctx context.Context, id models.ULID, kind artifact.Kind) (*Artifact, error) {
	if !artifact.ValidKind(kind) {
		return nil, models.NewJobError(models.ErrorKindInvalidRequest, "",
			fmt.Sprintf("unknown artifact kind %q", kind))
	}

	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, ok := artifact.FindByKind(job.Artifacts, kind)
	if !ok {
		return nil, models.NewJobError(models.ErrorKindArtifactNotReady, "",
			fmt.Sprintf("artifact %q not produced for job %s (status %s)", kind, id, job.Status))
	}

	data, err := s.store.Read(id, name)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return &Artifact{Name: name, Kind: kind, Data: data}, nil
}

// Stats summarizes the job queue and the worker pool.
type Stats struct {
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`

	Runner *scheduler.RunnerStatus `json:"runner,omitempty"`
}

// GetStats returns job counts by status and the runner status.
func (s *JobService) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.jobRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}

	stats := &Stats{
		Queued:    counts[models.JobStatusQueued],
		Running:   counts[models.JobStatusRunning],
		Completed: counts[models.JobStatusCompleted],
		Failed:    counts[models.JobStatusFailed],
		Cancelled: counts[models.JobStatusCancelled],
	}
	if s.runner != nil {
		status := s.runner.GetStatus()
		stats.Runner = &status
	}
	return stats, nil
}
