package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/cost"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
)

// persistTimeout bounds the final status write, which must succeed even
// when the job's own context is already cancelled.
const persistTimeout = 30 * time.Second

// ExecutorConfig holds per-job execution settings.
type ExecutorConfig struct {
	// DefaultLanguage is the recognition language used when a job does not
	// specify one.
	DefaultLanguage string

	// MaxCostUSD is the per-job budget. Zero disables the budget gate.
	MaxCostUSD float64
}

// Executor runs one job end to end: it assembles the pipeline for the
// job's kind, threads state through the stages, and records the outcome
// on the job row.
type Executor struct {
	jobRepo  repository.JobRepository
	costRepo repository.CostRepository
	store    *artifact.Store
	deps     pipeline.Deps
	config   ExecutorConfig
	logger   *slog.Logger
}

// NewExecutor creates a job executor.
func NewExecutor(jobRepo repository.JobRepository, costRepo repository.CostRepository, store *artifact.Store, deps pipeline.Deps, config ExecutorConfig) *Executor {
	return &Executor{
		jobRepo:  jobRepo,
		costRepo: costRepo,
		store:    store,
		deps:     deps,
		config:   config,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	e.logger = logger
	return e
}

// Execute runs a job and updates its status. The job must already be in
// the running state (AcquireJob marks it).
func (e *Executor) Execute(ctx context.Context, job *models.Job) error {
	e.logger.Info("executing job",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(job.Kind)))

	runErr := e.run(ctx, job)

	ledger := cost.NewLedger(e.costRepo, job.ID, e.budgetFor(job))
	e.settleCosts(job, ledger)

	switch {
	case runErr == nil:
		if err := job.MarkCompleted(); err != nil {
			return err
		}
		e.logger.Info("job completed",
			slog.String("job_id", job.ID.String()),
			slog.Int64("duration_ms", job.DurationMs),
			slog.Float64("cost_usd", job.CostUSD))

	case isCancellation(runErr):
		if err := job.MarkCancelled(); err != nil {
			return err
		}
		e.logger.Info("job cancelled",
			slog.String("job_id", job.ID.String()),
			slog.String("stage", stageOf(runErr)))

	default:
		if err := job.MarkFailed(jobErrorFrom(runErr)); err != nil {
			return err
		}
		e.logger.Error("job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("stage", stageOf(runErr)),
			slog.Any("error", runErr))
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.jobRepo.Update(persistCtx, job); err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}
	return nil
}

// run executes the job's pipeline inside a scratch directory.
func (e *Executor) run(ctx context.Context, job *models.Job) error {
	orch := pipeline.Build(job, e.deps)

	tempDir, err := e.store.TempDir("job-" + job.ID.String() + "-")
	if err != nil {
		return models.WrapJobError(models.ErrorKindInternal, "", err)
	}
	defer os.RemoveAll(tempDir)

	sourceLanguage := job.Params.SourceLanguage
	if sourceLanguage == "" {
		sourceLanguage = e.config.DefaultLanguage
	}

	state := &core.State{
		Job:            job,
		TempDir:        tempDir,
		SourceLanguage: sourceLanguage,
		TargetLanguage: job.Params.TargetLanguage,
		Ledger:         cost.NewLedger(e.costRepo, job.ID, e.budgetFor(job)),
		Store:          e.store,
		CancelCheck:    e.cancelCheck(job.ID),
	}
	state.Progress = core.NewTracker(orch.StageIDs(), func(percent int) {
		job.SetProgress(percent)
		e.persistProgress(job)
	})

	return orch.Execute(ctx, state)
}

// persistProgress writes the job's progress and current stage. Failures
// are logged, not fatal; the next update will catch up.
func (e *Executor) persistProgress(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.jobRepo.Update(ctx, job); err != nil {
		e.logger.Warn("failed to persist job progress",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
	}
}

// budgetFor resolves the job's spend cap: the per-request limit when
// given, the configured default otherwise.
func (e *Executor) budgetFor(job *models.Job) float64 {
	if job.Params.MaxCostUSD > 0 {
		return job.Params.MaxCostUSD
	}
	return e.config.MaxCostUSD
}

// cancelCheck returns the cooperative cancellation probe for a job. Read
// failures are swallowed so a flaky database cannot cancel a healthy run.
func (e *Executor) cancelCheck(id models.ULID) func(context.Context) error {
	return func(ctx context.Context) error {
		requested, err := e.jobRepo.IsCancelRequested(ctx, id)
		if err != nil {
			e.logger.Warn("failed to read cancel flag",
				slog.String("job_id", id.String()),
				slog.Any("error", err))
			return nil
		}
		if requested {
			return models.ErrCancelled
		}
		return nil
	}
}

// settleCosts rolls the ledger up onto the job: actuals spent, and the
// running estimate including quotes of stages that never finished.
func (e *Executor) settleCosts(job *models.Job, ledger *cost.Ledger) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	entries, err := ledger.Entries(ctx)
	if err != nil {
		e.logger.Warn("failed to read cost ledger",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
		return
	}
	var actual float64
	for _, entry := range entries {
		if entry.Type == cost.TypeActual {
			actual += entry.AmountUSD
		}
	}
	job.CostUSD = actual

	total, err := ledger.Total(ctx)
	if err != nil {
		e.logger.Warn("failed to total cost ledger",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
		return
	}
	job.EstimatedCostUSD = total
}

// isCancellation reports whether err ends the job as cancelled rather
// than failed.
func isCancellation(err error) bool {
	return errors.Is(err, models.ErrCancelled) || errors.Is(err, context.Canceled)
}

// stageOf extracts the failing stage id, if the error carries one.
func stageOf(err error) string {
	var se *core.StageError
	if errors.As(err, &se) {
		return se.StageID
	}
	return ""
}

// jobErrorFrom converts a pipeline failure into the structured record
// stored on the job.
func jobErrorFrom(err error) *models.JobError {
	stage := stageOf(err)

	var je *models.JobError
	if errors.As(err, &je) {
		if je.Stage == "" {
			je.Stage = stage
		}
		return je
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewJobError(models.ErrorKindInternal, stage, "job execution timed out")
	}
	return models.WrapJobError(models.KindOf(err), stage, err)
}
