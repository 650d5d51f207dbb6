// Package startup performs recovery work that must run before the job
// runner starts accepting work.
package startup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
)

// RequeueOrphanedJobs returns every running job to the queue. It runs once
// at boot, before any worker of this process has acquired anything, so every
// row still marked running was orphaned by a previous process that crashed
// or was killed mid-job. Without this recovery those jobs would sit locked
// until the runner's stale-lock sweep times them out.
//
// Jobs whose cancellation was requested before the crash are marked
// cancelled directly instead of being requeued. Stages restart from scratch
// on the next acquisition; the dead process's temp workspace is purged
// separately.
//
// Returns the number of jobs recovered (requeued plus cancelled).
func RequeueOrphanedJobs(ctx context.Context, logger *slog.Logger, jobRepo repository.JobRepository) (int, error) {
	running, err := jobRepo.GetRunning(ctx)
	if err != nil {
		logger.Error("failed to get running jobs for boot recovery",
			"error", err,
		)
		return 0, fmt.Errorf("listing running jobs: %w", err)
	}

	var recovered int
	for _, job := range running {
		if job.CancelRequested {
			if err := job.MarkCancelled(); err != nil {
				continue
			}
			if err := jobRepo.Update(ctx, job); err != nil {
				logger.Error("failed to cancel orphaned job",
					"job_id", job.ID.String(),
					"error", err,
				)
				continue
			}

			logger.Warn("cancelled orphaned job with pending cancellation",
				"job_id", job.ID.String(),
				"locked_by", job.LockedBy,
			)
			recovered++
			continue
		}

		if err := jobRepo.ReleaseJob(ctx, job.ID); err != nil {
			logger.Error("failed to requeue orphaned job",
				"job_id", job.ID.String(),
				"error", err,
			)
			continue
		}

		logger.Warn("requeued job orphaned by previous process",
			"job_id", job.ID.String(),
			"locked_by", job.LockedBy,
			"stage", job.CurrentStage,
		)
		recovered++
	}

	return recovered, nil
}
