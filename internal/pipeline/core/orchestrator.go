package core

import (
	"context"
	"log/slog"
	"time"
)

// Orchestrator executes a pipeline's stages in sequence. Cancellation is
// checked at every stage boundary; a failing stage aborts the run and the
// already-executed stages are cleaned up.
type Orchestrator struct {
	stages []Stage
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given stages.
func NewOrchestrator(stages []Stage, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{stages: stages, logger: logger}
}

// StageIDs returns the pipeline's stage ids in execution order.
func (o *Orchestrator) StageIDs() []string {
	ids := make([]string, len(o.stages))
	for i, s := range o.stages {
		ids[i] = s.ID()
	}
	return ids
}

// Execute runs the pipeline against state.
func (o *Orchestrator) Execute(ctx context.Context, state *State) error {
	state.StartTime = time.Now()

	o.logger.InfoContext(ctx, "starting pipeline",
		slog.String("job_id", state.Job.ID.String()),
		slog.String("kind", string(state.Job.Kind)),
		slog.Int("stages", len(o.stages)))

	for i, stage := range o.stages {
		if err := state.Checkpoint(ctx); err != nil {
			o.cleanup(ctx, o.stages[:i])
			return err
		}

		state.Job.CurrentStage = stage.ID()
		if err := o.executeStage(ctx, i, stage, state); err != nil {
			o.cleanup(ctx, o.stages[:i+1])
			return NewStageError(stage.ID(), stage.Name(), err)
		}
		if state.Progress != nil {
			state.Progress.Complete(stage.ID())
		}
	}

	o.logger.InfoContext(ctx, "pipeline completed",
		slog.String("job_id", state.Job.ID.String()),
		slog.Duration("duration", time.Since(state.StartTime)))

	o.cleanup(ctx, o.stages)
	return nil
}

func (o *Orchestrator) executeStage(ctx context.Context, index int, stage Stage, state *State) error {
	start := time.Now()
	o.logger.InfoContext(ctx, "executing stage",
		slog.Int("stage_num", index+1),
		slog.Int("total_stages", len(o.stages)),
		slog.String("stage_id", stage.ID()),
		slog.String("job_id", state.Job.ID.String()))

	if err := stage.Execute(ctx, state); err != nil {
		o.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage_id", stage.ID()),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return err
	}

	o.logger.InfoContext(ctx, "stage completed",
		slog.String("stage_id", stage.ID()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// cleanup calls Cleanup on the given stages, logging failures.
func (o *Orchestrator) cleanup(ctx context.Context, stages []Stage) {
	for _, stage := range stages {
		if err := stage.Cleanup(ctx); err != nil {
			o.logger.Warn("stage cleanup failed",
				slog.String("stage_id", stage.ID()),
				slog.String("error", err.Error()))
		}
	}
}
