package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
)

// Sweeper runs periodic maintenance: expired artifact directories are
// removed, terminal jobs past retention are deleted, and ledger entries
// orphaned by job deletion are pruned. Leftover temp directories are
// purged once at startup.
type Sweeper struct {
	mu sync.Mutex

	jobRepo  repository.JobRepository
	costRepo repository.CostRepository
	store    *artifact.Store
	logger   *slog.Logger

	schedule  string
	retention time.Duration

	cron *cron.Cron
	ctx  context.Context
}

// SweeperConfig holds configuration for the sweeper.
type SweeperConfig struct {
	// Schedule is the cron expression for sweep runs.
	// Default: @hourly
	Schedule string

	// Retention is how long terminal jobs are kept. Zero keeps them forever.
	Retention time.Duration
}

// NewSweeper creates a maintenance sweeper.
func NewSweeper(jobRepo repository.JobRepository, costRepo repository.CostRepository, store *artifact.Store, config SweeperConfig) *Sweeper {
	schedule := config.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Sweeper{
		jobRepo:   jobRepo,
		costRepo:  costRepo,
		store:     store,
		logger:    slog.Default(),
		schedule:  schedule,
		retention: config.Retention,
	}
}

// WithLogger sets a custom logger.
func (s *Sweeper) WithLogger(logger *slog.Logger) *Sweeper {
	s.logger = logger
	return s
}

// Start purges leftover temp directories and begins the sweep schedule.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}

	if err := s.store.PurgeTemp(); err != nil {
		s.logger.Warn("failed to purge temp directories", slog.Any("error", err))
	}

	s.ctx = ctx
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		s.cron = nil
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()

	s.logger.Info("sweeper started",
		slog.String("schedule", s.schedule),
		slog.Duration("retention", s.retention))
	return nil
}

// Stop stops the sweep schedule, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil

	s.logger.Info("sweeper stopped")
}

// Sweep runs one maintenance pass.
func (s *Sweeper) Sweep() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	removed, err := s.store.Sweep(time.Now())
	if err != nil {
		s.logger.Error("artifact sweep failed", slog.Any("error", err))
	} else if removed > 0 {
		s.logger.Info("swept expired artifacts", slog.Int("removed", removed))
	}

	if s.retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.jobRepo.DeleteTerminal(ctx, cutoff)
	if err != nil {
		s.logger.Error("terminal job cleanup failed", slog.Any("error", err))
		return
	}
	if deleted > 0 {
		s.logger.Info("cleaned up terminal jobs", slog.Int64("deleted", deleted))
	}

	pruned, err := s.costRepo.DeleteOrphaned(ctx)
	if err != nil {
		s.logger.Error("cost ledger prune failed", slog.Any("error", err))
	} else if pruned > 0 {
		s.logger.Info("pruned orphaned cost entries", slog.Int64("pruned", pruned))
	}
}
