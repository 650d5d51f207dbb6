// Package cost tracks per-job spending as a two-sided ledger: a quote line
// is written when a billable stage starts and an actual line when it ends.
// The running total counts actuals plus the quotes of stages still ahead,
// so a budget gate can fail a job before it overspends rather than after.
package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
)

// Ledger entry types.
const (
	TypeQuote  = "quote"
	TypeActual = "actual"
)

// Flat rates for stages not priced by a provider rate card.
const (
	// RecognitionPerMinuteUSD is the speech backend's per-minute price.
	RecognitionPerMinuteUSD = 0.016
	// LLMPerMillionCharsUSD prices post-editing and translation text volume.
	LLMPerMillionCharsUSD = 0.20
)

// RecognitionQuote prices audio recognition by duration.
func RecognitionQuote(duration time.Duration) float64 {
	return duration.Minutes() * RecognitionPerMinuteUSD
}

// LLMQuote prices an LLM pass over text of the given length.
func LLMQuote(chars int) float64 {
	return float64(chars) / 1_000_000 * LLMPerMillionCharsUSD
}

// Ledger records stage costs for one job and answers budget questions.
type Ledger struct {
	repo  repository.CostRepository
	jobID models.ULID
	// maxUSD is the per-job budget; zero disables the gate.
	maxUSD float64
}

// NewLedger opens a ledger for a job.
func NewLedger(repo repository.CostRepository, jobID models.ULID, maxUSD float64) *Ledger {
	return &Ledger{repo: repo, jobID: jobID, maxUSD: maxUSD}
}

// Quote writes a stage's projected cost line.
func (l *Ledger) Quote(ctx context.Context, stage string, amountUSD float64, detail string) error {
	return l.repo.Append(ctx, &models.CostLedgerEntry{
		JobID:     l.jobID,
		Stage:     stage,
		Type:      TypeQuote,
		AmountUSD: amountUSD,
		Detail:    detail,
	})
}

// Actual writes a stage's realized cost line.
func (l *Ledger) Actual(ctx context.Context, stage string, amountUSD float64, detail string) error {
	return l.repo.Append(ctx, &models.CostLedgerEntry{
		JobID:     l.jobID,
		Stage:     stage,
		Type:      TypeActual,
		AmountUSD: amountUSD,
		Detail:    detail,
	})
}

// Total computes the running total: actuals plus quotes of stages that have
// no actual yet. Once a stage has both lines, its actual supersedes its
// quote.
func (l *Ledger) Total(ctx context.Context) (float64, error) {
	entries, err := l.repo.ForJob(ctx, l.jobID)
	if err != nil {
		return 0, err
	}
	return runningTotal(entries), nil
}

// runningTotal sums actuals and the quotes of stages still outstanding.
func runningTotal(entries []*models.CostLedgerEntry) float64 {
	settled := make(map[string]bool)
	for _, e := range entries {
		if e.Type == TypeActual {
			settled[e.Stage] = true
		}
	}
	var total float64
	for _, e := range entries {
		switch e.Type {
		case TypeActual:
			total += e.AmountUSD
		case TypeQuote:
			if !settled[e.Stage] {
				total += e.AmountUSD
			}
		}
	}
	return total
}

// CheckBudget quotes the upcoming stage and fails with BudgetExceeded when
// the projection would overrun the per-job budget. The quote line is
// written either way so the overrun is visible in the ledger.
func (l *Ledger) CheckBudget(ctx context.Context, stage string, amountUSD float64, detail string) error {
	if err := l.Quote(ctx, stage, amountUSD, detail); err != nil {
		return err
	}
	if l.maxUSD <= 0 {
		return nil
	}
	total, err := l.Total(ctx)
	if err != nil {
		return err
	}
	if total > l.maxUSD {
		return models.NewJobError(models.ErrorKindBudgetExceeded, stage,
			fmt.Sprintf("projected cost $%.4f exceeds the $%.2f budget", total, l.maxUSD))
	}
	return nil
}

// Entries returns the full ledger for a job.
func (l *Ledger) Entries(ctx context.Context) ([]*models.CostLedgerEntry, error) {
	return l.repo.ForJob(ctx, l.jobID)
}
