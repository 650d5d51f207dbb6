package cost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

type memCostRepo struct {
	entries []*models.CostLedgerEntry
}

func (m *memCostRepo) Append(ctx context.Context, entry *models.CostLedgerEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memCostRepo) ForJob(ctx context.Context, jobID models.ULID) ([]*models.CostLedgerEntry, error) {
	var out []*models.CostLedgerEntry
	for _, e := range m.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memCostRepo) DeleteForJob(ctx context.Context, jobID models.ULID) error {
	var kept []*models.CostLedgerEntry
	for _, e := range m.entries {
		if e.JobID != jobID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memCostRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestRates(t *testing.T) {
	assert.InDelta(t, 0.16, RecognitionQuote(10*time.Minute), 1e-9)
	assert.InDelta(t, 0.20, LLMQuote(1_000_000), 1e-9)
	assert.InDelta(t, 0.001, LLMQuote(5000), 1e-9)
}

func TestRunningTotalQuoteSupersededByActual(t *testing.T) {
	repo := &memCostRepo{}
	jobID := models.NewULID()
	l := NewLedger(repo, jobID, 0)
	ctx := context.Background()

	require.NoError(t, l.Quote(ctx, "recognize", 0.32, "20 min @ $0.016/min"))
	total, err := l.Total(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.32, total, 1e-9)

	// The actual replaces the quote in the running total.
	require.NoError(t, l.Actual(ctx, "recognize", 0.29, ""))
	total, err = l.Total(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.29, total, 1e-9)

	// An outstanding quote for a later stage adds on top.
	require.NoError(t, l.Quote(ctx, "synthesize", 1.50, ""))
	total, err = l.Total(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.79, total, 1e-9)
}

func TestCheckBudgetWithinLimit(t *testing.T) {
	l := NewLedger(&memCostRepo{}, models.NewULID(), 5.0)
	ctx := context.Background()

	assert.NoError(t, l.CheckBudget(ctx, "recognize", 0.32, ""))
	assert.NoError(t, l.CheckBudget(ctx, "synthesize", 1.50, ""))
}

func TestCheckBudgetExceeded(t *testing.T) {
	repo := &memCostRepo{}
	l := NewLedger(repo, models.NewULID(), 1.0)
	ctx := context.Background()

	require.NoError(t, l.CheckBudget(ctx, "recognize", 0.32, ""))
	require.NoError(t, l.Actual(ctx, "recognize", 0.30, ""))

	err := l.CheckBudget(ctx, "synthesize", 0.90, "")
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindBudgetExceeded, models.KindOf(err))

	// The rejected stage's quote still lands in the ledger for inspection.
	entries, _ := l.Entries(ctx)
	var found bool
	for _, e := range entries {
		if e.Stage == "synthesize" && e.Type == TypeQuote {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckBudgetDisabledWhenZero(t *testing.T) {
	l := NewLedger(&memCostRepo{}, models.NewULID(), 0)
	assert.NoError(t, l.CheckBudget(context.Background(), "synthesize", 1e6, ""))
}
