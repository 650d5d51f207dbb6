package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/cost"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/recognize"
)

// RecognizeStage turns the decoded audio into a timed word stream.
type RecognizeStage struct {
	baseStage
	recognizer recognize.Recognizer
	logger     *slog.Logger
}

// NewRecognizeStage creates the recognition stage.
func NewRecognizeStage(recognizer recognize.Recognizer, logger *slog.Logger) *RecognizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognizeStage{
		baseStage:  baseStage{id: core.StageRecognize, name: "Recognize"},
		recognizer: recognizer,
		logger:     logger,
	}
}

func (s *RecognizeStage) Execute(ctx context.Context, state *core.State) error {
	quote := cost.RecognitionQuote(state.AudioDuration)
	detail := fmt.Sprintf("%.1f min @ $%.3f/min", state.AudioDuration.Minutes(), cost.RecognitionPerMinuteUSD)
	if err := state.Ledger.CheckBudget(ctx, s.id, quote, detail); err != nil {
		return err
	}

	audio := recognize.AudioInfo{
		Path:      state.AudioPath,
		SizeBytes: state.AudioBytes,
		Duration:  state.AudioDuration,
	}
	result, err := s.recognizer.Recognize(ctx, audio, state.SourceLanguage, func(pct int) {
		if state.Progress != nil {
			state.Progress.Update(s.id, float64(pct)/100)
		}
	})
	if err != nil {
		return err
	}

	state.Words = result.Words

	// Recognition is priced by duration, so the actual equals the quote.
	if err := state.Ledger.Actual(ctx, s.id, quote, detail); err != nil {
		return err
	}

	s.logger.Info("recognition finished",
		slog.String("job_id", state.Job.ID.String()),
		slog.Int("words", len(result.Words)),
		slog.Bool("staged", result.Staged))
	return nil
}
