package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// SegmentStage converts the word stream into a pause-annotated timed
// transcript and stores it as the transcript artifact.
type SegmentStage struct {
	baseStage
	logger *slog.Logger
}

// NewSegmentStage creates the segmentation stage.
func NewSegmentStage(logger *slog.Logger) *SegmentStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentStage{
		baseStage: baseStage{id: core.StageSegment, name: "Segment"},
		logger:    logger,
	}
}

func (s *SegmentStage) Execute(ctx context.Context, state *core.State) error {
	opts := transcript.SegmentOptions{
		BreathMarks: state.Job.Params.BreathDetectionEnabled(),
	}
	script, stats := transcript.Segment(state.Words, opts)
	script.Header = transcript.Header{
		Title:       state.VideoTitle,
		ProcessedAt: time.Now().UTC(),
	}

	state.RawTranscript = script
	state.Script = script
	state.Stats = stats

	if err := state.WriteArtifact(
		artifact.FileName(artifact.KindTranscript, "", ""),
		[]byte(script.String()),
	); err != nil {
		return err
	}

	s.logger.Info("transcript segmented",
		slog.String("job_id", state.Job.ID.String()),
		slog.Int("words", stats.TotalWords),
		slog.Int("short_pauses", stats.ShortPauses),
		slog.Int("long_pauses", stats.LongPauses),
		slog.Int("paragraphs", stats.ParagraphBreaks))
	return nil
}
