package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/media"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
)

// MuxStage replaces the source video's audio with the synthesized track
// and stores the dubbed container.
type MuxStage struct {
	baseStage
	muxer  *media.Muxer
	logger *slog.Logger
}

// NewMuxStage creates the mux stage.
func NewMuxStage(muxer *media.Muxer, logger *slog.Logger) *MuxStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MuxStage{
		baseStage: baseStage{id: core.StageMux, name: "Mux"},
		muxer:     muxer,
		logger:    logger,
	}
}

func (s *MuxStage) Execute(ctx context.Context, state *core.State) error {
	if len(state.AudioOut) == 0 {
		return models.NewJobError(models.ErrorKindInternal, s.id, "no synthesized audio to mux")
	}

	audioPath := filepath.Join(state.TempDir, "dub-audio.mp3")
	if err := os.WriteFile(audioPath, state.AudioOut, 0o644); err != nil {
		return fmt.Errorf("staging dub audio: %w", err)
	}

	language := state.TargetLanguage
	if language == "" {
		language = state.SourceLanguage
	}
	name := artifact.FileName(artifact.KindVideo, language, "mp4")
	output := filepath.Join(state.TempDir, name)

	if err := s.muxer.Mux(ctx, state.SourcePath, audioPath, output); err != nil {
		return err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return fmt.Errorf("reading dubbed output: %w", err)
	}
	if err := state.WriteArtifact(name, data); err != nil {
		return err
	}

	s.logger.Info("dubbed video produced",
		slog.String("job_id", state.Job.ID.String()),
		slog.String("artifact", name),
		slog.Int("bytes", len(data)))
	return nil
}
