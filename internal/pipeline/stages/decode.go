package stages

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/media"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
)

// DecodeStage extracts recognition-ready audio from the downloaded media.
type DecodeStage struct {
	baseStage
	decoder *media.Decoder
	logger  *slog.Logger
}

// NewDecodeStage creates the decode stage.
func NewDecodeStage(decoder *media.Decoder, logger *slog.Logger) *DecodeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecodeStage{
		baseStage: baseStage{id: core.StageDecode, name: "Decode"},
		decoder:   decoder,
		logger:    logger,
	}
}

func (s *DecodeStage) Execute(ctx context.Context, state *core.State) error {
	output := filepath.Join(state.TempDir, "audio.flac")

	result, err := s.decoder.Decode(ctx, state.SourcePath, output, 0)
	if err != nil {
		return err
	}

	state.AudioPath = result.Path
	state.AudioBytes = result.Bytes
	state.AudioDuration = result.Duration
	return nil
}
