package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// Muxer replaces a video's audio stream with newly synthesized audio. The
// video stream is copied without re-encoding; the audio is encoded to the
// container's canonical codec and the output truncated to the shorter
// stream.
type Muxer struct {
	toolchain *Toolchain
	timeout   time.Duration
	logger    *slog.Logger
}

// NewMuxer creates a muxer.
func NewMuxer(tc *Toolchain, logger *slog.Logger) *Muxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Muxer{toolchain: tc, timeout: 30 * time.Minute, logger: logger}
}

// muxArgs builds the ffmpeg argument list for an audio replacement.
func muxArgs(videoPath, audioPath, output string) []string {
	return []string{
		"-loglevel", "error",
		"-hide_banner",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		output,
	}
}

// Mux produces the dubbed container at output.
func (m *Muxer) Mux(ctx context.Context, videoPath, audioPath, output string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return models.WrapJobError(models.ErrorKindSourceUnavailable, "mux",
			fmt.Errorf("source video missing: %w", err))
	}
	if _, err := os.Stat(audioPath); err != nil {
		return models.WrapJobError(models.ErrorKindInternal, "mux",
			fmt.Errorf("synthesized audio missing: %w", err))
	}

	cmd := NewCommand(m.toolchain.FFmpeg, muxArgs(videoPath, audioPath, output)...).
		WithTimeout(m.timeout)

	if _, err := cmd.Run(ctx, m.logger); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return models.NewJobError(models.ErrorKindMuxerFailed, "mux",
				fmt.Sprintf("muxer exited with code %d", exitErr.ExitCode)).
				WithRemoteDetail(exitErr.Stderr)
		}
		return models.WrapJobError(models.ErrorKindMuxerFailed, "mux", err)
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return models.NewJobError(models.ErrorKindMuxerFailed, "mux", "muxer produced no output")
	}

	m.logger.Info("dubbed video muxed",
		slog.String("output", output),
		slog.Int64("bytes", info.Size()))
	return nil
}
