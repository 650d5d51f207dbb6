package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// Recognition audio format: 16 kHz mono FLAC, the lossless format the
// speech backend accepts without transcoding on its side.
const (
	recognitionSampleRate = 16000
	recognitionChannels   = 1
)

// DecodeResult reports a decoded audio file.
type DecodeResult struct {
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Decoder extracts recognition-ready audio from downloaded media.
type Decoder struct {
	toolchain *Toolchain
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDecoder creates a decoder.
func NewDecoder(tc *Toolchain, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{toolchain: tc, timeout: 20 * time.Minute, logger: logger}
}

// decodeArgs builds the ffmpeg argument list. clipSeconds > 0 truncates
// the output, used by test mode.
func decodeArgs(input, output string, clipSeconds int) []string {
	args := []string{
		"-loglevel", "error",
		"-hide_banner",
		"-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(recognitionChannels),
		"-ar", strconv.Itoa(recognitionSampleRate),
		"-c:a", "flac",
	}
	if clipSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(clipSeconds))
	}
	return append(args, output)
}

// Decode converts the media file at input into recognition audio at output.
func (d *Decoder) Decode(ctx context.Context, input, output string, clipSeconds int) (*DecodeResult, error) {
	cmd := NewCommand(d.toolchain.FFmpeg, decodeArgs(input, output, clipSeconds)...).
		WithTimeout(d.timeout)

	if _, err := cmd.Run(ctx, d.logger); err != nil {
		return nil, models.WrapJobError(models.ErrorKindInternal, "decode",
			fmt.Errorf("decoding audio: %w", err))
	}

	info, err := os.Stat(output)
	if err != nil {
		return nil, models.WrapJobError(models.ErrorKindInternal, "decode",
			fmt.Errorf("decoded audio missing: %w", err))
	}

	probe, err := NewProber(d.toolchain, d.logger).Probe(ctx, output)
	if err != nil {
		return nil, err
	}

	d.logger.Info("audio decoded",
		slog.String("path", output),
		slog.Int64("bytes", info.Size()),
		slog.Duration("duration", probe.Duration()))

	return &DecodeResult{Path: output, Bytes: info.Size(), Duration: probe.Duration()}, nil
}
