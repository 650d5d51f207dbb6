package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// testModeSeconds is how much of the source is fetched in test mode.
const testModeSeconds = 60

// DownloadResult reports a completed media download.
type DownloadResult struct {
	Path  string
	Title string
	Bytes int64
}

// Downloader fetches remote videos with yt-dlp.
type Downloader struct {
	toolchain *Toolchain
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDownloader creates a downloader.
func NewDownloader(tc *Toolchain, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{toolchain: tc, timeout: 30 * time.Minute, logger: logger}
}

// ProbeTitle fetches the video title without downloading the media.
func (d *Downloader) ProbeTitle(ctx context.Context, url string) (string, error) {
	cmd := NewCommand(d.toolchain.Ytdlp,
		"--no-download",
		"--no-playlist",
		"--print", "title",
		url,
	).WithTimeout(2 * time.Minute)

	result, err := cmd.Run(ctx, d.logger)
	if err != nil {
		return "", mapDownloadError(err)
	}
	return strings.TrimSpace(string(result.Stdout)), nil
}

// Download fetches the video into dir. Test mode clips the first minute so
// trial runs stay cheap. videoOnly skips the audio streams, used when the
// muxer re-fetches the source for dubbing.
func (d *Downloader) Download(ctx context.Context, url, dir string, testMode, videoOnly bool) (*DownloadResult, error) {
	outTemplate := filepath.Join(dir, "source.%(ext)s")

	args := []string{
		"--no-playlist",
		"--no-progress",
		"-o", outTemplate,
	}
	switch {
	case videoOnly:
		args = append(args, "-f", "bestvideo[ext=mp4]/bestvideo/best")
	default:
		args = append(args, "-f", "best[ext=mp4]/best")
	}
	if testMode {
		args = append(args, "--download-sections", fmt.Sprintf("*0-%d", testModeSeconds))
	}
	args = append(args, "--print", "after_move:filepath", "--print", "title", url)

	cmd := NewCommand(d.toolchain.Ytdlp, args...).WithTimeout(d.timeout)
	result, err := cmd.Run(ctx, d.logger)
	if err != nil {
		return nil, mapDownloadError(err)
	}

	// yt-dlp prints the requested fields one per line: filepath, then title.
	lines := strings.Split(strings.TrimSpace(string(result.Stdout)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, models.NewJobError(models.ErrorKindSourceUnavailable, "download",
			"downloader produced no output file")
	}
	path := strings.TrimSpace(lines[0])
	title := ""
	if len(lines) > 1 {
		title = strings.TrimSpace(lines[1])
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, models.WrapJobError(models.ErrorKindSourceUnavailable, "download",
			fmt.Errorf("downloaded file missing: %w", err))
	}

	d.logger.Info("media downloaded",
		slog.String("url", url),
		slog.String("path", path),
		slog.Int64("bytes", info.Size()),
		slog.Bool("test_mode", testMode))

	return &DownloadResult{Path: path, Title: title, Bytes: info.Size()}, nil
}

// mapDownloadError classifies yt-dlp failures. Unreachable or removed
// sources are fatal; anything else is worth a retry.
func mapDownloadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		msg := strings.ToLower(exitErr.Stderr)
		switch {
		case strings.Contains(msg, "video unavailable"),
			strings.Contains(msg, "private video"),
			strings.Contains(msg, "404"),
			strings.Contains(msg, "unsupported url"),
			strings.Contains(msg, "not a valid url"):
			return models.WrapJobError(models.ErrorKindSourceUnavailable, "download", exitErr)
		default:
			return models.WrapJobError(models.ErrorKindTransientNetwork, "download", exitErr)
		}
	}
	return models.WrapJobError(models.ErrorKindTransientNetwork, "download", err)
}
