package stages

import (
	"context"
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/media"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
)

// DownloadStage fetches the source video into the run's temp directory.
type DownloadStage struct {
	baseStage
	downloader *media.Downloader
	logger     *slog.Logger
}

// NewDownloadStage creates the download stage.
func NewDownloadStage(downloader *media.Downloader, logger *slog.Logger) *DownloadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadStage{
		baseStage:  baseStage{id: core.StageDownload, name: "Download"},
		downloader: downloader,
		logger:     logger,
	}
}

func (s *DownloadStage) Execute(ctx context.Context, state *core.State) error {
	params := state.Job.Params

	result, err := s.downloader.Download(ctx, params.SourceURL, state.TempDir, params.TestMode, false)
	if err != nil {
		return err
	}

	state.SourcePath = result.Path
	state.VideoTitle = result.Title
	state.Job.VideoTitle = result.Title
	return nil
}
