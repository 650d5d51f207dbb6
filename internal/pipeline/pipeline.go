// Package pipeline assembles job pipelines from the stage catalog. Each
// job kind maps to a stage sequence; optional stages are included per the
// job's parameters so progress weights renormalize over what actually runs.
package pipeline

import (
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/genai"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/media"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/stages"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/recognize"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

// Deps carries the stage dependencies shared by all pipelines.
type Deps struct {
	Downloader *media.Downloader
	Decoder    *media.Decoder
	Muxer      *media.Muxer
	Recognizer recognize.Recognizer
	PostEditor *genai.PostEditor
	Translator *genai.Translator
	Quality    genai.Quality
	TTS        *tts.Registry
	Catalog    *tts.Catalog
	ChunkChars int
	Workers    int
	Logger     *slog.Logger
}

// Build returns the stage sequence for a job.
func Build(job *models.Job, deps Deps) *core.Orchestrator {
	params := job.Params

	var list []core.Stage

	fromSource := params.SourceURL != ""
	if fromSource {
		list = append(list,
			stages.NewDownloadStage(deps.Downloader, deps.Logger),
			stages.NewDecodeStage(deps.Decoder, deps.Logger),
			stages.NewRecognizeStage(deps.Recognizer, deps.Logger),
			stages.NewSegmentStage(deps.Logger),
		)
		if params.PostEditEnabled() {
			list = append(list, stages.NewPostEditStage(deps.PostEditor, deps.Logger))
		}
	}

	// Translate jobs without a source URL run over the transcript provided
	// in the request body; the stage loads it when no upstream stage has.
	translating := params.TargetLanguage != "" &&
		(job.Kind == models.JobKindTranslate || job.Kind == models.JobKindDub ||
			(job.Kind == models.JobKindSynthesize && fromSource))
	if translating {
		list = append(list, stages.NewTranslateStage(deps.Translator, deps.Quality, deps.Logger))
	}

	if job.Kind == models.JobKindSynthesize || job.Kind == models.JobKindDub {
		list = append(list, stages.NewSynthesizeStage(deps.TTS, deps.Catalog, deps.ChunkChars, deps.Workers, deps.Logger))
	}

	if job.Kind == models.JobKindDub && params.MuxEnabled() {
		list = append(list, stages.NewMuxStage(deps.Muxer, deps.Logger))
	}

	return core.NewOrchestrator(list, deps.Logger)
}
