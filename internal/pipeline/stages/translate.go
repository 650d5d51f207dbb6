package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/cost"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/genai"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// TranslateStage translates the working script into the target language,
// keeping the timestamp structure intact.
type TranslateStage struct {
	baseStage
	translator *genai.Translator
	quality    genai.Quality
	logger     *slog.Logger
}

// NewTranslateStage creates the translation stage.
func NewTranslateStage(translator *genai.Translator, quality genai.Quality, logger *slog.Logger) *TranslateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslateStage{
		baseStage:  baseStage{id: core.StageTranslate, name: "Translate"},
		translator: translator,
		quality:    quality,
		logger:     logger,
	}
}

func (s *TranslateStage) Execute(ctx context.Context, state *core.State) error {
	params := state.Job.Params

	if state.Script == nil {
		script, err := scriptFromInputText(params.InputText)
		if err != nil {
			return err
		}
		state.Script = script
	}
	body := state.Script.Body()

	quality := s.quality
	if params.Quality != "" {
		quality = genai.Quality(params.Quality)
	}

	quote := cost.LLMQuote(len(body))
	detail := fmt.Sprintf("%d chars @ $%.2f/1M", len(body), cost.LLMPerMillionCharsUSD)
	if err := state.Ledger.CheckBudget(ctx, s.id, quote, detail); err != nil {
		return err
	}

	result, err := s.translator.Translate(ctx, body, genai.TranslateParams{
		TargetLanguage: state.TargetLanguage,
		Context:        params.Context,
		Audience:       params.Audience,
		Tone:           params.Tone,
		Quality:        quality,
	})
	if err != nil {
		return err
	}

	translated, err := transcript.Parse(strings.NewReader(result.Text))
	if err != nil {
		return fmt.Errorf("parsing translated script: %w", err)
	}
	translated.Header = state.Script.Header
	translated.Header.Translator = result.ModelTag()

	state.Script = translated
	state.Job.TranslatorModel = result.ModelTag()

	if err := state.Ledger.Actual(ctx, s.id, quote, detail); err != nil {
		return err
	}
	if err := state.WriteArtifact(
		artifact.FileName(artifact.KindTranslation, state.TargetLanguage, ""),
		[]byte(translated.String()),
	); err != nil {
		return err
	}

	s.logger.Info("script translated",
		slog.String("job_id", state.Job.ID.String()),
		slog.String("target_language", state.TargetLanguage),
		slog.String("model", result.ModelTag()))
	return nil
}
