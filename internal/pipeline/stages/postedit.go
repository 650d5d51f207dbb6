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

// PostEditStage cleans the raw transcript with a generative model while
// preserving the timestamp sequence.
type PostEditStage struct {
	baseStage
	editor *genai.PostEditor
	logger *slog.Logger
}

// NewPostEditStage creates the post-editing stage.
func NewPostEditStage(editor *genai.PostEditor, logger *slog.Logger) *PostEditStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostEditStage{
		baseStage: baseStage{id: core.StagePostEdit, name: "Post-edit"},
		editor:    editor,
		logger:    logger,
	}
}

func (s *PostEditStage) Execute(ctx context.Context, state *core.State) error {
	body := state.Script.Body()

	quote := cost.LLMQuote(len(body))
	detail := fmt.Sprintf("%d chars @ $%.2f/1M", len(body), cost.LLMPerMillionCharsUSD)
	if err := state.Ledger.CheckBudget(ctx, s.id, quote, detail); err != nil {
		return err
	}

	editor := s.editor.WithModel(state.Job.Params.PostEditModel)
	result, err := editor.Edit(ctx, body)
	if err != nil {
		return err
	}

	edited, err := transcript.Parse(strings.NewReader(result.Text))
	if err != nil {
		return fmt.Errorf("parsing post-edited script: %w", err)
	}
	edited.Header = state.Script.Header
	edited.Header.PostEditor = result.ModelTag()

	state.Script = edited
	state.Job.PostEditorModel = result.ModelTag()

	if err := state.Ledger.Actual(ctx, s.id, quote, detail); err != nil {
		return err
	}
	if err := state.WriteArtifact(
		artifact.FileName(artifact.KindScript, "", ""),
		[]byte(edited.String()),
	); err != nil {
		return err
	}

	s.logger.Info("transcript post-edited",
		slog.String("job_id", state.Job.ID.String()),
		slog.String("model", result.ModelTag()),
		slog.Int("chars", len(body)))
	return nil
}
