package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

// SynthesizeStage renders the working script as speech audio.
type SynthesizeStage struct {
	baseStage
	registry   *tts.Registry
	catalog    *tts.Catalog
	chunkChars int
	workers    int
	logger     *slog.Logger
}

// NewSynthesizeStage creates the synthesis stage.
func NewSynthesizeStage(registry *tts.Registry, catalog *tts.Catalog, chunkChars, workers int, logger *slog.Logger) *SynthesizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SynthesizeStage{
		baseStage:  baseStage{id: core.StageSynthesize, name: "Synthesize"},
		registry:   registry,
		catalog:    catalog,
		chunkChars: chunkChars,
		workers:    workers,
		logger:     logger,
	}
}

func (s *SynthesizeStage) Execute(ctx context.Context, state *core.State) error {
	if state.Script == nil {
		script, err := scriptFromInputText(state.Job.Params.InputText)
		if err != nil {
			return err
		}
		state.Script = script
	}

	language := state.TargetLanguage
	if language == "" {
		language = state.SourceLanguage
	}

	provider, voice, err := s.registry.Select(tts.VoiceSpec{
		Provider: state.Job.Params.TTSProvider,
		VoiceID:  state.Job.Params.VoiceID,
		Language: language,
	})
	if err != nil {
		return err
	}
	state.Provider = provider
	state.Voice = voice
	state.Job.TTSProvider = provider.ID()
	state.Job.TTSVoice = voice.ID

	segments := tts.SegmentsFromTranscript(state.Script)

	var spoken strings.Builder
	for _, seg := range segments {
		spoken.WriteString(seg.Text)
	}
	chars := len([]rune(spoken.String()))
	quote := provider.Quote(spoken.String(), voice)
	detail := fmt.Sprintf("%d chars @ $%.3f/1k (%s/%s)", chars, voice.PricePer1K, provider.ID(), voice.ID)
	if err := state.Ledger.CheckBudget(ctx, s.id, quote, detail); err != nil {
		return err
	}

	synth := tts.NewSynthesizer(provider, voice, s.catalog, s.chunkChars, s.workers, s.logger)
	output, err := synth.Synthesize(ctx, segments)
	if err != nil {
		return err
	}
	state.AudioOut = output.Audio

	actual := float64(output.Characters) / 1000 * voice.PricePer1K
	if err := state.Ledger.Actual(ctx, s.id, actual,
		fmt.Sprintf("%d chars synthesized", output.Characters),
	); err != nil {
		return err
	}

	if len(output.Audio) > 0 {
		if err := state.WriteArtifact(
			artifact.FileName(artifact.KindAudio, language, ""),
			output.Audio,
		); err != nil {
			return err
		}
	}

	s.logger.Info("speech synthesized",
		slog.String("job_id", state.Job.ID.String()),
		slog.String("provider", provider.ID()),
		slog.String("voice", voice.ID),
		slog.Int("segments", len(segments)),
		slog.Int("bytes", len(output.Audio)))
	return nil
}

// scriptFromInputText builds a working script for synthesize-from-text
// jobs. Timestamped input parses as a timed transcript; plain text becomes
// a single untimed segment.
func scriptFromInputText(text string) (*transcript.Transcript, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &transcript.Transcript{}, nil
	}
	if len(transcript.ExtractTimestamps(text)) > 0 {
		return transcript.Parse(strings.NewReader(text))
	}
	return &transcript.Transcript{
		Paragraphs: []transcript.Paragraph{{{Seconds: 0, Text: text}}},
	}, nil
}
