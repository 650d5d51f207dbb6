package genai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// Translation output length bounds relative to the source. Outside these the
// response is treated as a failed attempt and the fallback continues.
const (
	minLengthRatio = 0.5
	maxLengthRatio = 2.0
)

// Translator produces timed-script translations with timing preservation.
type Translator struct {
	runner *Runner
	chunks ChunkOptions
	logger *slog.Logger
}

// NewTranslator creates a translator on top of a fallback runner.
func NewTranslator(runner *Runner, chunks ChunkOptions, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{runner: runner, chunks: chunks.withDefaults(), logger: logger}
}

// Translate translates the script body. Long inputs are chunked; each chunk
// must keep the source timestamps and stay within the length bounds.
func (t *Translator) Translate(ctx context.Context, script string, p TranslateParams) (*Result, error) {
	if p.TargetLanguage == "" {
		return nil, models.NewJobError(models.ErrorKindInvalidRequest, "translate", "target language is required")
	}
	if !models.ValidTranslationContext(p.Context) {
		return nil, models.WrapJobError(models.ErrorKindInvalidRequest, "translate", models.ErrInvalidContext)
	}
	if p.Quality == "" {
		p.Quality = QualityBalanced
	}
	if script == "" {
		return &Result{}, nil
	}

	chunks, err := splitForModel(script, t.chunks)
	if err != nil {
		return nil, err
	}

	cfg := p.Quality.Config()
	outputs := make([]string, 0, len(chunks))
	var last *Result
	for i, chunk := range chunks {
		t.logger.Debug("translating chunk",
			slog.Int("chunk", i+1), slog.Int("total", len(chunks)),
			slog.String("target", p.TargetLanguage), slog.String("context", p.Context))

		res, err := t.runner.Generate(ctx, buildTranslatePrompt(chunk, p), cfg, validateTranslation(chunk))
		if err != nil {
			return nil, fmt.Errorf("translating chunk %d/%d: %w", i+1, len(chunks), err)
		}
		outputs = append(outputs, res.Text)
		last = res
	}

	last.Text = transcript.Merge(outputs)
	return last, nil
}

// validateTranslation checks the timing preservation rules: every source
// timestamp appears exactly once, the output sequence is non-decreasing,
// and the character count stays within [0.5x, 2.0x] of the source.
func validateTranslation(input string) func(string) error {
	want := transcript.ExtractTimestamps(input)
	return func(output string) error {
		if output == "" {
			return fmt.Errorf("empty model output")
		}
		if output == input {
			return fmt.Errorf("output identical to input, no translation happened")
		}

		got := transcript.ExtractTimestamps(output)
		if !sameMultiset(want, got) {
			return fmt.Errorf("timestamps not preserved: want %d markers, got %d", len(want), len(got))
		}
		if !nonDecreasing(got) {
			return fmt.Errorf("output timestamps out of order")
		}

		ratio := float64(len(output)) / float64(len(input))
		if ratio < minLengthRatio || ratio > maxLengthRatio {
			return fmt.Errorf("output length ratio %.2f outside [%.1f, %.1f]", ratio, minLengthRatio, maxLengthRatio)
		}
		return nil
	}
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func nonDecreasing(timestamps []string) bool {
	prev := -1
	for _, ts := range timestamps {
		secs, err := transcript.ParseTimestamp(ts[1 : len(ts)-1])
		if err != nil {
			return false
		}
		if secs < prev {
			return false
		}
		prev = secs
	}
	return true
}
