package genai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// ChunkOptions bounds the per-call input size for both clients.
type ChunkOptions struct {
	Size      int
	Overlap   int
	MaxChunks int
	// SinglePassLimit is the largest input processed without chunking.
	SinglePassLimit int
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.Size <= 0 {
		o.Size = transcript.DefaultChunkSize
	}
	if o.Overlap <= 0 {
		o.Overlap = transcript.DefaultChunkOverlap
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = transcript.DefaultMaxChunks
	}
	if o.SinglePassLimit <= 0 {
		o.SinglePassLimit = transcript.SinglePassLimit
	}
	return o
}

// PostEditor cleans raw timed transcripts with a generative model while
// preserving timing.
type PostEditor struct {
	runner  *Runner
	quality Quality
	chunks  ChunkOptions
	logger  *slog.Logger
}

// NewPostEditor creates a post-editor on top of a fallback runner.
func NewPostEditor(runner *Runner, quality Quality, chunks ChunkOptions, logger *slog.Logger) *PostEditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostEditor{runner: runner, quality: quality, chunks: chunks.withDefaults(), logger: logger}
}

// WithModel returns a copy of the post-editor pinned to one model. The
// regional fallback order stays intact.
func (e *PostEditor) WithModel(model string) *PostEditor {
	if model == "" {
		return e
	}
	derived := *e
	derived.runner = e.runner.WithModels(ResolveModels(model, nil))
	return &derived
}

// Edit cleans the script body. Long inputs are chunked and the outputs
// merged; every chunk must preserve its timestamps verbatim.
func (e *PostEditor) Edit(ctx context.Context, script string) (*Result, error) {
	if script == "" {
		return &Result{}, nil
	}

	chunks, err := splitForModel(script, e.chunks)
	if err != nil {
		return nil, err
	}

	cfg := e.quality.Config()
	outputs := make([]string, 0, len(chunks))
	var last *Result
	for i, chunk := range chunks {
		e.logger.Debug("post-editing chunk",
			slog.Int("chunk", i+1), slog.Int("total", len(chunks)), slog.Int("chars", len(chunk)))

		res, err := e.runner.Generate(ctx, buildPostEditPrompt(chunk), cfg, validatePostEdit(chunk))
		if err != nil {
			return nil, fmt.Errorf("post-editing chunk %d/%d: %w", i+1, len(chunks), err)
		}
		outputs = append(outputs, res.Text)
		last = res
	}

	last.Text = transcript.Merge(outputs)
	return last, nil
}

// splitForModel applies the single-pass shortcut before chunking.
func splitForModel(text string, o ChunkOptions) ([]string, error) {
	if len(text) <= o.SinglePassLimit {
		return []string{text}, nil
	}
	chunks, err := transcript.Split(text, o.Size, o.Overlap, o.MaxChunks)
	if err != nil {
		return nil, models.WrapJobError(models.ErrorKindInvalidRequest, "", err)
	}
	return chunks, nil
}

// validatePostEdit requires the model output to carry the input's timestamp
// sequence unchanged.
func validatePostEdit(input string) func(string) error {
	want := transcript.ExtractTimestamps(input)
	return func(output string) error {
		if output == "" {
			return fmt.Errorf("empty model output")
		}
		got := transcript.ExtractTimestamps(output)
		if !slices.Equal(want, got) {
			return fmt.Errorf("timestamps altered: want %d markers, got %d", len(want), len(got))
		}
		return nil
	}
}
