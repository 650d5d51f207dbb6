package stages

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/cost"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/genai"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline/core"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/testutil"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memCostRepo struct {
	entries []*models.CostLedgerEntry
}

func (m *memCostRepo) Append(ctx context.Context, entry *models.CostLedgerEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memCostRepo) ForJob(ctx context.Context, jobID models.ULID) ([]*models.CostLedgerEntry, error) {
	var out []*models.CostLedgerEntry
	for _, e := range m.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memCostRepo) DeleteForJob(ctx context.Context, jobID models.ULID) error { return nil }

func (m *memCostRepo) DeleteOrphaned(ctx context.Context) (int64, error) { return 0, nil }

// newState builds a minimal pipeline state: a running job with the given
// params, a disk store under a test dir, and an unbounded ledger.
func newState(t *testing.T, params models.JobParams) (*core.State, *memCostRepo) {
	t.Helper()

	store, err := artifact.NewStore(config.StorageConfig{
		BaseDir:     t.TempDir(),
		ArtifactDir: "artifacts",
		TempDir:     "tmp",
	}, testLogger())
	require.NoError(t, err)

	job := &models.Job{
		Kind:   models.JobKindDub,
		Status: models.JobStatusRunning,
		Params: params,
	}
	job.ID = models.NewULID()

	costs := &memCostRepo{}
	return &core.State{
		Job:    job,
		Ledger: cost.NewLedger(costs, job.ID, 0),
		Store:  store,
	}, costs
}

// scriptedClient lets a test supply the model response per call.
type scriptedClient struct {
	generate func(prompt string, cfg genai.GenConfig) (string, error)
}

func (c *scriptedClient) Generate(_ context.Context, prompt string, cfg genai.GenConfig) (string, error) {
	return c.generate(prompt, cfg)
}

// onePairRunner builds a runner with a single (model, region) pair whose
// responses come from generate.
func onePairRunner(generate func(prompt string, cfg genai.GenConfig) (string, error)) *genai.Runner {
	factory := func(model, region string) (genai.Client, error) {
		return &scriptedClient{generate: generate}, nil
	}
	return genai.NewRunner(factory, genai.RunnerOptions{
		Models:   []string{"gemini-2.0-flash"},
		Regions:  []string{"us-central1"},
		Attempts: 1,
		Backoff:  time.Millisecond,
		Logger:   testLogger(),
	})
}

// sourceScript slices the embedded script out of a translation prompt.
func sourceScript(prompt string) string {
	_, rest, ok := strings.Cut(prompt, "SOURCE SCRIPT:\n")
	if !ok {
		return ""
	}
	body, _, _ := strings.Cut(rest, "\n\nTRANSLATED")
	return body
}

// transcriptBlock slices the embedded script out of a post-edit prompt.
func transcriptBlock(prompt string) string {
	_, rest, _ := strings.Cut(prompt, "TRANSCRIPT:\n")
	return rest
}

func TestSegmentStageWritesTranscript(t *testing.T) {
	state, _ := newState(t, models.JobParams{})
	state.VideoTitle = "Sample recording"
	state.Words = testutil.NewTimeline(0).
		Say("Ez az első mondat.").
		Pause(testutil.GapParagraph).
		Say("Ez a második rész.").
		Words()

	require.NoError(t, NewSegmentStage(testLogger()).Execute(context.Background(), state))

	require.NotNil(t, state.Script)
	assert.Same(t, state.RawTranscript, state.Script)
	assert.Equal(t, 8, state.Stats.TotalWords)
	assert.Equal(t, 1, state.Stats.ParagraphBreaks)
	assert.Equal(t, "Sample recording", state.Script.Header.Title)
	assert.False(t, state.Script.Header.ProcessedAt.IsZero())

	require.Contains(t, state.Job.Artifacts, "transcript.txt")
	data, err := state.Store.Read(state.Job.ID, "transcript.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Sample recording")
	assert.Contains(t, string(data), "[0:00:00] Ez az első mondat.")
	assert.Contains(t, string(data), "[0:00:05] Ez a második rész.")
}

func TestSegmentStageBreathMarks(t *testing.T) {
	words := testutil.NewTimeline(0).
		SayTimed("lassú tagolt beszéd", 0.3, testutil.GapShort).
		Words()

	on, _ := newState(t, models.JobParams{})
	on.Words = words
	require.NoError(t, NewSegmentStage(testLogger()).Execute(context.Background(), on))
	assert.Contains(t, on.Script.Body(), transcript.ShortBreath)
	assert.Equal(t, 2, on.Stats.ShortPauses)

	off, _ := newState(t, models.JobParams{BreathDetection: models.BoolPtr(false)})
	off.Words = words
	require.NoError(t, NewSegmentStage(testLogger()).Execute(context.Background(), off))
	assert.NotContains(t, off.Script.Body(), transcript.ShortBreath)
}

func TestPostEditStageRewritesScript(t *testing.T) {
	script := testutil.NewGeneratorWithSeed(7).Transcript(2, 3)
	state, costs := newState(t, models.JobParams{})
	state.RawTranscript = script
	state.Script = script

	runner := onePairRunner(func(prompt string, _ genai.GenConfig) (string, error) {
		return strings.ToUpper(transcriptBlock(prompt)), nil
	})
	editor := genai.NewPostEditor(runner, genai.QualityBalanced, genai.ChunkOptions{}, testLogger())

	require.NoError(t, NewPostEditStage(editor, testLogger()).Execute(context.Background(), state))

	assert.Equal(t, strings.ToUpper(script.Body()), state.Script.Body())
	assert.Equal(t, script.Timestamps(), state.Script.Timestamps())
	assert.Equal(t, "gemini-2.0-flash@us-central1", state.Script.Header.PostEditor)
	assert.Equal(t, "gemini-2.0-flash@us-central1", state.Job.PostEditorModel)
	assert.Equal(t, script.Header.Title, state.Script.Header.Title, "header carried over")

	require.Contains(t, state.Job.Artifacts, "script.txt")
	data, err := state.Store.Read(state.Job.ID, "script.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "post-editor: gemini-2.0-flash@us-central1")

	entries, err := costs.ForJob(context.Background(), state.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, cost.TypeQuote, entries[0].Type)
	assert.Equal(t, cost.TypeActual, entries[1].Type)
	assert.Equal(t, core.StagePostEdit, entries[0].Stage)
}

func TestPostEditStageModelOverride(t *testing.T) {
	var calls []string
	factory := func(model, region string) (genai.Client, error) {
		calls = append(calls, model+"@"+region)
		return &scriptedClient{generate: func(prompt string, _ genai.GenConfig) (string, error) {
			return transcriptBlock(prompt), nil
		}}, nil
	}
	runner := genai.NewRunner(factory, genai.RunnerOptions{
		Models:   []string{"gemini-2.0-flash"},
		Regions:  []string{"us-central1"},
		Attempts: 1,
		Backoff:  time.Millisecond,
		Logger:   testLogger(),
	})
	editor := genai.NewPostEditor(runner, genai.QualityBalanced, genai.ChunkOptions{}, testLogger())

	state, _ := newState(t, models.JobParams{PostEditModel: "gemini-1.5-pro"})
	state.Script = testutil.NewGeneratorWithSeed(3).Transcript(1, 2)

	require.NoError(t, NewPostEditStage(editor, testLogger()).Execute(context.Background(), state))

	require.NotEmpty(t, calls)
	assert.Equal(t, "gemini-1.5-pro@us-central1", calls[0])
	assert.Equal(t, "gemini-1.5-pro@us-central1", state.Job.PostEditorModel)
}

func TestPostEditStageBudgetGate(t *testing.T) {
	state, costs := newState(t, models.JobParams{})
	state.Script = testutil.NewGeneratorWithSeed(5).Transcript(3, 4)
	state.Ledger = cost.NewLedger(costs, state.Job.ID, 0.0000001)

	runner := onePairRunner(func(prompt string, _ genai.GenConfig) (string, error) {
		t.Fatal("model must not be called once the budget gate fails")
		return "", nil
	})
	editor := genai.NewPostEditor(runner, genai.QualityBalanced, genai.ChunkOptions{}, testLogger())

	err := NewPostEditStage(editor, testLogger()).Execute(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindBudgetExceeded, models.KindOf(err))
	assert.Empty(t, state.Job.Artifacts)

	// The rejected quote is still on the ledger.
	entries, err := costs.ForJob(context.Background(), state.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, cost.TypeQuote, entries[0].Type)
}

func TestTranslateStageTranslatesScript(t *testing.T) {
	script := testutil.NewGeneratorWithSeed(11).Transcript(2, 3)
	state, costs := newState(t, models.JobParams{
		Context:  "news",
		Audience: "students",
		Tone:     "formal",
	})
	state.Script = script
	state.TargetLanguage = "en-US"

	runner := onePairRunner(func(prompt string, _ genai.GenConfig) (string, error) {
		return strings.ToUpper(sourceScript(prompt)), nil
	})
	translator := genai.NewTranslator(runner, genai.ChunkOptions{}, testLogger())

	stage := NewTranslateStage(translator, genai.QualityBalanced, testLogger())
	require.NoError(t, stage.Execute(context.Background(), state))

	assert.Equal(t, strings.ToUpper(script.Body()), state.Script.Body())
	assert.Equal(t, script.Timestamps(), state.Script.Timestamps())
	assert.Equal(t, "gemini-2.0-flash@us-central1", state.Script.Header.Translator)
	assert.Equal(t, "gemini-2.0-flash@us-central1", state.Job.TranslatorModel)

	require.Contains(t, state.Job.Artifacts, "translated.en-US.txt")
	data, err := state.Store.Read(state.Job.ID, "translated.en-US.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "translator: gemini-2.0-flash@us-central1")

	entries, err := costs.ForJob(context.Background(), state.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.StageTranslate, entries[0].Stage)
	assert.Equal(t, cost.TypeActual, entries[1].Type)
}

func TestTranslateStageFromInputText(t *testing.T) {
	state, _ := newState(t, models.JobParams{
		InputText: "[0:00:01] első sor\n[0:00:05] második sor\n",
	})
	state.TargetLanguage = "de-DE"

	runner := onePairRunner(func(prompt string, _ genai.GenConfig) (string, error) {
		return strings.ToUpper(sourceScript(prompt)), nil
	})
	translator := genai.NewTranslator(runner, genai.ChunkOptions{}, testLogger())

	stage := NewTranslateStage(translator, genai.QualityBalanced, testLogger())
	require.NoError(t, stage.Execute(context.Background(), state))

	assert.Contains(t, state.Script.Body(), "ELSŐ SOR")
	assert.Contains(t, state.Script.Body(), "[0:00:05]")
	assert.Contains(t, state.Job.Artifacts, "translated.de-DE.txt")
}

func TestTranslateStageQualityOverride(t *testing.T) {
	var got genai.GenConfig
	runner := onePairRunner(func(prompt string, cfg genai.GenConfig) (string, error) {
		got = cfg
		return strings.ToUpper(sourceScript(prompt)), nil
	})
	translator := genai.NewTranslator(runner, genai.ChunkOptions{}, testLogger())

	// The stage default is balanced; the job asks for high.
	state, _ := newState(t, models.JobParams{Quality: "high"})
	state.Script = testutil.NewGeneratorWithSeed(17).Transcript(1, 3)
	state.TargetLanguage = "en-US"

	stage := NewTranslateStage(translator, genai.QualityBalanced, testLogger())
	require.NoError(t, stage.Execute(context.Background(), state))

	assert.Equal(t, genai.QualityHigh.Config(), got)
}

func newSynthesizeTestStage() (*SynthesizeStage, *tts.MockProvider) {
	catalog := tts.MustLoadCatalog()
	mock := tts.NewMockProvider("google")
	registry := tts.NewRegistry(catalog, true, mock)
	return NewSynthesizeStage(registry, catalog, 1000, 2, testLogger()), mock
}

func TestSynthesizeStageRendersScript(t *testing.T) {
	stage, _ := newSynthesizeTestStage()
	state, costs := newState(t, models.JobParams{})
	state.Script = testutil.NewGeneratorWithSeed(13).Transcript(2, 2)
	state.SourceLanguage = "hu-HU"

	require.NoError(t, stage.Execute(context.Background(), state))

	assert.Equal(t, "google", state.Job.TTSProvider)
	assert.Equal(t, "hu-HU-Wavenet-A", state.Job.TTSVoice, "catalog default for hu-HU")
	assert.Equal(t, state.Job.TTSVoice, state.Voice.ID)
	assert.NotEmpty(t, state.AudioOut)

	require.Contains(t, state.Job.Artifacts, "audio.hu-HU.mp3")
	data, err := state.Store.Read(state.Job.ID, "audio.hu-HU.mp3")
	require.NoError(t, err)
	assert.Equal(t, state.AudioOut, data)

	entries, err := costs.ForJob(context.Background(), state.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, cost.TypeQuote, entries[0].Type)
	assert.Greater(t, entries[1].AmountUSD, 0.0)
}

func TestSynthesizeStageTargetLanguageWins(t *testing.T) {
	stage, _ := newSynthesizeTestStage()
	state, _ := newState(t, models.JobParams{})
	state.Script = testutil.NewGeneratorWithSeed(19).Transcript(1, 2)
	state.SourceLanguage = "hu-HU"
	state.TargetLanguage = "en-US"

	require.NoError(t, stage.Execute(context.Background(), state))

	assert.Equal(t, "en-US-Neural2-F", state.Job.TTSVoice)
	assert.Contains(t, state.Job.Artifacts, "audio.en-US.mp3")
}

func TestSynthesizeStagePlainInputText(t *testing.T) {
	stage, mock := newSynthesizeTestStage()
	state, _ := newState(t, models.JobParams{
		InputText:   "szöveg felolvasásra",
		TTSProvider: "google",
	})
	state.SourceLanguage = "hu-HU"

	require.NoError(t, stage.Execute(context.Background(), state))

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Plain, "szöveg felolvasásra")
	assert.Contains(t, state.Job.Artifacts, "audio.hu-HU.mp3")
}

func TestSynthesizeStageUnsupportedLanguage(t *testing.T) {
	stage, _ := newSynthesizeTestStage()
	state, _ := newState(t, models.JobParams{InputText: "hello"})
	state.SourceLanguage = "zz-ZZ"

	err := stage.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindUnsupportedLanguage, models.KindOf(err))
	assert.Empty(t, state.Job.Artifacts)
}
