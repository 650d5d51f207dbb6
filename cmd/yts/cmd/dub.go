package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/service"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/urlutil"
)

var dubCmd = &cobra.Command{
	Use:   "dub [url]",
	Short: "Interactively dub a single video",
	Long: `Dub a single video from the terminal.

Prompts for the same fields as the HTTP API, runs the job locally with a
single worker, and streams progress until the job finishes. Press Ctrl+C
once to cancel the job cooperatively, twice to force quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDub,
}

func init() {
	rootCmd.AddCommand(dubCmd)
}

func runDub(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// One local worker keeps stage logs in submission order.
	cfg.Jobs.MaxConcurrent = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	params, err := promptDubParams(args, cfg, app.ttsService)
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		return err
	}

	job, err := app.jobService.Submit(ctx, models.JobKindDub, *params)
	if err != nil {
		return err
	}
	fmt.Printf("\nSubmitted job %s\n", job.ID)

	if err := app.runner.Start(ctx); err != nil {
		return fmt.Errorf("starting job runner: %w", err)
	}
	defer app.runner.Stop()

	// First signal requests cooperative cancellation; the worker observes
	// the flag at its next checkpoint. A second signal aborts hard.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\ncancelling, press Ctrl+C again to force quit")
		if _, err := app.jobService.Cancel(context.Background(), job.ID); err != nil {
			logger.Warn("cancel request failed", slog.Any("error", err))
		}
		<-sigChan
		cancel()
	}()

	final, err := watchJob(ctx, app.jobService, job.ID)
	if err != nil {
		return err
	}

	jobDir, err := app.store.JobDir(final.ID)
	if err != nil {
		jobDir = ""
	}
	return printJobResult(final, jobDir)
}

// promptDubParams collects job parameters interactively. The URL may be
// passed as a positional argument to skip the first prompt.
func promptDubParams(args []string, cfg *config.Config, ttsService *service.TTSService) (*models.JobParams, error) {
	params := &models.JobParams{}

	if len(args) > 0 {
		params.SourceURL = args[0]
	} else {
		url, err := promptString("Video URL", "", func(input string) error {
			return urlutil.ValidateSourceURL(input)
		})
		if err != nil {
			return nil, err
		}
		params.SourceURL = url
	}

	testMode, err := confirm("Test mode (first 60 seconds only)", false)
	if err != nil {
		return nil, err
	}
	params.TestMode = testMode

	breath, err := confirm("Breath detection (pause markers)", true)
	if err != nil {
		return nil, err
	}
	params.BreathDetection = &breath

	postEdit, err := confirm("Post-edit transcript with a generative model", true)
	if err != nil {
		return nil, err
	}
	params.PostEdit = &postEdit

	if postEdit {
		model, err := promptString("Post-edit model", cfg.GenAI.PostEditorModel, nil)
		if err != nil {
			return nil, err
		}
		params.PostEditModel = model
	}

	translate, err := confirm("Translate", true)
	if err != nil {
		return nil, err
	}

	if translate {
		lang, err := promptString("Target language (BCP-47, e.g. en-US)", "", func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("target language is required")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		params.TargetLanguage = lang

		contextTag, err := promptSelect("Translation context", translationContextItems())
		if err != nil {
			return nil, err
		}
		if contextTag != "general" {
			params.Context = contextTag
		}

		audience, err := promptString("Audience (optional)", "", nil)
		if err != nil {
			return nil, err
		}
		params.Audience = audience

		tone, err := promptString("Tone (optional)", "", nil)
		if err != nil {
			return nil, err
		}
		params.Tone = tone
	}

	provider, err := promptSelect("TTS provider", providerItems(ttsService))
	if err != nil {
		return nil, err
	}
	params.TTSProvider = provider

	voice, err := promptString("Voice id (empty for automatic selection)", "", nil)
	if err != nil {
		return nil, err
	}
	params.VoiceID = voice

	mux, err := confirm("Mux dubbed audio back into the video", true)
	if err != nil {
		return nil, err
	}
	params.Mux = &mux

	return params, nil
}

func translationContextItems() []string {
	tags := make([]string, 0, len(models.TranslationContexts))
	for tag := range models.TranslationContexts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return append([]string{"general"}, tags...)
}

func providerItems(ttsService *service.TTSService) []string {
	items := []string{"auto"}
	for _, p := range ttsService.Providers() {
		items = append(items, p.ID)
	}
	return items
}

func promptString(label, defaultValue string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}
	return prompt.Run()
}

func promptSelect(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}
	_, result, err := prompt.Run()
	return result, err
}

func confirm(label string, defaultYes bool) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		prompt.Default = "y"
	}
	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// watchJob polls the job until it reaches a terminal state, printing a
// line whenever the stage or progress changes.
func watchJob(ctx context.Context, jobs *service.JobService, id models.ULID) (*models.Job, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStage := ""
	lastProgress := -1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := jobs.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if job.CurrentStage != lastStage || job.Progress != lastProgress {
			stage := job.CurrentStage
			if stage == "" {
				stage = string(job.Status)
			}
			fmt.Printf("[%3d%%] %s\n", job.Progress, stage)
			lastStage, lastProgress = job.CurrentStage, job.Progress
		}

		if job.IsTerminal() {
			return job, nil
		}
	}
}

func printJobResult(job *models.Job, jobDir string) error {
	fmt.Println()

	switch job.Status {
	case models.JobStatusCompleted:
		fmt.Printf("Job %s completed in %s\n", job.ID,
			(time.Duration(job.DurationMs) * time.Millisecond).Round(time.Second))
		if job.VideoTitle != "" {
			fmt.Printf("  title:       %s\n", job.VideoTitle)
		}
		if job.PostEditorModel != "" {
			fmt.Printf("  post-editor: %s\n", job.PostEditorModel)
		}
		if job.TranslatorModel != "" {
			fmt.Printf("  translator:  %s\n", job.TranslatorModel)
		}
		if job.TTSVoice != "" {
			fmt.Printf("  voice:       %s (%s)\n", job.TTSVoice, job.TTSProvider)
		}
		fmt.Printf("  cost:        $%.4f\n", job.CostUSD)
		if jobDir != "" {
			fmt.Printf("  artifacts:   %s\n", jobDir)
		}
		for _, name := range job.Artifacts {
			fmt.Printf("    - %s\n", name)
		}
		return nil

	case models.JobStatusCancelled:
		fmt.Printf("Job %s cancelled\n", job.ID)
		return nil

	default:
		if job.Error != nil {
			return fmt.Errorf("job failed at %s: %s", job.Error.Stage, job.Error.Message)
		}
		return fmt.Errorf("job %s failed", job.ID)
	}
}
