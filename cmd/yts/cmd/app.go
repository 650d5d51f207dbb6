package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/database"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/database/migrations"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/genai"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/media"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/pipeline"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/recognize"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/scheduler"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/service"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/version"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

// application bundles the wired components shared by the serve and dub
// commands.
type application struct {
	cfg    *config.Config
	logger *slog.Logger

	db       *database.DB
	jobRepo  repository.JobRepository
	costRepo repository.CostRepository
	store    *artifact.Store

	catalog  *tts.Catalog
	registry *tts.Registry

	runner  *scheduler.Runner
	sweeper *scheduler.Sweeper

	jobService *service.JobService
	ttsService *service.TTSService
}

// newApplication wires the full stack: database, migrations, artifact
// store, media toolchain, recognition, generative clients, TTS providers,
// and the job runner.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	migrator := migrations.NewMigrator(db.DB, logger)
	migrator.RegisterAll(migrations.AllMigrations())
	if err := migrator.Up(ctx); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	jobRepo := repository.NewJobRepository(db.DB)
	costRepo := repository.NewCostRepository(db.DB)

	store, err := artifact.NewStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing artifact store: %w", err)
	}

	toolchain, err := media.ResolveToolchain(
		cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.YtdlpPath)
	if err != nil {
		return nil, fmt.Errorf("resolving media toolchain: %w", err)
	}

	httpConfig := httpclient.DefaultConfig()
	httpConfig.Logger = logger
	httpConfig.UserAgent = version.UserAgent()
	client := httpclient.New(httpConfig)

	recognizer := recognize.NewGoogleRecognizer(cfg.Speech, client, logger)

	chunks := genai.ChunkOptions{
		Size:            cfg.Chunking.ChunkSize,
		Overlap:         cfg.Chunking.ChunkOverlap,
		MaxChunks:       cfg.Chunking.MaxChunks,
		SinglePassLimit: cfg.Chunking.SinglePassLimit,
	}
	factory := genai.NewGeminiFactory(cfg.GenAI.APIKey, "")
	postEditRunner := genai.NewRunner(factory, genai.RunnerOptions{
		Models:   genai.ResolveModels(cfg.GenAI.PostEditorModel, nil),
		Regions:  cfg.GenAI.Regions,
		Attempts: cfg.GenAI.RetryAttempts,
		Backoff:  cfg.GenAI.RetryBackoff,
		Logger:   logger,
	})
	translateRunner := genai.NewRunner(factory, genai.RunnerOptions{
		Models:   genai.ResolveModels(cfg.GenAI.TranslatorModel, nil),
		Regions:  cfg.GenAI.Regions,
		Attempts: cfg.GenAI.RetryAttempts,
		Backoff:  cfg.GenAI.RetryBackoff,
		Logger:   logger,
	})
	quality := genai.Quality(cfg.GenAI.Quality)
	postEditor := genai.NewPostEditor(postEditRunner, quality, chunks, logger)
	translator := genai.NewTranslator(translateRunner, chunks, logger)

	catalog, err := tts.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading voice catalog: %w", err)
	}
	registry := tts.NewRegistry(catalog, cfg.TTS.AutoCostFirst,
		tts.NewGoogleProvider(catalog, cfg.TTS.GoogleAPIKey, "", client, logger),
		tts.NewElevenLabsProvider(catalog, cfg.TTS.ElevenLabsAPIKey, "", client, logger),
	)

	deps := pipeline.Deps{
		Downloader: media.NewDownloader(toolchain, logger),
		Decoder:    media.NewDecoder(toolchain, logger),
		Muxer:      media.NewMuxer(toolchain, logger),
		Recognizer: recognizer,
		PostEditor: postEditor,
		Translator: translator,
		Quality:    quality,
		TTS:        registry,
		Catalog:    catalog,
		ChunkChars: cfg.TTS.ChunkChars,
		Workers:    cfg.TTS.Workers,
		Logger:     logger,
	}

	executor := scheduler.NewExecutor(jobRepo, costRepo, store, deps, scheduler.ExecutorConfig{
		DefaultLanguage: cfg.Speech.LanguageCode,
		MaxCostUSD:      cfg.Jobs.MaxCostUSD,
	}).WithLogger(logger)

	runner := scheduler.NewRunner(jobRepo, executor).
		WithConfig(scheduler.RunnerConfig{
			WorkerCount:  cfg.Jobs.MaxConcurrent,
			PollInterval: cfg.Jobs.PollInterval,
			JobTimeout:   cfg.Jobs.JobTimeout,
		}).
		WithLogger(logger)

	sweeper := scheduler.NewSweeper(jobRepo, costRepo, store, scheduler.SweeperConfig{
		Retention: cfg.Storage.ArtifactTTL.Duration(),
	}).WithLogger(logger)

	jobService := service.NewJobService(jobRepo, costRepo, store, registry).
		WithLogger(logger).
		WithRunner(runner)
	ttsService := service.NewTTSService(registry, catalog).WithLogger(logger)

	return &application{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		jobRepo:    jobRepo,
		costRepo:   costRepo,
		store:      store,
		catalog:    catalog,
		registry:   registry,
		runner:     runner,
		sweeper:    sweeper,
		jobService: jobService,
		ttsService: ttsService,
	}, nil
}

// close releases held resources.
func (a *application) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", slog.Any("error", err))
		}
	}
}
