package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	internalhttp "github.com/w7-mgfcode/youtube-transcription-service-v1/internal/http"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/http/handlers"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/startup"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the yts server",
	Long: `Start the yts HTTP server and job runner.

The server provides:
- REST API for submitting and tracking transcription, translation and dub jobs
- TTS provider and voice listing with cost comparison
- Health check endpoint
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "yts.db", "Database file path")
	serveCmd.Flags().String("data-dir", "./data", "Data directory for artifacts and temp files")
	serveCmd.Flags().Int("workers", 5, "Maximum concurrent jobs")

	// Bind flags to viper
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	viper.BindPFlag("storage.base_dir", serveCmd.Flags().Lookup("data-dir"))
	viper.BindPFlag("jobs.max_concurrent", serveCmd.Flags().Lookup("workers"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	// Jobs left running by a dead process go back to the queue before any
	// worker of this process starts.
	recovered, err := startup.RequeueOrphanedJobs(ctx, logger, app.jobRepo)
	if err != nil {
		return fmt.Errorf("boot recovery: %w", err)
	}
	if recovered > 0 {
		logger.Info("recovered orphaned jobs on startup",
			slog.Int("recovered_count", recovered),
		)
	}

	// Initialize HTTP server
	server := internalhttp.NewServer(cfg.Server, logger, version.Version)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(version.Version).
		WithDB(app.db.DB).
		WithRunner(app.runner).
		WithRegistry(app.registry)
	healthHandler.Register(server.API())

	jobHandler := handlers.NewJobHandler(app.jobService)
	jobHandler.Register(server.API())

	ttsHandler := handlers.NewTTSHandler(app.ttsService)
	ttsHandler.Register(server.API())

	// Start background workers
	if err := app.runner.Start(ctx); err != nil {
		return fmt.Errorf("starting job runner: %w", err)
	}
	defer app.runner.Stop()

	if err := app.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("starting sweeper: %w", err)
	}
	defer app.sweeper.Stop()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting yts server",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}
