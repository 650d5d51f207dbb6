// Package main provides an E2E test runner for validating the yts API.
// This binary tests the flow from job submission through status polling,
// cancellation, deletion, and the TTS catalog endpoints against a real
// server process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	var (
		binaryPath  = flag.String("binary", "", "Path to yts binary (if set, starts managed server on random port)")
		baseURL     = flag.String("base-url", "", "yts API base URL (ignored if -binary is set)")
		verbose     = flag.Bool("verbose", true, "Enable verbose output")
		timeout     = flag.Duration("timeout", DefaultTimeout, "Overall test timeout")
		outputDir   = flag.String("output-dir", "", "Directory to write fetched artifacts (transcripts)")
		showSamples = flag.Bool("show-samples", true, "Display sample transcript lines to stdout")
		captureLogs = flag.Bool("capture-logs", true, "Capture yts stdout/stderr to logs/ directory")

		// Live pipeline testing flags. The full pipeline calls external
		// services, so it only runs when a source is given and the
		// recognition credentials are in the environment.
		sourceURL = flag.String("source-url", "", "Video URL for a live transcription run (requires YTS_SPEECH_API_KEY)")
		workers   = flag.Int("workers", 2, "Worker count for the managed server")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var server *ManagedServer
	var effectiveBaseURL string
	var logFiles *LogFiles

	// Set up log file capture if enabled
	if *captureLogs {
		var err error
		logFiles, err = SetupLogFiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to setup log files: %v\n", err)
			os.Exit(1)
		}
		defer logFiles.Close()
		fmt.Printf("Log capture enabled: %s\n", logFiles.Dir())
	}

	// If binary path is provided, start a managed server
	if *binaryPath != "" {
		// The server refuses to boot without the media toolchain, so a
		// machine without it skips the run instead of failing it.
		if missing := missingMediaTools(); len(missing) > 0 {
			fmt.Printf("SKIP: media toolchain not found (%s); cannot start yts\n",
				strings.Join(missing, ", "))
			os.Exit(0)
		}

		var err error
		server, err = NewManagedServer(*binaryPath, *workers, logFiles)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create managed server: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("yts E2E Test Runner (Managed Mode)")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Binary:          %s\n", *binaryPath)
		fmt.Printf("Port:            %d (random, never 8080)\n", server.Port())
		fmt.Printf("Data Directory:  %s\n", server.DataDir())
		fmt.Printf("Workers:         %d\n", *workers)
		fmt.Printf("Timeout:         %v\n", *timeout)
		if *sourceURL != "" {
			fmt.Printf("Source URL:      %s\n", *sourceURL)
		}
		if *outputDir != "" {
			fmt.Printf("Output Directory: %s\n", *outputDir)
		}
		fmt.Printf("Show Samples:    %v\n", *showSamples)
		fmt.Printf("Capture Logs:    %v\n", *captureLogs)
		fmt.Println()

		fmt.Printf("Starting server on port %d...\n", server.Port())
		if err := server.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Server ready")
		fmt.Println()

		defer func() {
			fmt.Println("\nCleaning up...")
			server.Stop()
			fmt.Printf("Stopped server (port %d)\n", server.Port())
			fmt.Printf("Removed %s\n", server.DataDir())
		}()

		effectiveBaseURL = server.BaseURL()
	} else {
		// Legacy mode: connect to existing server
		if *baseURL == "" {
			*baseURL = "http://localhost:8080"
		}
		effectiveBaseURL = *baseURL

		fmt.Println("yts E2E Test Runner")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Base URL:        %s\n", effectiveBaseURL)
		fmt.Printf("Timeout:         %v\n", *timeout)
		if *sourceURL != "" {
			fmt.Printf("Source URL:      %s\n", *sourceURL)
		}
		if *outputDir != "" {
			fmt.Printf("Output Directory: %s\n", *outputDir)
		}
		fmt.Printf("Show Samples:    %v\n", *showSamples)
	}

	runner := NewE2ERunner(E2ERunnerOptions{
		BaseURL:     effectiveBaseURL,
		Verbose:     *verbose,
		OutputDir:   *outputDir,
		ShowSamples: *showSamples,
		SourceURL:   *sourceURL,
		Server:      server,
	})
	fmt.Printf("Run ID:          %s\n", runner.RunID())
	fmt.Println()
	_ = runner.Run(ctx)

	exitCode := runner.PrintSummary()

	// Ensure stdout is flushed before exit (helps when piped)
	os.Stdout.Sync()
	os.Stderr.Sync()

	os.Exit(exitCode)
}
