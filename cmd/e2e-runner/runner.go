package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// E2ERunner runs the E2E test suite.
type E2ERunner struct {
	client      *APIClient
	verbose     bool
	results     []TestResult
	runID       string         // Unique ID for this test run
	outputDir   string         // Directory to write fetched artifacts
	showSamples bool           // Display sample transcript lines to stdout
	sourceURL   string         // Video URL for the live pipeline test ("" skips it)
	server      *ManagedServer // Reference to managed server for log validation

	// Progress timeline collected while polling jobs
	progressMu    sync.Mutex
	progressOrder []string
	progressLabel map[string]string
	progress      map[string][]ProgressSample

	// Test state - shared between test files
	FailedJobID string
	LiveJobID   string
	Transcript  string
}

// NewE2ERunner creates a new E2E runner.
func NewE2ERunner(opts E2ERunnerOptions) *E2ERunner {
	// Generate a unique run ID using timestamp
	runID := fmt.Sprintf("%d", time.Now().UnixNano())
	return &E2ERunner{
		client:        NewAPIClient(opts.BaseURL),
		verbose:       opts.Verbose,
		runID:         runID,
		outputDir:     opts.OutputDir,
		showSamples:   opts.ShowSamples,
		sourceURL:     opts.SourceURL,
		server:        opts.Server,
		progressLabel: make(map[string]string),
		progress:      make(map[string][]ProgressSample),
	}
}

// RunID returns the unique run ID for this test run.
func (r *E2ERunner) RunID() string {
	return r.runID
}

// log prints a message if verbose mode is enabled.
func (r *E2ERunner) log(format string, args ...interface{}) {
	if r.verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// runTestWithInfo executes a test with an info description and records the result.
func (r *E2ERunner) runTestWithInfo(name, info string, fn func() error) {
	start := time.Now()
	r.log("Running: %s", name)
	if info != "" {
		r.log("  [INFO] %s", info)
	}

	err := fn()
	elapsed := time.Since(start)

	result := TestResult{
		Name:    name,
		Passed:  err == nil,
		Elapsed: elapsed,
	}

	if err != nil {
		result.Message = err.Error()
		r.log("  FAILED: %s (%.2fs)", err.Error(), elapsed.Seconds())
	} else {
		result.Message = "OK"
		r.log("  PASSED (%.2fs)", elapsed.Seconds())
	}

	r.results = append(r.results, result)
}

// observeJob returns a polling callback that records a job's state changes
// for the progress timeline printed with the summary.
func (r *E2ERunner) observeJob(label, jobID string) func(*Job) {
	return func(job *Job) {
		r.progressMu.Lock()
		defer r.progressMu.Unlock()

		samples := r.progress[jobID]
		if len(samples) > 0 {
			last := samples[len(samples)-1]
			if last.Status == job.Status && last.Progress == job.Progress && last.Stage == job.CurrentStage {
				return
			}
		} else {
			r.progressOrder = append(r.progressOrder, jobID)
			r.progressLabel[jobID] = label
		}

		r.progress[jobID] = append(samples, ProgressSample{
			Time:     time.Now(),
			Status:   job.Status,
			Progress: job.Progress,
			Stage:    job.CurrentStage,
		})
	}
}

// Run executes the full E2E test suite.
func (r *E2ERunner) Run(ctx context.Context) error {
	r.runHealthTests(ctx)
	r.runTTSCatalogTests(ctx)
	r.runValidationTests(ctx)
	r.runLifecycleTests(ctx)
	r.runPipelineTests(ctx)
	return nil
}

// PrintSummary prints the test results summary.
func (r *E2ERunner) PrintSummary() int {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("E2E Test Results")
	fmt.Println(strings.Repeat("=", 60))

	passed := 0
	failed := 0
	var totalTime time.Duration

	for _, result := range r.results {
		status := "PASS"
		if !result.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		totalTime += result.Elapsed
		fmt.Printf("[%s] %s (%.2fs)\n", status, result.Name, result.Elapsed.Seconds())
		if !result.Passed {
			fmt.Printf("       Error: %s\n", result.Message)
		}
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total: %d tests, %d passed, %d failed (%.2fs)\n",
		len(r.results), passed, failed, totalTime.Seconds())

	r.printProgressTimelines()

	if failed > 0 {
		return 1
	}
	return 0
}

// printProgressTimelines prints the observed state changes of every job
// that was polled to a terminal state.
func (r *E2ERunner) printProgressTimelines() {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()

	if len(r.progressOrder) == 0 {
		return
	}

	fmt.Println("\nJob Progress Timeline")
	fmt.Println(strings.Repeat("-", 60))
	for _, jobID := range r.progressOrder {
		samples := r.progress[jobID]
		if len(samples) == 0 {
			continue
		}
		fmt.Printf("%s (%s)\n", r.progressLabel[jobID], jobID)
		start := samples[0].Time
		for _, s := range samples {
			stage := s.Stage
			if stage == "" {
				stage = "-"
			}
			fmt.Printf("  +%-8s %-10s %3d%%  %s\n",
				formatDuration(s.Time.Sub(start)), s.Status, s.Progress, stage)
		}
	}
}

// writeArtifact writes content to a file in the output directory.
func (r *E2ERunner) writeArtifact(filename, content string) error {
	if r.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(r.outputDir, filename)
	return os.WriteFile(path, []byte(content), 0644)
}

// printSampleTranscript displays the first lines of a fetched transcript.
func (r *E2ERunner) printSampleTranscript(content string) {
	fmt.Println("\n--- Sample Transcript (first 5 lines) ---")
	count := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Printf("  %s\n", truncateString(line, 100))
		count++
		if count >= 5 {
			break
		}
	}
	fmt.Println("---")
}
