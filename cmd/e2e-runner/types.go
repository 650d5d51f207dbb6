package main

import (
	"time"
)

// Server and client timeout constants for E2E runner.
const (
	// DefaultTimeout is the default timeout for E2E operations.
	DefaultTimeout = 5 * time.Minute

	// HealthCheckTimeout is the timeout for health check requests.
	HealthCheckTimeout = 2 * time.Second

	// ProcessKillTimeout is the time to wait before force-killing a process.
	ProcessKillTimeout = 5 * time.Second

	// StatusPollInterval is how often job status is polled while waiting
	// for a terminal state.
	StatusPollInterval = 2 * time.Second

	// FailedJobDeadline bounds how long a job that is expected to fail may
	// take to reach a terminal state. It covers one worker poll cycle plus
	// the downloader giving up on an unreachable source.
	FailedJobDeadline = 90 * time.Second

	// QueuePollInterval is the worker poll interval configured on the
	// managed server. It is deliberately long: jobs submitted between
	// polls stay queued, which makes the lifecycle tests deterministic.
	QueuePollInterval = 15 * time.Second
)

// TestResult represents the outcome of a single test.
type TestResult struct {
	Name    string
	Passed  bool
	Message string
	Elapsed time.Duration
}

// Job is the API representation of a job as seen by the E2E client.
type Job struct {
	ID           string      `json:"id"`
	Kind         string      `json:"kind"`
	Status       string      `json:"status"`
	Progress     int         `json:"progress"`
	CurrentStage string      `json:"current_stage"`
	VideoTitle   string      `json:"video_title"`
	CostUSD      float64     `json:"cost_usd"`
	EstimatedUSD float64     `json:"estimated_cost_usd"`
	Artifacts    []string    `json:"artifacts"`
	Error        *JobFailure `json:"error"`
	CreatedAt    string      `json:"created_at"`
	StartedAt    string      `json:"started_at"`
	CompletedAt  string      `json:"completed_at"`
	DurationMs   int64       `json:"duration_ms"`
}

// IsTerminal reports whether the job has finished.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// JobFailure is the structured error recorded on a failed job.
type JobFailure struct {
	Kind         string `json:"kind"`
	Stage        string `json:"stage"`
	Message      string `json:"message"`
	RemoteDetail string `json:"remote_detail"`
}

// JobList is the response of the job listing endpoint.
type JobList struct {
	Jobs       []Job `json:"jobs"`
	Pagination struct {
		Total  int64 `json:"total"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
	} `json:"pagination"`
}

// Stats is the response of the stats endpoint.
type Stats struct {
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`

	Runner *RunnerInfo `json:"runner"`
}

// RunnerInfo is the worker pool status reported by the server.
type RunnerInfo struct {
	Running     bool   `json:"running"`
	WorkerCount int    `json:"worker_count"`
	WorkerID    string `json:"worker_id"`
	QueuedJobs  int64  `json:"queued_jobs"`
	RunningJobs int64  `json:"running_jobs"`
}

// HealthInfo is the subset of the health response the tests assert on.
type HealthInfo struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Components struct {
		Database struct {
			Status string `json:"status"`
		} `json:"database"`
		Runner *RunnerInfo `json:"runner"`
		TTS    struct {
			ProvidersReady int      `json:"providers_ready"`
			Providers      []string `json:"providers"`
		} `json:"tts"`
	} `json:"components"`
}

// ProviderInfo describes one synthesis provider in the catalog listing.
type ProviderInfo struct {
	ID         string  `json:"id"`
	VoiceCount int     `json:"voice_count"`
	MaxBreakS  float64 `json:"max_break_s"`
}

// Voice is one entry of a provider's voice listing.
type Voice struct {
	Provider   string  `json:"provider"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Language   string  `json:"language"`
	Gender     string  `json:"gender"`
	Tier       string  `json:"tier"`
	PricePer1K float64 `json:"price_per_1k_chars"`
}

// CostQuote is one provider's price for a text.
type CostQuote struct {
	Provider  string  `json:"provider"`
	Voice     string  `json:"voice"`
	Tier      string  `json:"tier"`
	AmountUSD float64 `json:"amount_usd"`
}

// CostComparisonInfo is the response of the cost comparison endpoint.
type CostComparisonInfo struct {
	Characters  int         `json:"characters"`
	Quotes      []CostQuote `json:"quotes"`
	Recommended string      `json:"recommended"`
}

// ProgressSample is one observation of a job's state while polling.
type ProgressSample struct {
	Time     time.Time
	Status   string
	Progress int
	Stage    string
}

// E2ERunnerOptions holds configuration options for the E2E runner.
type E2ERunnerOptions struct {
	BaseURL     string
	Verbose     bool
	OutputDir   string
	ShowSamples bool
	SourceURL   string         // Video URL for the live pipeline test ("" skips it)
	Server      *ManagedServer // Reference to managed server for log validation
}
