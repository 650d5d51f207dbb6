// Package genai drives the generative-model calls for transcript
// post-editing and translation. A single fallback runner iterates
// (region, model) pairs region-major with jittered retries, so both
// clients share one policy and differ only in their prompts.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// ModelAuto expands to the ordered candidate model list.
const ModelAuto = "auto"

// DefaultModelOrder is the fallback candidate order: current fast models
// first, then legacy models.
var DefaultModelOrder = []string{
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"gemini-pro",
}

// DefaultRegions is the ordered regional fallback list.
var DefaultRegions = []string{"us-central1", "us-east1", "us-west1", "europe-west4"}

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = time.Second
	maxRetryBackoff      = 30 * time.Second
	maxOutputTokens      = 8192
)

// Quality selects a generation preset.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityHigh     Quality = "high"
)

// GenConfig holds generation parameters for one call.
type GenConfig struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Config returns the generation parameters for a quality preset. Unknown
// values fall back to balanced.
func (q Quality) Config() GenConfig {
	switch q {
	case QualityFast:
		return GenConfig{Temperature: 0.1, TopP: 0.8, MaxTokens: maxOutputTokens}
	case QualityHigh:
		return GenConfig{Temperature: 0.3, TopP: 0.9, MaxTokens: maxOutputTokens}
	default:
		return GenConfig{Temperature: 0.2, TopP: 0.85, MaxTokens: maxOutputTokens}
	}
}

// ResolveModels expands a requested model id into the candidate list.
// Empty, "auto" and "auto-detect" expand to candidates (or DefaultModelOrder
// when candidates is empty); anything else is used as-is.
func ResolveModels(requested string, candidates []string) []string {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "", ModelAuto, "auto-detect":
		if len(candidates) > 0 {
			return candidates
		}
		return DefaultModelOrder
	default:
		return []string{requested}
	}
}

// Client generates one completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string, cfg GenConfig) (string, error)
}

// ClientFactory builds a Client bound to one (model, region) pair.
type ClientFactory func(model, region string) (Client, error)

// NewGeminiFactory returns a ClientFactory backed by the any-llm-go gemini
// provider, pointed at a regional endpoint when region is non-empty.
func NewGeminiFactory(apiKey, endpoint string) ClientFactory {
	return func(model, region string) (Client, error) {
		var opts []anyllm.Option
		if apiKey != "" {
			opts = append(opts, anyllm.WithAPIKey(apiKey))
		}
		if endpoint != "" {
			opts = append(opts, anyllm.WithBaseURL(strings.ReplaceAll(endpoint, "{region}", region)))
		}
		backend, err := gemini.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return &geminiClient{backend: backend, model: model}, nil
	}
}

type geminiClient struct {
	backend anyllm.Provider
	model   string
}

func (c *geminiClient) Generate(ctx context.Context, prompt string, cfg GenConfig) (string, error) {
	params := anyllm.CompletionParams{
		Model: c.model,
		Messages: []anyllm.Message{
			{Role: anyllm.RoleUser, Content: prompt},
		},
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		params.Temperature = &t
	}
	if cfg.MaxTokens > 0 {
		mt := cfg.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := c.backend.Completion(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.ContentString()), nil
}

// Runner iterates (region, model) pairs region-major until a call succeeds
// and validates.
type Runner struct {
	factory  ClientFactory
	models   []string
	regions  []string
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// RunnerOptions configures a Runner. Zero values use defaults.
type RunnerOptions struct {
	Models   []string
	Regions  []string
	Attempts int
	Backoff  time.Duration
	Logger   *slog.Logger
}

// NewRunner creates a fallback runner.
func NewRunner(factory ClientFactory, opts RunnerOptions) *Runner {
	r := &Runner{
		factory:  factory,
		models:   opts.Models,
		regions:  opts.Regions,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		logger:   opts.Logger,
	}
	if len(r.models) == 0 {
		r.models = DefaultModelOrder
	}
	if len(r.regions) == 0 {
		r.regions = DefaultRegions
	}
	if r.attempts <= 0 {
		r.attempts = defaultRetryAttempts
	}
	if r.backoff <= 0 {
		r.backoff = defaultRetryBackoff
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// WithModels returns a copy of the runner that tries the given models
// instead, keeping the region order and retry budget.
func (r *Runner) WithModels(models []string) *Runner {
	if len(models) == 0 {
		return r
	}
	derived := *r
	derived.models = models
	return &derived
}

// Result carries a successful generation and the (region, model) pair that
// produced it.
type Result struct {
	Text   string
	Model  string
	Region string
}

// ModelTag renders the winning pair as model@region for artifact headers.
func (r *Result) ModelTag() string {
	return r.Model + "@" + r.Region
}

// Generate runs the fallback loop. validate may be nil; when it returns an
// error the response is treated as a transient failure on that pair.
func (r *Runner) Generate(ctx context.Context, prompt string, cfg GenConfig, validate func(string) error) (*Result, error) {
	var lastErr error

regions:
	for _, region := range r.regions {
		for _, model := range r.models {
			text, err := r.tryPair(ctx, region, model, prompt, cfg, validate)
			if err == nil {
				return &Result{Text: text, Model: model, Region: region}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err

			switch classifyFailure(err) {
			case failRegion:
				r.logger.Warn("region unavailable, moving on",
					slog.String("region", region), slog.String("error", err.Error()))
				continue regions
			case failModel:
				r.logger.Debug("model unavailable, moving on",
					slog.String("model", model), slog.String("region", region))
			default:
				r.logger.Warn("generation attempt exhausted",
					slog.String("model", model), slog.String("region", region),
					slog.String("error", err.Error()))
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no (region, model) pairs configured")
	}
	return nil, models.WrapJobError(models.ErrorKindTransientRemote, "",
		fmt.Errorf("all model fallbacks exhausted: %w", lastErr))
}

// tryPair attempts one (region, model) pair with bounded jittered retries.
func (r *Runner) tryPair(ctx context.Context, region, model, prompt string, cfg GenConfig, validate func(string) error) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		client, err := r.factory(model, region)
		if err != nil {
			return "", err
		}

		text, err := client.Generate(ctx, prompt, cfg)
		if err == nil && validate != nil {
			err = validate(text)
		}
		if err == nil {
			return text, nil
		}
		lastErr = err

		switch classifyFailure(err) {
		case failModel, failRegion:
			return "", err
		}
		if attempt < r.attempts {
			if werr := wait(ctx, jitteredBackoff(r.backoff, attempt)); werr != nil {
				return "", werr
			}
		}
	}
	return "", lastErr
}

// jitteredBackoff returns base*2^(attempt-1) capped, with up to 25% jitter.
func jitteredBackoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type failureClass int

const (
	failTransient failureClass = iota
	failModel
	failRegion
	failQuota
)

// classifyFailure buckets a remote error for the fallback loop. JobError
// kinds are honored first; otherwise the message is sniffed the way the
// remote surfaces these conditions.
func classifyFailure(err error) failureClass {
	switch models.KindOf(err) {
	case models.ErrorKindQuotaExceeded:
		return failQuota
	case models.ErrorKindTransientNetwork, models.ErrorKindTransientRemote:
		return failTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found") && strings.Contains(msg, "model"),
		strings.Contains(msg, "model_not_found"),
		strings.Contains(msg, "deprecated"):
		return failModel
	case strings.Contains(msg, "region") && strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "location not supported"):
		return failRegion
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "429"):
		return failQuota
	default:
		return failTransient
	}
}
