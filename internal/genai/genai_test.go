package genai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

type scriptedClient struct {
	generate func(prompt string) (string, error)
}

func (c *scriptedClient) Generate(_ context.Context, prompt string, _ GenConfig) (string, error) {
	return c.generate(prompt)
}

// pairFactory builds a factory whose behavior is keyed by "model@region".
func pairFactory(calls *[]string, behavior map[string]func(string) (string, error)) ClientFactory {
	return func(model, region string) (Client, error) {
		key := model + "@" + region
		*calls = append(*calls, key)
		fn, ok := behavior[key]
		if !ok {
			fn = func(string) (string, error) { return "", errors.New("boom") }
		}
		return &scriptedClient{generate: fn}, nil
	}
}

func fastRunner(factory ClientFactory, models, regions []string) *Runner {
	return NewRunner(factory, RunnerOptions{
		Models:   models,
		Regions:  regions,
		Attempts: 2,
		Backoff:  time.Millisecond,
	})
}

func TestResolveModels(t *testing.T) {
	assert.Equal(t, DefaultModelOrder, ResolveModels("auto", nil))
	assert.Equal(t, DefaultModelOrder, ResolveModels("", nil))
	assert.Equal(t, DefaultModelOrder, ResolveModels("auto-detect", nil))
	assert.Equal(t, []string{"m1"}, ResolveModels("auto", []string{"m1"}))
	assert.Equal(t, []string{"gemini-1.5-pro"}, ResolveModels("gemini-1.5-pro", []string{"m1"}))
}

func TestQualityConfig(t *testing.T) {
	assert.Equal(t, GenConfig{Temperature: 0.1, TopP: 0.8, MaxTokens: 8192}, QualityFast.Config())
	assert.Equal(t, GenConfig{Temperature: 0.2, TopP: 0.85, MaxTokens: 8192}, QualityBalanced.Config())
	assert.Equal(t, GenConfig{Temperature: 0.3, TopP: 0.9, MaxTokens: 8192}, QualityHigh.Config())
	assert.Equal(t, QualityBalanced.Config(), Quality("bogus").Config())
}

func TestRunner_FirstPairWins(t *testing.T) {
	var calls []string
	factory := pairFactory(&calls, map[string]func(string) (string, error){
		"m1@r1": func(string) (string, error) { return "out", nil },
	})
	r := fastRunner(factory, []string{"m1", "m2"}, []string{"r1", "r2"})

	res, err := r.Generate(context.Background(), "p", GenConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "out", res.Text)
	assert.Equal(t, "m1", res.Model)
	assert.Equal(t, "r1", res.Region)
	assert.Equal(t, "m1@r1", res.ModelTag())
	assert.Equal(t, []string{"m1@r1"}, calls)
}

func TestRunner_ModelNotFoundAdvancesModel(t *testing.T) {
	var calls []string
	factory := pairFactory(&calls, map[string]func(string) (string, error){
		"m1@r1": func(string) (string, error) { return "", errors.New("model m1 not found") },
		"m2@r1": func(string) (string, error) { return "out", nil },
	})
	r := fastRunner(factory, []string{"m1", "m2"}, []string{"r1", "r2"})

	res, err := r.Generate(context.Background(), "p", GenConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m2@r1", res.ModelTag())
	// model-not-found is not retried on the same pair
	assert.Equal(t, []string{"m1@r1", "m2@r1"}, calls)
}

func TestRunner_RegionUnavailableAdvancesRegion(t *testing.T) {
	var calls []string
	factory := pairFactory(&calls, map[string]func(string) (string, error){
		"m1@r1": func(string) (string, error) { return "", errors.New("region r1 is unavailable") },
		"m1@r2": func(string) (string, error) { return "out", nil },
	})
	r := fastRunner(factory, []string{"m1", "m2"}, []string{"r1", "r2"})

	res, err := r.Generate(context.Background(), "p", GenConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m1@r2", res.ModelTag())
	// m2@r1 skipped: the whole region was abandoned
	assert.Equal(t, []string{"m1@r1", "m1@r2"}, calls)
}

func TestRunner_TransientRetriesSamePair(t *testing.T) {
	var calls []string
	n := 0
	factory := pairFactory(&calls, map[string]func(string) (string, error){
		"m1@r1": func(string) (string, error) {
			n++
			if n == 1 {
				return "", errors.New("connection reset")
			}
			return "out", nil
		},
	})
	r := fastRunner(factory, []string{"m1"}, []string{"r1"})

	res, err := r.Generate(context.Background(), "p", GenConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "out", res.Text)
	assert.Equal(t, []string{"m1@r1", "m1@r1"}, calls)
}

func TestRunner_AllExhausted(t *testing.T) {
	var calls []string
	factory := pairFactory(&calls, nil)
	r := fastRunner(factory, []string{"m1"}, []string{"r1"})

	_, err := r.Generate(context.Background(), "p", GenConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindTransientRemote, models.KindOf(err))
}

func TestRunner_ValidationFailureMovesOn(t *testing.T) {
	var calls []string
	factory := pairFactory(&calls, map[string]func(string) (string, error){
		"m1@r1": func(string) (string, error) { return "bad", nil },
		"m2@r1": func(string) (string, error) { return "good", nil },
	})
	r := fastRunner(factory, []string{"m1", "m2"}, []string{"r1"})

	validate := func(s string) error {
		if s != "good" {
			return fmt.Errorf("rejected %q", s)
		}
		return nil
	}
	res, err := r.Generate(context.Background(), "p", GenConfig{}, validate)
	require.NoError(t, err)
	assert.Equal(t, "good", res.Text)
	// validation failures are retried on the pair before moving on
	assert.Equal(t, []string{"m1@r1", "m1@r1", "m2@r1"}, calls)
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	factory := pairFactory(&calls, nil)
	r := fastRunner(factory, []string{"m1", "m2"}, []string{"r1"})

	_, err := r.Generate(ctx, "p", GenConfig{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err  error
		want failureClass
	}{
		{errors.New("model gemini-x not found"), failModel},
		{errors.New("this model is deprecated"), failModel},
		{errors.New("region us-x is unavailable"), failRegion},
		{errors.New("location not supported"), failRegion},
		{errors.New("quota exceeded for project"), failQuota},
		{errors.New("http 429 too many requests"), failQuota},
		{errors.New("connection reset by peer"), failTransient},
		{models.NewJobError(models.ErrorKindQuotaExceeded, "", "q"), failQuota},
		{models.NewJobError(models.ErrorKindTransientNetwork, "", "n"), failTransient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyFailure(tt.err), "error: %v", tt.err)
	}
}

func TestJitteredBackoff(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := jitteredBackoff(time.Second, attempt)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, maxRetryBackoff+maxRetryBackoff/4)
	}
}
