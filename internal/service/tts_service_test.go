package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

func newTTSService(t *testing.T) *TTSService {
	t.Helper()
	env := newServiceEnv(t)
	return NewTTSService(env.registry, env.catalog).WithLogger(testLogger())
}

func TestProviders(t *testing.T) {
	svc := newTTSService(t)

	providers := svc.Providers()
	require.Len(t, providers, 2)
	// Registry order is deterministic (sorted by id)
	assert.Equal(t, "elevenlabs", providers[0].ID)
	assert.Equal(t, "google", providers[1].ID)
	assert.Greater(t, providers[1].VoiceCount, 0)
	assert.Greater(t, providers[1].MaxBreakS, 0.0)
}

func TestVoices(t *testing.T) {
	svc := newTTSService(t)
	ctx := context.Background()

	voices, err := svc.Voices(ctx, "google", "hu-HU")
	require.NoError(t, err)
	require.NotEmpty(t, voices)
	for _, v := range voices {
		assert.Equal(t, "hu-HU", v.Language)
	}

	_, err = svc.Voices(ctx, "acme", "")
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestCompareCosts(t *testing.T) {
	svc := newTTSService(t)

	cmp, err := svc.CompareCosts("hello there, how are you today", "en-US")
	require.NoError(t, err)
	require.Len(t, cmp.Quotes, 2)
	assert.Equal(t, 30, cmp.Characters)
	// Google neural2 is far cheaper than the elevenlabs premium tier
	assert.Equal(t, "google", cmp.Recommended)
	for _, q := range cmp.Quotes {
		assert.Greater(t, q.AmountUSD, 0.0)
	}
}

func TestCompareCostsSingleProviderLanguage(t *testing.T) {
	svc := newTTSService(t)

	// Only google carries Hungarian voices
	cmp, err := svc.CompareCosts("szia", "hu-HU")
	require.NoError(t, err)
	require.Len(t, cmp.Quotes, 1)
	assert.Equal(t, "google", cmp.Recommended)
}

func TestCompareCostsErrors(t *testing.T) {
	svc := newTTSService(t)

	_, err := svc.CompareCosts("", "en-US")
	assert.Equal(t, models.ErrorKindInvalidRequest, models.KindOf(err))

	_, err = svc.CompareCosts("jambo", "sw-KE")
	assert.Equal(t, models.ErrorKindUnsupportedLanguage, models.KindOf(err))
}
