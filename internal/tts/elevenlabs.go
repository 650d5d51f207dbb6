package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

const (
	elevenLabsProviderID      = "elevenlabs"
	defaultElevenLabsEndpoint = "https://api.elevenlabs.io/v1"
	elevenLabsModelID         = "eleven_multilingual_v2"
)

// ElevenLabsProvider synthesizes speech through the ElevenLabs REST API.
// The API takes plain text, so the chunk's plain rendering is used and
// timing gaps are handled by the assembler's silence padding.
type ElevenLabsProvider struct {
	catalog  *Catalog
	endpoint string
	apiKey   string
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewElevenLabsProvider creates the elevenlabs provider.
func NewElevenLabsProvider(catalog *Catalog, apiKey, endpoint string, client *httpclient.Client, logger *slog.Logger) *ElevenLabsProvider {
	if endpoint == "" {
		endpoint = defaultElevenLabsEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ElevenLabsProvider{
		catalog:  catalog,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

func (p *ElevenLabsProvider) ID() string { return elevenLabsProviderID }

func (p *ElevenLabsProvider) ListVoices(ctx context.Context, language string) ([]VoiceProfile, error) {
	return p.catalog.Voices(elevenLabsProviderID, language), nil
}

func (p *ElevenLabsProvider) Quote(text string, voice VoiceProfile) float64 {
	return quoteByRate(text, voice)
}

func (p *ElevenLabsProvider) Supports(language string) bool {
	return p.catalog.Supports(elevenLabsProviderID, language)
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, chunk Chunk, voice VoiceProfile) ([]byte, error) {
	body, err := json.Marshal(elevenLabsRequest{Text: chunk.Plain, ModelID: elevenLabsModelID})
	if err != nil {
		return nil, fmt.Errorf("encoding synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", p.endpoint, voice.ID)
	resp, err := p.client.Post(ctx, url, body, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "audio/mpeg",
		"xi-api-key":   p.apiKey,
	})
	if err != nil {
		return nil, classifySynthesisError(err, 0, "")
	}

	data, err := p.client.ReadBody(resp)
	if err != nil {
		return nil, classifySynthesisError(err, 0, "")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifySynthesisError(nil, resp.StatusCode, string(data))
	}
	return data, nil
}
