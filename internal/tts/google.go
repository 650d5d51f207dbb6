package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

const (
	googleProviderID      = "google"
	defaultGoogleEndpoint = "https://texttospeech.googleapis.com/v1"
)

// GoogleProvider synthesizes speech through the cloud TTS REST API.
type GoogleProvider struct {
	catalog  *Catalog
	endpoint string
	apiKey   string
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewGoogleProvider creates the google provider. An empty endpoint uses the
// public API.
func NewGoogleProvider(catalog *Catalog, apiKey, endpoint string, client *httpclient.Client, logger *slog.Logger) *GoogleProvider {
	if endpoint == "" {
		endpoint = defaultGoogleEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleProvider{
		catalog:  catalog,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

func (p *GoogleProvider) ID() string { return googleProviderID }

func (p *GoogleProvider) ListVoices(ctx context.Context, language string) ([]VoiceProfile, error) {
	return p.catalog.Voices(googleProviderID, language), nil
}

func (p *GoogleProvider) Quote(text string, voice VoiceProfile) float64 {
	return quoteByRate(text, voice)
}

func (p *GoogleProvider) Supports(language string) bool {
	return p.catalog.Supports(googleProviderID, language)
}

type googleSynthesizeRequest struct {
	Input struct {
		SSML string `json:"ssml"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type googleSynthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

func (p *GoogleProvider) Synthesize(ctx context.Context, chunk Chunk, voice VoiceProfile) ([]byte, error) {
	var req googleSynthesizeRequest
	req.Input.SSML = chunk.SSML
	req.Voice.LanguageCode = voice.Language
	req.Voice.Name = voice.ID
	req.AudioConfig.AudioEncoding = "MP3"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text:synthesize?key=%s", p.endpoint, p.apiKey)
	resp, err := p.client.Post(ctx, url, body, map[string]string{
		"Content-Type": "application/json",
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

	var out googleSynthesizeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding synthesis response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio content: %w", err)
	}
	return audio, nil
}

// classifySynthesisError maps transport and backend failures onto job error
// kinds. Quota errors are never retried by callers; they surface as-is.
func classifySynthesisError(err error, status int, body string) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, httpclient.ErrQuotaExceeded) {
			return models.WrapJobError(models.ErrorKindQuotaExceeded, "synthesize", err)
		}
		return models.WrapJobError(models.ErrorKindTransientNetwork, "synthesize", err)
	}

	msg := fmt.Sprintf("synthesis backend returned %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return models.NewJobError(models.ErrorKindQuotaExceeded, "synthesize", msg).
			WithRemoteDetail(body)
	case status >= 500:
		return models.NewJobError(models.ErrorKindTransientRemote, "synthesize", msg).
			WithRemoteDetail(body)
	default:
		return models.NewJobError(models.ErrorKindInvalidRequest, "synthesize", msg).
			WithRemoteDetail(body)
	}
}
