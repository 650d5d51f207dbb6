package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/service"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

// TTSHandler handles synthesis catalog endpoints.
type TTSHandler struct {
	ttsService *service.TTSService
}

// NewTTSHandler creates a new TTS handler.
func NewTTSHandler(ttsService *service.TTSService) *TTSHandler {
	return &TTSHandler{ttsService: ttsService}
}

// Register registers the TTS routes with the API.
func (h *TTSHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listTTSProviders",
		Method:      "GET",
		Path:        "/v1/tts-providers",
		Summary:     "List synthesis providers",
		Description: "Returns the configured TTS providers and their catalog sizes",
		Tags:        []string{"TTS"},
	}, h.ListProviders)

	huma.Register(api, huma.Operation{
		OperationID: "listTTSVoices",
		Method:      "GET",
		Path:        "/v1/tts-providers/{id}/voices",
		Summary:     "List provider voices",
		Description: "Returns a provider's voices, optionally filtered by language",
		Tags:        []string{"TTS"},
	}, h.ListVoices)

	huma.Register(api, huma.Operation{
		OperationID: "compareTTSCosts",
		Method:      "GET",
		Path:        "/v1/tts-cost-comparison",
		Summary:     "Compare synthesis costs",
		Description: "Quotes every provider able to speak the language and recommends the cheapest",
		Tags:        []string{"TTS"},
	}, h.CompareCosts)
}

// ListProvidersInput is the (empty) input for listing providers.
type ListProvidersInput struct{}

// ListProvidersOutput is the output for listing providers.
type ListProvidersOutput struct {
	Body struct {
		Providers []service.ProviderInfo `json:"providers"`
	}
}

// ListProviders returns the configured providers.
func (h *TTSHandler) ListProviders(ctx context.Context, input *ListProvidersInput) (*ListProvidersOutput, error) {
	resp := &ListProvidersOutput{}
	resp.Body.Providers = h.ttsService.Providers()
	return resp, nil
}

// ListVoicesInput is the input for listing a provider's voices.
type ListVoicesInput struct {
	ID       string `path:"id" doc:"Provider ID" example:"google"`
	Language string `query:"language" doc:"Filter by BCP-47 language" example:"en-US"`
}

// ListVoicesOutput is the output for listing a provider's voices.
type ListVoicesOutput struct {
	Body struct {
		Provider string             `json:"provider"`
		Voices   []tts.VoiceProfile `json:"voices"`
	}
}

// ListVoices returns a provider's voices.
func (h *TTSHandler) ListVoices(ctx context.Context, input *ListVoicesInput) (*ListVoicesOutput, error) {
	voices, err := h.ttsService.Voices(ctx, input.ID, input.Language)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &ListVoicesOutput{}
	resp.Body.Provider = input.ID
	resp.Body.Voices = voices
	return resp, nil
}

// CompareCostsInput is the input for the cost comparison endpoint.
type CompareCostsInput struct {
	Text     string `query:"text" required:"true" doc:"Text to price"`
	Language string `query:"language" doc:"BCP-47 synthesis language" example:"en-US"`
}

// CompareCostsOutput is the output for the cost comparison endpoint.
type CompareCostsOutput struct {
	Body service.CostComparison
}

// CompareCosts prices the text against every capable provider.
func (h *TTSHandler) CompareCosts(ctx context.Context, input *CompareCostsInput) (*CompareCostsOutput, error) {
	cmp, err := h.ttsService.CompareCosts(input.Text, input.Language)
	if err != nil {
		return nil, apiError(err)
	}
	return &CompareCostsOutput{Body: *cmp}, nil
}
