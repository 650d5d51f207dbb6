package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

// TTSService answers catalog queries: available providers, their voices,
// and cost comparisons for a given text.
type TTSService struct {
	registry *tts.Registry
	catalog  *tts.Catalog
	logger   *slog.Logger
}

// NewTTSService creates a new TTSService.
func NewTTSService(registry *tts.Registry, catalog *tts.Catalog) *TTSService {
	return &TTSService{
		registry: registry,
		catalog:  catalog,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (s *TTSService) WithLogger(logger *slog.Logger) *TTSService {
	s.logger = logger
	return s
}

// ProviderInfo describes one configured synthesis provider.
type ProviderInfo struct {
	ID         string  `json:"id"`
	VoiceCount int     `json:"voice_count"`
	MaxBreakS  float64 `json:"max_break_s"`
}

// Providers lists the configured providers in deterministic order.
func (s *TTSService) Providers() []ProviderInfo {
	var out []ProviderInfo
	for _, p := range s.registry.List() {
		out = append(out, ProviderInfo{
			ID:         p.ID(),
			VoiceCount: len(s.catalog.Voices(p.ID(), "")),
			MaxBreakS:  s.catalog.MaxBreak(p.ID()),
		})
	}
	return out
}

// Voices lists a provider's voices, optionally filtered by language.
func (s *TTSService) Voices(ctx context.Context, providerID, lang string) ([]tts.VoiceProfile, error) {
	provider, ok := s.registry.Get(providerID)
	if !ok {
		return nil, models.NewJobError(models.ErrorKindNotFound, "",
			fmt.Sprintf("tts provider %q not found", providerID))
	}
	return provider.ListVoices(ctx, lang)
}

// CostQuote is one provider's price for synthesizing a text.
type CostQuote struct {
	Provider  string  `json:"provider"`
	Voice     string  `json:"voice"`
	Tier      string  `json:"tier"`
	AmountUSD float64 `json:"amount_usd"`
}

// CostComparison holds per-provider quotes and the cheapest option.
type CostComparison struct {
	Characters  int        `json:"characters"`
	Quotes      []CostQuote `json:"quotes"`
	Recommended string      `json:"recommended"`
}

// CompareCosts quotes every provider able to speak the language and names
// the cheapest. Quotes come from the embedded rate cards; no provider API
// is called.
func (s *TTSService) CompareCosts(text, lang string) (*CostComparison, error) {
	if text == "" {
		return nil, models.NewJobError(models.ErrorKindInvalidRequest, "", "text is required")
	}

	cmp := &CostComparison{Characters: len([]rune(text))}
	for _, p := range s.registry.List() {
		_, voice, err := s.registry.Select(tts.VoiceSpec{Provider: p.ID(), Language: lang})
		if err != nil {
			continue
		}
		cmp.Quotes = append(cmp.Quotes, CostQuote{
			Provider:  p.ID(),
			Voice:     voice.ID,
			Tier:      voice.Tier,
			AmountUSD: p.Quote(text, voice),
		})
	}
	if len(cmp.Quotes) == 0 {
		return nil, models.NewJobError(models.ErrorKindUnsupportedLanguage, "",
			fmt.Sprintf("no provider has a voice for %q", lang))
	}

	best := cmp.Quotes[0]
	for _, q := range cmp.Quotes[1:] {
		if q.AmountUSD < best.AmountUSD {
			best = q
		}
	}
	cmp.Recommended = best.Provider
	return cmp, nil
}
