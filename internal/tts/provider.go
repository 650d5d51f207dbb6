package tts

import (
	"context"
	"fmt"
	"sort"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// ProviderAuto selects the provider and voice automatically.
const ProviderAuto = "auto"

// Chunk is one unit of synthesis work: marked-up text for providers that
// speak SSML and the plain rendering for those that do not.
type Chunk struct {
	SSML  string
	Plain string
}

// Provider is a text-to-speech backend.
type Provider interface {
	// ID returns the provider identifier used in requests and the catalog.
	ID() string
	// ListVoices returns the provider's voices, optionally filtered by
	// language. The catalog answers this without a network call.
	ListVoices(ctx context.Context, language string) ([]VoiceProfile, error)
	// Quote prices the text against the voice's rate card. No API call.
	Quote(text string, voice VoiceProfile) float64
	// Synthesize renders one chunk to MP3 audio.
	Synthesize(ctx context.Context, chunk Chunk, voice VoiceProfile) ([]byte, error)
	// Supports reports whether any voice covers the language.
	Supports(language string) bool
}

// quoteByRate is the shared rate-card pricing used by all providers.
func quoteByRate(text string, voice VoiceProfile) float64 {
	return float64(len([]rune(text))) / 1000 * voice.PricePer1K
}

// VoiceSpec names the requested provider and voice. Empty or "auto" fields
// are resolved by selection.
type VoiceSpec struct {
	Provider string
	VoiceID  string
	Language string
}

// Registry holds the configured providers and performs voice selection.
type Registry struct {
	providers map[string]Provider
	order     []string
	catalog   *Catalog
	// costFirst makes auto-selection pick the cheapest candidate outright.
	// When false, higher tiers win within the same cost band.
	costFirst bool
}

// costBandRatio bounds "same cost band": candidates priced within this
// factor of the cheapest compete on tier instead of price.
const costBandRatio = 1.15

// NewRegistry creates a registry over the given providers.
func NewRegistry(catalog *Catalog, costFirst bool, providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider, len(providers)),
		catalog:   catalog,
		costFirst: costFirst,
	}
	for _, p := range providers {
		r.providers[p.ID()] = p
		r.order = append(r.order, p.ID())
	}
	sort.Strings(r.order)
	return r
}

// Get returns a provider by id.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// List returns all providers in deterministic order.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// Select resolves a voice spec to a concrete provider and voice.
//
// An explicitly named voice must exist on the named provider: a miss is a
// VoiceNotFound error, never a silent remap. Auto mode picks the cheapest
// provider supporting the language; with costFirst disabled, higher voice
// tiers win within the same cost band.
func (r *Registry) Select(spec VoiceSpec) (Provider, VoiceProfile, error) {
	explicit := spec.Provider != "" && spec.Provider != ProviderAuto

	if explicit {
		p, ok := r.providers[spec.Provider]
		if !ok {
			return nil, VoiceProfile{}, models.NewJobError(models.ErrorKindInvalidRequest, "synthesize",
				fmt.Sprintf("unknown tts provider %q", spec.Provider))
		}
		if spec.VoiceID != "" {
			v, ok := r.catalog.Voice(spec.Provider, spec.VoiceID)
			if !ok {
				return nil, VoiceProfile{}, models.NewJobError(models.ErrorKindVoiceNotFound, "synthesize",
					fmt.Sprintf("voice %q not found on provider %q", spec.VoiceID, spec.Provider))
			}
			if spec.Language != "" && !sameLanguage(v.Language, spec.Language) {
				return nil, VoiceProfile{}, models.NewJobError(models.ErrorKindVoiceNotFound, "synthesize",
					fmt.Sprintf("voice %q does not speak %q", spec.VoiceID, spec.Language))
			}
			return p, v, nil
		}
		v, ok := r.pickForProvider(spec.Provider, spec.Language)
		if !ok {
			return nil, VoiceProfile{}, models.NewJobError(models.ErrorKindUnsupportedLanguage, "synthesize",
				fmt.Sprintf("provider %q has no voice for %q", spec.Provider, spec.Language))
		}
		return p, v, nil
	}

	// Auto mode: gather the best candidate of each provider supporting the
	// language, then compare across providers.
	var candidates []VoiceProfile
	for _, id := range r.order {
		if v, ok := r.pickForProvider(id, spec.Language); ok {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, VoiceProfile{}, models.NewJobError(models.ErrorKindUnsupportedLanguage, "synthesize",
			fmt.Sprintf("no provider has a voice for %q", spec.Language))
	}

	best := pickCandidate(candidates, r.costFirst)
	return r.providers[best.Provider], best, nil
}

// pickForProvider returns a provider's best voice for a language: the
// configured default when one exists, otherwise the cheapest catalog voice.
func (r *Registry) pickForProvider(provider, language string) (VoiceProfile, bool) {
	if v, ok := r.catalog.DefaultVoice(provider, language); ok {
		return v, true
	}
	voices := r.catalog.Voices(provider, language)
	if len(voices) == 0 {
		return VoiceProfile{}, false
	}
	return voices[0], true
}

// pickCandidate compares per-provider candidates. Cheapest wins; with
// costFirst disabled, the highest tier within the cost band wins.
func pickCandidate(candidates []VoiceProfile, costFirst bool) VoiceProfile {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].PricePer1K != candidates[j].PricePer1K {
			return candidates[i].PricePer1K < candidates[j].PricePer1K
		}
		return candidates[i].ID < candidates[j].ID
	})
	best := candidates[0]
	if costFirst {
		return best
	}
	band := best.PricePer1K * costBandRatio
	for _, c := range candidates[1:] {
		if c.PricePer1K <= band && tierRank[c.Tier] > tierRank[best.Tier] {
			best = c
		}
	}
	return best
}
