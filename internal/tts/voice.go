// Package tts abstracts text-to-speech providers behind a common voice
// catalog, rate-card quoting and synthesis interface. Voice catalogs and
// prices are embedded so selection and quoting never need a network call.
package tts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed voices.yaml
var voicesYAML []byte

// Gender of a synthesis voice.
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderNeutral Gender = "neutral"
)

// Voice tiers, cheapest first. Provider-specific tier names map onto this
// scale for cross-provider comparison.
const (
	TierStandard = "standard"
	TierWavenet  = "wavenet"
	TierNeural2  = "neural2"
	TierPremium  = "premium"
)

// tierRank orders tiers by quality for nearest-match scoring.
var tierRank = map[string]int{
	TierStandard: 0,
	TierWavenet:  1,
	TierNeural2:  2,
	TierPremium:  3,
}

// VoiceProfile describes one synthesis voice with its list price.
type VoiceProfile struct {
	Provider   string  `json:"provider" yaml:"-"`
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name,omitempty" yaml:"name"`
	Language   string  `json:"language" yaml:"language"`
	Gender     Gender  `json:"gender" yaml:"gender"`
	Tier       string  `json:"tier" yaml:"tier"`
	Tone       string  `json:"tone,omitempty" yaml:"tone"`
	PricePer1K float64 `json:"price_per_1k_chars" yaml:"-"`
}

// catalogEntry is one provider's section of the embedded catalog.
type catalogEntry struct {
	DefaultVoices   map[string]string  `yaml:"default_voices"`
	MaxBreakSeconds float64            `yaml:"max_break_seconds"`
	Rates           map[string]float64 `yaml:"rates"`
	Voices          []VoiceProfile     `yaml:"voices"`
}

// Catalog is the parsed embedded voice catalog.
type Catalog struct {
	entries map[string]catalogEntry
}

// LoadCatalog parses the embedded voice catalog.
func LoadCatalog() (*Catalog, error) {
	var entries map[string]catalogEntry
	if err := yaml.Unmarshal(voicesYAML, &entries); err != nil {
		return nil, fmt.Errorf("parsing voice catalog: %w", err)
	}
	for provider, entry := range entries {
		for i := range entry.Voices {
			v := &entry.Voices[i]
			v.Provider = provider
			v.PricePer1K = entry.Rates[v.Tier]
		}
	}
	return &Catalog{entries: entries}, nil
}

// MustLoadCatalog panics on a malformed embedded catalog. The catalog ships
// with the binary, so a parse failure is a build defect.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Voices returns the catalog voices for a provider, optionally filtered by
// language, sorted by price then id for deterministic selection.
func (c *Catalog) Voices(provider, language string) []VoiceProfile {
	entry, ok := c.entries[provider]
	if !ok {
		return nil
	}
	var out []VoiceProfile
	for _, v := range entry.Voices {
		if language == "" || sameLanguage(v.Language, language) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PricePer1K != out[j].PricePer1K {
			return out[i].PricePer1K < out[j].PricePer1K
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Voice looks up a provider voice by id.
func (c *Catalog) Voice(provider, id string) (VoiceProfile, bool) {
	for _, v := range c.Voices(provider, "") {
		if v.ID == id {
			return v, true
		}
	}
	return VoiceProfile{}, false
}

// DefaultVoice returns the provider's default voice for a language.
func (c *Catalog) DefaultVoice(provider, language string) (VoiceProfile, bool) {
	entry, ok := c.entries[provider]
	if !ok {
		return VoiceProfile{}, false
	}
	for lang, id := range entry.DefaultVoices {
		if sameLanguage(lang, language) {
			return c.Voice(provider, id)
		}
	}
	return VoiceProfile{}, false
}

// Supports reports whether the provider has any voice for the language.
func (c *Catalog) Supports(provider, language string) bool {
	return len(c.Voices(provider, language)) > 0
}

// MaxBreak returns the provider's longest supported SSML break in seconds.
func (c *Catalog) MaxBreak(provider string) float64 {
	return c.entries[provider].MaxBreakSeconds
}

// Rate returns the provider's $/1k chars for a tier.
func (c *Catalog) Rate(provider, tier string) float64 {
	return c.entries[provider].Rates[tier]
}

// Providers lists the catalog provider ids, sorted.
func (c *Catalog) Providers() []string {
	out := make([]string, 0, len(c.entries))
	for p := range c.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// sameLanguage compares BCP-47 tags, falling back to the primary subtag so
// "en" matches "en-US".
func sameLanguage(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(primarySubtag(a), primarySubtag(b))
}

func primarySubtag(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return tag
}
