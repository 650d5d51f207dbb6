package tts

import (
	"context"
	"sync"
)

// MockProvider is an in-memory provider for tests and offline runs. Each
// synthesis call records the chunk and returns a fixed payload.
type MockProvider struct {
	ProviderID string
	Voices     []VoiceProfile
	Audio      []byte
	Err        error

	mu    sync.Mutex
	calls []Chunk
}

// NewMockProvider creates a mock with the given voices.
func NewMockProvider(id string, voices ...VoiceProfile) *MockProvider {
	return &MockProvider{ProviderID: id, Voices: voices, Audio: []byte("mp3")}
}

func (m *MockProvider) ID() string { return m.ProviderID }

func (m *MockProvider) ListVoices(ctx context.Context, language string) ([]VoiceProfile, error) {
	var out []VoiceProfile
	for _, v := range m.Voices {
		if language == "" || sameLanguage(v.Language, language) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockProvider) Quote(text string, voice VoiceProfile) float64 {
	return quoteByRate(text, voice)
}

func (m *MockProvider) Supports(language string) bool {
	for _, v := range m.Voices {
		if sameLanguage(v.Language, language) {
			return true
		}
	}
	return false
}

func (m *MockProvider) Synthesize(ctx context.Context, chunk Chunk, voice VoiceProfile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.calls = append(m.calls, chunk)
	m.mu.Unlock()
	return m.Audio, nil
}

// Calls returns the chunks synthesized so far.
func (m *MockProvider) Calls() []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Chunk, len(m.calls))
	copy(out, m.calls)
	return out
}
