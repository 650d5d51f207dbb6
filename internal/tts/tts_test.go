package tts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

func TestCatalogLoads(t *testing.T) {
	c := MustLoadCatalog()

	assert.Equal(t, []string{"elevenlabs", "google"}, c.Providers())

	v, ok := c.Voice("google", "hu-HU-Wavenet-A")
	require.True(t, ok)
	assert.Equal(t, "google", v.Provider)
	assert.Equal(t, TierWavenet, v.Tier)
	assert.InDelta(t, 0.016, v.PricePer1K, 0.0001)

	// Rates come from the tier table, not per voice.
	std, ok := c.Voice("google", "hu-HU-Standard-A")
	require.True(t, ok)
	assert.InDelta(t, 0.004, std.PricePer1K, 0.0001)
}

func TestCatalogVoicesSortedByPrice(t *testing.T) {
	c := MustLoadCatalog()
	voices := c.Voices("google", "hu-HU")
	require.NotEmpty(t, voices)
	for i := 1; i < len(voices); i++ {
		assert.LessOrEqual(t, voices[i-1].PricePer1K, voices[i].PricePer1K)
	}
}

func TestCatalogDefaultVoice(t *testing.T) {
	c := MustLoadCatalog()
	v, ok := c.DefaultVoice("google", "hu-HU")
	require.True(t, ok)
	assert.Equal(t, "hu-HU-Wavenet-A", v.ID)

	_, ok = c.DefaultVoice("google", "xx-XX")
	assert.False(t, ok)
}

func TestCatalogLanguageMatching(t *testing.T) {
	c := MustLoadCatalog()
	assert.True(t, c.Supports("google", "hu"))
	assert.True(t, c.Supports("google", "hu-HU"))
	assert.True(t, c.Supports("elevenlabs", "en-US"))
	assert.False(t, c.Supports("elevenlabs", "hu-HU"))
}

func newTestRegistry(costFirst bool) (*Registry, *Catalog) {
	c := MustLoadCatalog()
	google := NewMockProvider("google", c.Voices("google", "")...)
	eleven := NewMockProvider("elevenlabs", c.Voices("elevenlabs", "")...)
	return NewRegistry(c, costFirst, google, eleven), c
}

func TestSelectExplicitVoice(t *testing.T) {
	r, _ := newTestRegistry(true)

	p, v, err := r.Select(VoiceSpec{Provider: "google", VoiceID: "hu-HU-Wavenet-B", Language: "hu-HU"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.ID())
	assert.Equal(t, "hu-HU-Wavenet-B", v.ID)
}

func TestSelectExplicitMissingVoiceIsVoiceNotFound(t *testing.T) {
	r, _ := newTestRegistry(true)

	// No silent remap: the named voice must exist exactly.
	_, _, err := r.Select(VoiceSpec{Provider: "google", VoiceID: "hu-HU-Wavenet-Z", Language: "hu-HU"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindVoiceNotFound, models.KindOf(err))
}

func TestSelectExplicitVoiceWrongLanguage(t *testing.T) {
	r, _ := newTestRegistry(true)

	_, _, err := r.Select(VoiceSpec{Provider: "google", VoiceID: "de-DE-Wavenet-C", Language: "hu-HU"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindVoiceNotFound, models.KindOf(err))
}

func TestSelectUnknownProvider(t *testing.T) {
	r, _ := newTestRegistry(true)

	_, _, err := r.Select(VoiceSpec{Provider: "acme", VoiceID: "v1", Language: "hu-HU"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindInvalidRequest, models.KindOf(err))
}

func TestSelectAutoPicksCheapestProvider(t *testing.T) {
	r, _ := newTestRegistry(true)

	// google en-US default (0.016/1k) undercuts elevenlabs (0.30/1k).
	p, v, err := r.Select(VoiceSpec{Provider: ProviderAuto, Language: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.ID())
	assert.Equal(t, "en-US-Neural2-F", v.ID)
}

func TestSelectAutoUnsupportedLanguage(t *testing.T) {
	r, _ := newTestRegistry(true)

	_, _, err := r.Select(VoiceSpec{Provider: ProviderAuto, Language: "zz-ZZ"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindUnsupportedLanguage, models.KindOf(err))
}

func TestPickCandidateTierWithinCostBand(t *testing.T) {
	candidates := []VoiceProfile{
		{Provider: "a", ID: "a1", Tier: TierWavenet, PricePer1K: 0.016},
		{Provider: "b", ID: "b1", Tier: TierNeural2, PricePer1K: 0.017},
		{Provider: "c", ID: "c1", Tier: TierPremium, PricePer1K: 0.30},
	}

	// Cost first: strictly cheapest.
	assert.Equal(t, "a1", pickCandidate(append([]VoiceProfile{}, candidates...), true).ID)

	// Quality within the band: neural2 at +6% beats wavenet; premium is far
	// outside the band and loses despite the higher tier.
	assert.Equal(t, "b1", pickCandidate(append([]VoiceProfile{}, candidates...), false).ID)
}

func TestEquivalentVoiceReflexive(t *testing.T) {
	c := MustLoadCatalog()
	v, _ := c.Voice("google", "hu-HU-Wavenet-A")
	got, ok := c.EquivalentVoice(v, "google")
	require.True(t, ok)
	assert.Equal(t, v.ID, got.ID)
}

func TestEquivalentVoiceStaticTable(t *testing.T) {
	c := MustLoadCatalog()
	adam, ok := c.Voice("elevenlabs", "pNInz6obpgDQGcFmaJgB")
	require.True(t, ok)

	got, ok := c.EquivalentVoice(adam, "google")
	require.True(t, ok)
	assert.Equal(t, "en-US-Neural2-D", got.ID)

	// And back again.
	back, ok := c.EquivalentVoice(got, "elevenlabs")
	require.True(t, ok)
	assert.Equal(t, adam.ID, back.ID)
}

func TestEquivalentVoiceNearestMatch(t *testing.T) {
	c := MustLoadCatalog()
	sarah, ok := c.Voice("elevenlabs", "EXAVITQu4vr4xnSDxMaL")
	require.True(t, ok)

	got, ok := c.EquivalentVoice(sarah, "google")
	require.True(t, ok)
	// Static table maps Sarah directly; it must be female and English.
	assert.Equal(t, GenderFemale, got.Gender)
	assert.True(t, sameLanguage(got.Language, "en-US"))
}

func TestStripPauseMarks(t *testing.T) {
	assert.Equal(t, "jó napot kívánok",
		StripPauseMarks("jó napot • kívánok ••"))
	assert.Equal(t, "", StripPauseMarks("• ••"))
}

func TestBuildSSMLClampsBreak(t *testing.T) {
	seg := Segment{Text: "hello & <world>", GapToNext: 12}
	ssml := BuildSSML(seg, 5)

	assert.Contains(t, ssml, "<speak>")
	assert.Contains(t, ssml, "hello &amp; &lt;world&gt;")
	assert.Contains(t, ssml, `<break time="5000ms"/>`)

	noGap := BuildSSML(Segment{Text: "end"}, 5)
	assert.NotContains(t, noGap, "<break")
}

func TestSegmentsFromTranscript(t *testing.T) {
	script := &transcript.Transcript{
		Paragraphs: []transcript.Paragraph{
			{
				{Seconds: 0, Text: "első sor •"},
				{Seconds: 4, Text: "második sor"},
			},
			{
				{Seconds: 12, Text: "új bekezdés"},
			},
		},
	}

	segs := SegmentsFromTranscript(script)
	require.Len(t, segs, 3)

	assert.Equal(t, "első sor", segs[0].Text)
	assert.InDelta(t, 4, segs[0].GapToNext, 0.001)
	assert.False(t, segs[0].ParagraphEnd)

	assert.True(t, segs[1].ParagraphEnd)
	assert.InDelta(t, 8, segs[1].GapToNext, 0.001)

	assert.True(t, segs[2].ParagraphEnd)
	assert.InDelta(t, 0, segs[2].GapToNext, 0.001)
}

// orderedProvider returns distinguishable audio per chunk to verify
// concatenation order.
type orderedProvider struct {
	MockProvider
}

func (p *orderedProvider) Synthesize(ctx context.Context, chunk Chunk, voice VoiceProfile) ([]byte, error) {
	return []byte(fmt.Sprintf("[%s]", chunk.Plain)), nil
}

func TestSynthesizerZeroSegmentsNoOp(t *testing.T) {
	c := MustLoadCatalog()
	p := NewMockProvider("google")
	s := NewSynthesizer(p, VoiceProfile{}, c, 0, 0, nil)

	out, err := s.Synthesize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Audio)
	assert.Zero(t, out.Chunks)
	assert.Empty(t, p.Calls())
}

func TestSynthesizerOrderPreserved(t *testing.T) {
	c := MustLoadCatalog()
	p := &orderedProvider{}
	p.ProviderID = "google"
	s := NewSynthesizer(p, VoiceProfile{ID: "v"}, c, 10, 4, nil)

	segs := []Segment{
		{Text: "alpha long text", ParagraphEnd: true},
		{Text: "beta long text", ParagraphEnd: true},
		{Text: "gamma long text", ParagraphEnd: true},
	}

	out, err := s.Synthesize(context.Background(), segs)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Chunks)
	assert.Equal(t, "[alpha long text][beta long text][gamma long text]", string(out.Audio))
}

func TestSynthesizerGroupsBySize(t *testing.T) {
	c := MustLoadCatalog()
	p := NewMockProvider("google")
	s := NewSynthesizer(p, VoiceProfile{ID: "v"}, c, 20, 1, nil)

	segs := []Segment{
		{Text: "tizenkét kar"},
		{Text: "rövid"},
		{Text: "utolsó darab", ParagraphEnd: true},
	}

	out, err := s.Synthesize(context.Background(), segs)
	require.NoError(t, err)
	// 12+5 chars fit the 20-char budget; the third segment overflows it and
	// opens a new chunk.
	assert.Equal(t, 2, out.Chunks)

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[0].SSML, "<speak>"))
	assert.True(t, strings.HasSuffix(calls[0].SSML, "</speak>"))
}

func TestSynthesizerPadsParagraphGaps(t *testing.T) {
	c := MustLoadCatalog()
	p := NewMockProvider("google")
	s := NewSynthesizer(p, VoiceProfile{ID: "v"}, c, 1000, 1, nil)

	segs := []Segment{
		// 15s gap: 5s covered by the in-band break, 10s padded as silence.
		{Text: "bekezdés vége", GapToNext: 15, ParagraphEnd: true},
		{Text: "folytatás", ParagraphEnd: true},
	}

	out, err := s.Synthesize(context.Background(), segs)
	require.NoError(t, err)
	assert.Greater(t, len(out.Audio), 2*len(p.Audio), "silence frames expected between chunks")
}

func TestSynthesizerQuotaSurfaces(t *testing.T) {
	c := MustLoadCatalog()
	p := NewMockProvider("google")
	p.Err = models.NewJobError(models.ErrorKindQuotaExceeded, "synthesize", "quota exhausted")
	s := NewSynthesizer(p, VoiceProfile{ID: "v"}, c, 1000, 2, nil)

	_, err := s.Synthesize(context.Background(), []Segment{{Text: "valami", ParagraphEnd: true}})
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindQuotaExceeded, models.KindOf(err))
}

func TestQuoteByRate(t *testing.T) {
	v := VoiceProfile{PricePer1K: 0.016}
	assert.InDelta(t, 0.016, quoteByRate(strings.Repeat("a", 1000), v), 1e-9)
	assert.InDelta(t, 0.008, quoteByRate(strings.Repeat("á", 500), v), 1e-9, "runes, not bytes")
}
