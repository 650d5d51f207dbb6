package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

func TestWords(t *testing.T) {
	words := Words("ma este minden", 1.0, 0.3, 0.1)
	require.Len(t, words, 3)

	assert.Equal(t, "ma", words[0].Text)
	assert.InDelta(t, 1.0, words[0].Start, 1e-9)
	assert.InDelta(t, 1.3, words[0].End, 1e-9)
	assert.InDelta(t, 1.4, words[1].Start, 1e-9)
	assert.InDelta(t, 1.8, words[2].Start, 1e-9)
}

func TestTimelineBuilder(t *testing.T) {
	words := NewTimeline(0).
		Say("ma este.").
		Pause(GapParagraph).
		Say("minden megint").
		Words()

	require.Len(t, words, 4)

	// Paragraph gap lands between the sentences.
	gap := words[2].Start - words[1].End
	assert.InDelta(t, GapParagraph, gap, 1e-9)

	// Segmenter sees the gap as a paragraph break.
	tr, stats := transcript.Segment(words, transcript.SegmentOptions{BreathMarks: true})
	require.Len(t, tr.Paragraphs, 2)
	assert.Equal(t, 1, stats.ParagraphBreaks)
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGeneratorWithSeed(42).Timeline(10)
	b := NewGeneratorWithSeed(42).Timeline(10)
	assert.Equal(t, a, b)

	c := NewGeneratorWithSeed(43).Timeline(10)
	assert.NotEqual(t, a, c)
}

func TestGenerator_Sentence(t *testing.T) {
	g := NewGeneratorWithSeed(1)

	s := g.Sentence(5)
	assert.True(t, strings.HasSuffix(s, "."), "sentence ends with a period: %q", s)
	assert.Len(t, strings.Fields(s), 5)

	// Single-word floor
	assert.Len(t, strings.Fields(g.Sentence(0)), 1)
}

func TestGenerator_TimelineOrdering(t *testing.T) {
	// Nine sentences put paragraph gaps after the fourth and eighth, each
	// followed by more speech.
	words := NewGeneratorWithSeed(7).Timeline(9)
	require.NotEmpty(t, words)

	for i, w := range words {
		assert.Less(t, w.Start, w.End, "word %d has positive duration", i)
		assert.GreaterOrEqual(t, w.Confidence, 0.8)
		assert.LessOrEqual(t, w.Confidence, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, w.Start, words[i-1].End, "word %d starts after the previous ends", i)
		}
	}

	// Every fourth sentence boundary is a paragraph gap.
	_, stats := transcript.Segment(words, transcript.SegmentOptions{BreathMarks: true})
	assert.Equal(t, 2, stats.ParagraphBreaks)
}

func TestGenerator_Transcript(t *testing.T) {
	tr := NewGeneratorWithSeed(3).Transcript(2, 3)

	require.Len(t, tr.Paragraphs, 2)
	assert.Len(t, tr.Paragraphs[0], 3)
	assert.Equal(t, "Sample recording", tr.Header.Title)

	// Timestamps advance monotonically across the whole transcript.
	last := -1
	for _, para := range tr.Paragraphs {
		for _, line := range para {
			assert.Greater(t, line.Seconds, last)
			last = line.Seconds
		}
	}
}

func TestGenerator_ScriptTextParses(t *testing.T) {
	text := NewGeneratorWithSeed(9).ScriptText(6)

	tr, err := transcript.Parse(strings.NewReader(text))
	require.NoError(t, err)

	total := 0
	for _, para := range tr.Paragraphs {
		total += len(para)
	}
	assert.Equal(t, 6, total)
}
