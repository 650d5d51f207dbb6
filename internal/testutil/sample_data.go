// Package testutil provides test utilities including sample data generation.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// Fictional filler vocabulary for generated speech. Generated sentences are
// grammatical nonsense on purpose: tests exercise timing and structure, not
// meaning. NEVER add real names or brands here.
var FillerWords = []string{
	"ma", "este", "reggel", "mindig", "éppen", "nagyon", "szépen",
	"lassan", "gyorsan", "valami", "minden", "semmi", "talán",
	"biztosan", "később", "korábban", "együtt", "megint", "azonnal",
	"közben", "aztán", "végül", "először", "persze", "amikor",
	"ahogy", "miért", "hogyan", "itt", "most",
}

// Gap presets in seconds, one per pause class of the segmenter.
const (
	GapNone      = 0.1
	GapShort     = 0.8
	GapLong      = 2.0
	GapParagraph = 3.5
)

// Words builds an evenly spaced word timeline from a space-separated
// sentence. Each word lasts wordDur seconds with gap seconds to the next.
func Words(text string, start, wordDur, gap float64) []transcript.Word {
	fields := strings.Fields(text)
	words := make([]transcript.Word, 0, len(fields))
	cursor := start
	for _, f := range fields {
		words = append(words, transcript.Word{
			Text:       f,
			Start:      cursor,
			End:        cursor + wordDur,
			Confidence: 0.95,
		})
		cursor += wordDur + gap
	}
	return words
}

// TimelineBuilder assembles a word timeline with explicit pause control.
// Time advances as words and pauses are appended.
type TimelineBuilder struct {
	cursor float64
	words  []transcript.Word
}

// NewTimeline starts a timeline at the given second.
func NewTimeline(start float64) *TimelineBuilder {
	return &TimelineBuilder{cursor: start}
}

// Say appends the sentence's words with 0.3s per word and 0.1s between
// words, below every pause threshold.
func (b *TimelineBuilder) Say(text string) *TimelineBuilder {
	return b.SayTimed(text, 0.3, GapNone)
}

// SayTimed appends the sentence's words with explicit timing.
func (b *TimelineBuilder) SayTimed(text string, wordDur, gap float64) *TimelineBuilder {
	for i, f := range strings.Fields(text) {
		if i > 0 {
			b.cursor += gap
		}
		b.words = append(b.words, transcript.Word{
			Text:       f,
			Start:      b.cursor,
			End:        b.cursor + wordDur,
			Confidence: 0.95,
		})
		b.cursor += wordDur
	}
	return b
}

// Pause advances the clock without emitting a word, producing a gap of the
// given class before whatever is said next.
func (b *TimelineBuilder) Pause(seconds float64) *TimelineBuilder {
	b.cursor += seconds
	return b
}

// Words returns the assembled timeline.
func (b *TimelineBuilder) Words() []transcript.Word {
	return b.words
}

// Generator produces random but realistic sample data for testing.
type Generator struct {
	rand *rand.Rand
}

// NewGenerator creates a sample data generator with a random seed.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed creates a generator with a fixed seed for
// reproducibility.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rand: rand.New(rand.NewSource(seed))}
}

// Sentence returns a fictional sentence of n filler words, capitalized and
// terminated with a period.
func (g *Generator) Sentence(n int) string {
	if n <= 0 {
		n = 1
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = FillerWords[g.rand.Intn(len(FillerWords))]
	}
	s := strings.Join(parts, " ")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + "."
}

// Timeline generates a word timeline of the given number of sentences.
// Word and gap durations vary within realistic speech bounds; every fourth
// sentence boundary is a paragraph-length silence.
func (g *Generator) Timeline(sentences int) []transcript.Word {
	var words []transcript.Word
	cursor := 0.0

	for s := 0; s < sentences; s++ {
		n := 4 + g.rand.Intn(6)
		fields := strings.Fields(g.Sentence(n))

		for i, f := range fields {
			if i > 0 {
				cursor += 0.04 + g.rand.Float64()*0.08
			}
			dur := 0.25 + g.rand.Float64()*0.2
			words = append(words, transcript.Word{
				Text:       f,
				Start:      cursor,
				End:        cursor + dur,
				Confidence: 0.82 + g.rand.Float64()*0.17,
			})
			cursor += dur
		}

		switch {
		case (s+1)%4 == 0:
			cursor += GapParagraph + g.rand.Float64()
		case g.rand.Intn(2) == 0:
			cursor += GapShort + g.rand.Float64()*0.5
		default:
			cursor += GapLong + g.rand.Float64()*0.8
		}
	}
	return words
}

// Transcript generates a parsed transcript with the given shape. Line
// timestamps advance by 5-14 seconds; paragraphs are contiguous.
func (g *Generator) Transcript(paragraphs, linesPer int) *transcript.Transcript {
	t := &transcript.Transcript{
		Header: transcript.Header{
			Title:       "Sample recording",
			ProcessedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	seconds := 0
	for p := 0; p < paragraphs; p++ {
		var para transcript.Paragraph
		for l := 0; l < linesPer; l++ {
			para = append(para, transcript.Line{
				Seconds: seconds,
				Text:    g.Sentence(5 + g.rand.Intn(5)),
			})
			seconds += 5 + g.rand.Intn(10)
		}
		t.Paragraphs = append(t.Paragraphs, para)
	}
	return t
}

// ScriptText renders a timestamped transcript body of the given number of
// lines, suitable as the input_text of a translate or synthesize request.
func (g *Generator) ScriptText(lines int) string {
	var b strings.Builder
	seconds := 0
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "[%s] %s\n",
			transcript.FormatTimestamp(seconds), g.Sentence(4+g.rand.Intn(6)))
		seconds += 5 + g.rand.Intn(10)
	}
	return b.String()
}
