package tts

import (
	"fmt"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// Segment is one line of speech to synthesize, with its timing slot.
type Segment struct {
	// Text is the spoken text, pause markers already stripped.
	Text string
	// Start is the segment's position in the source timeline, in seconds.
	Start float64
	// GapToNext is the time until the next segment starts; zero for the
	// last segment.
	GapToNext float64
	// ParagraphEnd marks the last segment of a paragraph.
	ParagraphEnd bool
}

// SegmentsFromTranscript flattens a timed transcript into synthesis
// segments. Pause markers are presentation, not speech, and are stripped.
func SegmentsFromTranscript(t *transcript.Transcript) []Segment {
	var segs []Segment
	for _, para := range t.Paragraphs {
		for i, line := range para {
			text := StripPauseMarks(line.Text)
			if text == "" {
				continue
			}
			segs = append(segs, Segment{
				Text:         text,
				Start:        float64(line.Seconds),
				ParagraphEnd: i == len(para)-1,
			})
		}
	}
	for i := range segs {
		if i+1 < len(segs) {
			segs[i].GapToNext = segs[i+1].Start - segs[i].Start
		}
	}
	return segs
}

// StripPauseMarks removes breath markers and collapses the whitespace they
// leave behind.
func StripPauseMarks(text string) string {
	text = strings.ReplaceAll(text, transcript.LongBreath, " ")
	text = strings.ReplaceAll(text, transcript.ShortBreath, " ")
	return strings.Join(strings.Fields(text), " ")
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// BuildSSML renders one segment as a standalone SSML document. The trailing
// break covers the gap to the next segment, clamped to the provider's
// maximum.
func BuildSSML(seg Segment, maxBreakSeconds float64) string {
	return "<speak>" + ssmlFragment(seg, maxBreakSeconds) + "</speak>"
}

// ssmlFragment renders a segment's prosody and break without the document
// root, so several segments can share one <speak> element.
func ssmlFragment(seg Segment, maxBreakSeconds float64) string {
	var b strings.Builder
	b.WriteString(`<prosody rate="100%">`)
	b.WriteString(ssmlEscaper.Replace(seg.Text))
	b.WriteString("</prosody>")

	if gap := clampBreak(seg.GapToNext, maxBreakSeconds); gap > 0 {
		fmt.Fprintf(&b, `<break time="%dms"/>`, int(gap*1000))
	}
	return b.String()
}

// clampBreak bounds a gap to the provider's maximum break length.
func clampBreak(gap, maxBreak float64) float64 {
	if gap <= 0 {
		return 0
	}
	if maxBreak > 0 && gap > maxBreak {
		return maxBreak
	}
	return gap
}
