package transcript

import (
	"strings"
	"unicode/utf8"
)

// Pause classification thresholds, in seconds of gap between a word's end
// and the next word's start.
const (
	shortPauseGap  = 0.6
	longPauseGap   = 1.5
	paragraphGap   = 3.0
	sentenceEndGap = 1.0

	// DefaultLineSoftLimit breaks a line at the next word boundary once
	// its character count exceeds this.
	DefaultLineSoftLimit = 100
)

// Word is a single recognized word with timing in seconds.
type Word struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
}

// SegmentOptions controls segmentation.
type SegmentOptions struct {
	// LineSoftLimit is the per-line character budget (0 = default).
	LineSoftLimit int
	// BreathMarks enables inline pause markers.
	BreathMarks bool
}

// Stats summarizes a segmentation pass.
type Stats struct {
	TotalWords      int
	MeanConfidence  float64
	ShortPauses     int
	LongPauses      int
	ParagraphBreaks int
	WordsPerMinute  float64
	PauseFraction   float64
}

// Segment converts timed recognizer words into a transcript. Gaps between
// words classify as no pause (<0.6s), short breath, long breath, or a
// paragraph break (>=3.0s). A word ending in terminal punctuation followed
// by a gap of at least one second starts a new timestamped line, as does
// exceeding the line soft limit. Each line's timestamp is the start time of
// its first word, truncated to whole seconds.
func Segment(words []Word, opts SegmentOptions) (*Transcript, Stats) {
	t := &Transcript{}
	if len(words) == 0 {
		return t, Stats{}
	}
	if opts.LineSoftLimit <= 0 {
		opts.LineSoftLimit = DefaultLineSoftLimit
	}

	var (
		stats      Stats
		para       Paragraph
		line       strings.Builder
		lineStart  float64
		confSum    float64
		pauseTotal float64
	)

	flushLine := func() {
		if line.Len() > 0 {
			para = append(para, Line{Seconds: int(lineStart), Text: line.String()})
			line.Reset()
		}
	}
	flushPara := func() {
		flushLine()
		if len(para) > 0 {
			t.Paragraphs = append(t.Paragraphs, para)
			para = nil
		}
	}

	firstStart := words[0].Start
	lastEnd := firstStart

	for i, w := range words {
		end := w.End
		if end < w.Start {
			end = w.Start
		}
		if end > lastEnd {
			lastEnd = end
		}

		if line.Len() == 0 {
			lineStart = w.Start
		} else {
			line.WriteByte(' ')
		}
		line.WriteString(w.Text)
		confSum += w.Confidence
		stats.TotalWords++

		if i == len(words)-1 {
			break
		}
		gap := words[i+1].Start - end
		if gap < 0 {
			gap = 0
		}

		switch {
		case gap >= paragraphGap:
			stats.ParagraphBreaks++
			pauseTotal += gap
			flushPara()
		case endsSentence(w.Text) && gap >= sentenceEndGap:
			pauseTotal += gap
			flushLine()
		case gap >= longPauseGap:
			stats.LongPauses++
			pauseTotal += gap
			if opts.BreathMarks {
				line.WriteString(" " + LongBreath)
			}
		case gap >= shortPauseGap:
			stats.ShortPauses++
			pauseTotal += gap
			if opts.BreathMarks {
				line.WriteString(" " + ShortBreath)
			}
		}

		if utf8.RuneCountInString(line.String()) > opts.LineSoftLimit {
			flushLine()
		}
	}
	flushPara()

	stats.MeanConfidence = confSum / float64(stats.TotalWords)
	span := lastEnd - firstStart
	if speaking := span - pauseTotal; speaking > 0 {
		stats.WordsPerMinute = float64(stats.TotalWords) / speaking * 60
	}
	if span > 0 {
		stats.PauseFraction = pauseTotal / span
	}
	return t, stats
}

// endsSentence reports whether a word ends with terminal punctuation.
func endsSentence(word string) bool {
	word = strings.TrimRight(word, " \t")
	if word == "" {
		return false
	}
	switch r := []rune(word); r[len(r)-1] {
	case '.', '!', '?', '…':
		return true
	}
	return false
}
