// Package transcript models timed transcripts: the rendered file format,
// chunking for generative-model calls, and pause-aware segmentation of
// recognizer output.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pause markers embedded inline in rendered lines.
const (
	ShortBreath = "•"
	LongBreath  = "••"
)

// Header carries transcript provenance. Empty fields are omitted when rendered.
type Header struct {
	Title       string
	ProcessedAt time.Time
	PostEditor  string
	Translator  string
}

// Line is one timestamped line of a transcript. Text holds the words with
// any inline pause markers.
type Line struct {
	// Seconds is the start time of the line's first word, truncated.
	Seconds int
	Text    string
}

// Paragraph groups consecutive lines. Paragraphs are separated by a blank
// line in the rendered form.
type Paragraph []Line

// Transcript is a parsed timed transcript.
type Transcript struct {
	Header     Header
	Paragraphs []Paragraph
}

var (
	lineRe      = regexp.MustCompile(`^\[(\d+):(\d{2}):(\d{2})\] ?(.*)$`)
	headerRe    = regexp.MustCompile(`^([a-z][a-z-]*): (.*)$`)
	timestampRe = regexp.MustCompile(`\[\d+:\d{2}:\d{2}\]`)
)

// FormatTimestamp renders whole seconds as h:mm:ss with unpadded hours.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// ParseTimestamp parses an h:mm:ss timestamp into whole seconds.
func ParseTimestamp(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}

// ExtractTimestamps returns every [h:mm:ss] token in s, in order. Used to
// verify that model output preserved the input's timestamps.
func ExtractTimestamps(s string) []string {
	return timestampRe.FindAllString(s, -1)
}

// Parse reads a rendered transcript. A leading key-value header block is
// optional; body lines without a timestamp are attached to the current
// paragraph carrying the previous line's timestamp.
func Parse(r io.Reader) (*Transcript, error) {
	t := &Transcript{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	inHeader := true
	var para Paragraph
	lastSeconds := 0

	flushPara := func() {
		if len(para) > 0 {
			t.Paragraphs = append(t.Paragraphs, para)
			para = nil
		}
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")

		if inHeader {
			if line == "" {
				inHeader = false
				continue
			}
			if m := lineRe.FindStringSubmatch(line); m != nil {
				inHeader = false
			} else if m := headerRe.FindStringSubmatch(line); m != nil {
				t.setHeaderField(m[1], m[2])
				continue
			} else {
				inHeader = false
			}
		}

		if line == "" {
			flushPara()
			continue
		}

		if m := lineRe.FindStringSubmatch(line); m != nil {
			secs, err := ParseTimestamp(m[1] + ":" + m[2] + ":" + m[3])
			if err != nil {
				return nil, err
			}
			lastSeconds = secs
			para = append(para, Line{Seconds: secs, Text: m[4]})
			continue
		}

		para = append(para, Line{Seconds: lastSeconds, Text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	flushPara()
	return t, nil
}

func (t *Transcript) setHeaderField(key, value string) {
	switch key {
	case "title":
		t.Header.Title = value
	case "processed-at":
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			t.Header.ProcessedAt = ts
		}
	case "post-editor":
		t.Header.PostEditor = value
	case "translator":
		t.Header.Translator = value
	}
}

// Render writes the transcript in its file form: a key-value header block,
// a blank line, then timestamped body lines with blank lines between
// paragraphs.
func (t *Transcript) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)

	wroteHeader := false
	writeKV := func(key, value string) {
		if value != "" {
			fmt.Fprintf(bw, "%s: %s\n", key, value)
			wroteHeader = true
		}
	}
	writeKV("title", t.Header.Title)
	if !t.Header.ProcessedAt.IsZero() {
		writeKV("processed-at", t.Header.ProcessedAt.Format(time.RFC3339))
	}
	writeKV("post-editor", t.Header.PostEditor)
	writeKV("translator", t.Header.Translator)
	if wroteHeader {
		bw.WriteByte('\n')
	}

	bw.WriteString(t.Body())
	return bw.Flush()
}

// Body renders only the timestamped lines, without the header block.
func (t *Transcript) Body() string {
	var b strings.Builder
	for i, para := range t.Paragraphs {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, line := range para {
			b.WriteByte('[')
			b.WriteString(FormatTimestamp(line.Seconds))
			b.WriteString("] ")
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// String renders the full transcript.
func (t *Transcript) String() string {
	var b strings.Builder
	_ = t.Render(&b)
	return b.String()
}

// Timestamps returns all body timestamps in order, rendered as h:mm:ss.
func (t *Transcript) Timestamps() []string {
	var out []string
	for _, para := range t.Paragraphs {
		for _, line := range para {
			out = append(out, FormatTimestamp(line.Seconds))
		}
	}
	return out
}

// WordCount counts whitespace-separated tokens in the body, excluding pause
// markers.
func (t *Transcript) WordCount() int {
	n := 0
	for _, para := range t.Paragraphs {
		for _, line := range para {
			for _, tok := range strings.Fields(line.Text) {
				if tok != ShortBreath && tok != LongBreath {
					n++
				}
			}
		}
	}
	return n
}
