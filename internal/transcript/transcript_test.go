package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00:00"},
		{2, "0:00:02"},
		{59, "0:00:59"},
		{60, "0:01:00"},
		{3599, "0:59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{36000, "10:00:00"},
		{-1, "0:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimestamp(tt.seconds))
	}
}

func TestParseTimestamp(t *testing.T) {
	secs, err := ParseTimestamp("1:01:01")
	require.NoError(t, err)
	assert.Equal(t, 3661, secs)

	secs, err = ParseTimestamp("0:00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, secs)

	_, err = ParseTimestamp("1:01")
	assert.Error(t, err)

	_, err = ParseTimestamp("a:bb:cc")
	assert.Error(t, err)
}

func TestRenderParse_RoundTrip(t *testing.T) {
	orig := &Transcript{
		Header: Header{
			Title:       "Sample Video",
			ProcessedAt: time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
			PostEditor:  "gemini-2.0-flash@us-central1",
		},
		Paragraphs: []Paragraph{
			{
				{Seconds: 0, Text: "Hello there. • How are you?"},
				{Seconds: 5, Text: "Fine, thanks. ••"},
			},
			{
				{Seconds: 12, Text: "Second paragraph starts here."},
			},
		},
	}

	var buf strings.Builder
	require.NoError(t, orig.Render(&buf))

	parsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestRenderParse_RoundTrip_NoHeader(t *testing.T) {
	orig := &Transcript{
		Paragraphs: []Paragraph{
			{{Seconds: 0, Text: "only body"}},
		},
	}

	var buf strings.Builder
	require.NoError(t, orig.Render(&buf))
	assert.Equal(t, "[0:00:00] only body\n", buf.String())

	parsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParse_Empty(t *testing.T) {
	parsed, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, parsed.Paragraphs)
}

func TestParse_UntimestampedLineInheritsTimestamp(t *testing.T) {
	in := "[0:01:00] first line\nloose continuation\n"
	parsed, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, parsed.Paragraphs, 1)
	require.Len(t, parsed.Paragraphs[0], 2)
	assert.Equal(t, 60, parsed.Paragraphs[0][1].Seconds)
	assert.Equal(t, "loose continuation", parsed.Paragraphs[0][1].Text)
}

func TestParse_UnknownHeaderKeyIgnored(t *testing.T) {
	in := "title: T\nx-custom: whatever\n\n[0:00:00] body\n"
	parsed, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "T", parsed.Header.Title)
	require.Len(t, parsed.Paragraphs, 1)
}

func TestExtractTimestamps(t *testing.T) {
	in := "[0:00:00] a b\n\n[0:01:30] c [1:02:03] d"
	assert.Equal(t, []string{"[0:00:00]", "[0:01:30]", "[1:02:03]"}, ExtractTimestamps(in))
	assert.Empty(t, ExtractTimestamps("no timestamps here"))
}

func TestTimestampsAndWordCount(t *testing.T) {
	tr := &Transcript{
		Paragraphs: []Paragraph{
			{{Seconds: 0, Text: "a b • c"}},
			{{Seconds: 10, Text: "d •• e"}},
		},
	}
	assert.Equal(t, []string{"0:00:00", "0:00:10"}, tr.Timestamps())
	assert.Equal(t, 5, tr.WordCount())
}
