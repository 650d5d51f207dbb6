package transcript

import (
	"errors"
	"regexp"
	"strings"
)

// Chunking defaults. Inputs under SinglePassLimit are processed in one model
// call without splitting.
const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 200
	DefaultMaxChunks    = 20
	SinglePassLimit     = 5000

	// boundaryWindow is how far back from the size limit a sentence
	// boundary is searched for.
	boundaryWindow = 300

	// minChunkLen keeps boundary search from collapsing a chunk to nothing.
	minChunkLen = 100
)

// ErrInputTooLarge reports input that would exceed the maximum chunk count.
var ErrInputTooLarge = errors.New("transcript: input exceeds maximum chunk count")

var (
	sentenceEndRe    = regexp.MustCompile(`[.!?…]+[ \t\n]`)
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// Split cuts text into chunks of at most size characters with a trailing
// overlap window carried into the next chunk. Chunks prefer to end at a
// sentence boundary, then a timestamp line start, then a paragraph break;
// a chunk never ends inside an [h:mm:ss] timestamp. Returns ErrInputTooLarge
// when the input would need more than maxChunks chunks. Zero or negative
// parameters fall back to the defaults.
func Split(text string, size, overlap, maxChunks int) ([]string, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	if len(text) <= size {
		if trimmed := strings.TrimSpace(text); trimmed == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(text)}, nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		if len(chunks) == maxChunks {
			return nil, ErrInputTooLarge
		}

		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = breakPoint(text, start, end)
			end = avoidTimestampSplit(text, end)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(text) {
			break
		}

		next := alignStart(text, end-overlap)
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// breakPoint finds a good cut position at or before end, searching the
// boundary window for a sentence ending, then a timestamp line start, then
// a paragraph break. Falls back to end when none is found.
func breakPoint(text string, start, end int) int {
	searchStart := end - boundaryWindow
	if min := start + minChunkLen; searchStart < min {
		searchStart = min
	}
	if searchStart >= end {
		return end
	}
	window := text[searchStart:end]

	if locs := sentenceEndRe.FindAllStringIndex(window, -1); len(locs) > 0 {
		return searchStart + locs[len(locs)-1][1]
	}
	if idx := strings.LastIndex(window, "\n["); idx >= 0 {
		return searchStart + idx + 1
	}
	if locs := paragraphBreakRe.FindAllStringIndex(window, -1); len(locs) > 0 {
		return searchStart + locs[len(locs)-1][0]
	}
	return end
}

// alignStart moves a resume position out of a [h:mm:ss] token when the
// overlap step lands inside one, backing up to the opening bracket.
func alignStart(text string, start int) int {
	if start < 0 {
		return 0
	}
	for i := start; i < len(text) && i-start <= 12; i++ {
		switch text[i] {
		case '[':
			return start
		case ']':
			for j := start; j >= 0 && start-j <= 12; j-- {
				if text[j] == '[' {
					return j
				}
			}
			return i + 1
		}
	}
	return start
}

// avoidTimestampSplit backs the cut out of a [h:mm:ss] token when it would
// land inside one.
func avoidTimestampSplit(text string, end int) int {
	for i := end - 1; i >= 0 && end-i <= 12; i-- {
		switch text[i] {
		case ']':
			return end
		case '[':
			return i
		}
	}
	return end
}

// Merge reassembles processed chunks, dropping from each chunk the longest
// prefix that matches a suffix of the text merged so far. Chunks whose
// content was fully covered by the overlap are skipped.
func Merge(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(chunks[0]))
	for _, chunk := range chunks[1:] {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		rest := chunk[overlapLen(b.String(), chunk):]
		rest = strings.TrimLeft(rest, " \t\n")
		if rest == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(rest)
	}
	return b.String()
}

// overlapLen returns the length of the longest prefix of cur that is also a
// suffix of prev.
func overlapLen(prev, cur string) int {
	max := len(cur)
	if len(prev) < max {
		max = len(prev)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(prev, cur[:k]) {
			return k
		}
	}
	return 0
}
