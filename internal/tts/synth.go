package tts

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Default assembly parameters, overridable from configuration.
const (
	DefaultChunkChars = 1000
	DefaultWorkers    = 4
)

// silentFrame is one 128 kbps 44.1 kHz MPEG-1 Layer III frame of silence
// (about 26 ms). MP3 frames concatenate cleanly, so repeating it pads
// paragraph gaps without re-encoding.
var silentFrame = append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 413)...)

const silentFrameSeconds = 0.026

// SynthesisOutput is the assembled audio for a whole transcript.
type SynthesisOutput struct {
	Audio      []byte
	Characters int
	Chunks     int
}

// Synthesizer assembles a transcript's segments into one audio stream by
// synthesizing chunks in parallel and concatenating them in order.
type Synthesizer struct {
	provider   Provider
	voice      VoiceProfile
	maxBreak   float64
	chunkChars int
	workers    int
	logger     *slog.Logger
}

// NewSynthesizer creates an assembler for one provider and voice.
func NewSynthesizer(provider Provider, voice VoiceProfile, catalog *Catalog, chunkChars, workers int, logger *slog.Logger) *Synthesizer {
	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		provider:   provider,
		voice:      voice,
		maxBreak:   catalog.MaxBreak(provider.ID()),
		chunkChars: chunkChars,
		workers:    workers,
		logger:     logger,
	}
}

// chunkGroup is a run of consecutive segments synthesized as one request.
type chunkGroup struct {
	segments []Segment
	chars    int
}

// lastSegment returns the group's final segment.
func (g *chunkGroup) lastSegment() Segment {
	return g.segments[len(g.segments)-1]
}

// Synthesize renders all segments. An empty segment list is a no-op that
// produces empty audio. The first error cancels outstanding work; quota
// errors surface immediately rather than being retried here.
func (s *Synthesizer) Synthesize(ctx context.Context, segments []Segment) (*SynthesisOutput, error) {
	if len(segments) == 0 {
		return &SynthesisOutput{}, nil
	}

	groups := s.group(segments)
	results := make([][]byte, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, grp := range groups {
		g.Go(func() error {
			chunk := s.buildChunk(grp)
			audio, err := s.provider.Synthesize(gctx, chunk, s.voice)
			if err != nil {
				return err
			}
			results[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SynthesisOutput{Chunks: len(groups)}
	for i, grp := range groups {
		out.Audio = append(out.Audio, results[i]...)
		out.Characters += grp.chars

		// A paragraph gap longer than the in-band break gets padded with
		// real silence so the dub stays aligned with the source timeline.
		// Speech is never trimmed or sped up to fit a slot.
		last := grp.lastSegment()
		if last.ParagraphEnd && last.GapToNext > s.maxBreak {
			out.Audio = append(out.Audio, silence(last.GapToNext-s.maxBreak)...)
		}
	}

	s.logger.Info("synthesis assembled",
		slog.String("provider", s.provider.ID()),
		slog.String("voice", s.voice.ID),
		slog.Int("segments", len(segments)),
		slog.Int("chunks", out.Chunks),
		slog.Int("characters", out.Characters),
		slog.Int("bytes", len(out.Audio)))
	return out, nil
}

// group splits segments into synthesis chunks of about chunkChars,
// breaking only on segment boundaries and always at paragraph ends.
func (s *Synthesizer) group(segments []Segment) []chunkGroup {
	var (
		groups []chunkGroup
		cur    chunkGroup
	)
	flush := func() {
		if len(cur.segments) > 0 {
			groups = append(groups, cur)
			cur = chunkGroup{}
		}
	}
	for _, seg := range segments {
		n := len([]rune(seg.Text))
		if cur.chars > 0 && cur.chars+n > s.chunkChars {
			flush()
		}
		cur.segments = append(cur.segments, seg)
		cur.chars += n
		if seg.ParagraphEnd {
			flush()
		}
	}
	flush()
	return groups
}

// buildChunk renders a group's SSML and plain-text forms. All segments of
// a group share one <speak> root.
func (s *Synthesizer) buildChunk(grp chunkGroup) Chunk {
	var ssml, plain strings.Builder
	ssml.WriteString("<speak>")
	for i, seg := range grp.segments {
		ssml.WriteString(ssmlFragment(seg, s.maxBreak))
		if i > 0 {
			plain.WriteString(" ")
		}
		plain.WriteString(seg.Text)
	}
	ssml.WriteString("</speak>")
	return Chunk{SSML: ssml.String(), Plain: plain.String()}
}

// silence returns MP3 silence of roughly the given duration.
func silence(seconds float64) []byte {
	frames := int(seconds / silentFrameSeconds)
	if frames <= 0 {
		return nil
	}
	out := make([]byte, 0, frames*len(silentFrame))
	for i := 0; i < frames; i++ {
		out = append(out, silentFrame...)
	}
	return out
}
