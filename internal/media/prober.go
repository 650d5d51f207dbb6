package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// ProbeResult contains the ffprobe output fields the pipeline needs.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"` // video, audio
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	Duration      string `json:"duration,omitempty"`
	BitRate       string `json:"bit_rate,omitempty"`
}

// DurationSeconds parses the container duration.
func (r *ProbeResult) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(r.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}

// Duration returns the container duration as a time.Duration.
func (r *ProbeResult) Duration() time.Duration {
	return time.Duration(r.DurationSeconds() * float64(time.Second))
}

// HasVideo reports whether the container carries a video stream.
func (r *ProbeResult) HasVideo() bool {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// HasAudio reports whether the container carries an audio stream.
func (r *ProbeResult) HasAudio() bool {
	for _, s := range r.Streams {
		if s.CodecType == "audio" {
			return true
		}
	}
	return false
}

// Title returns the container title tag, if any.
func (r *ProbeResult) Title() string {
	return r.Format.Tags["title"]
}

// Prober inspects media files with ffprobe.
type Prober struct {
	toolchain *Toolchain
	timeout   time.Duration
	logger    *slog.Logger
}

// NewProber creates a prober.
func NewProber(tc *Toolchain, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{toolchain: tc, timeout: 30 * time.Second, logger: logger}
}

// Probe runs ffprobe against the given file or URL and parses its JSON
// output.
func (p *Prober) Probe(ctx context.Context, input string) (*ProbeResult, error) {
	cmd := NewCommand(p.toolchain.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	).WithTimeout(p.timeout)

	result, err := cmd.Run(ctx, p.logger)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", input, err)
	}

	var probe ProbeResult
	if err := json.Unmarshal(result.Stdout, &probe); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return &probe, nil
}
