// Package recognize turns decoded audio into word-level timed transcripts.
//
// Short clips go through the backend's synchronous endpoint; anything larger
// is staged into an object store and recognized through a long-running
// operation that is polled until it completes. Both paths produce the same
// word stream.
package recognize

import (
	"context"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
)

// AudioInfo describes a decoded audio file awaiting recognition.
type AudioInfo struct {
	Path      string
	SizeBytes int64
	Duration  time.Duration
}

// ProgressFunc receives recognition progress in percent. Implementations
// must tolerate repeated values; callers clamp monotonicity upstream.
type ProgressFunc func(percent int)

// Result is the outcome of a recognition pass.
type Result struct {
	Words []transcript.Word
	// Staged reports whether the upload-and-poll path was used.
	Staged bool
}

// Recognizer converts audio into timed words.
type Recognizer interface {
	Recognize(ctx context.Context, audio AudioInfo, language string, progress ProgressFunc) (*Result, error)
}
