// Package core provides the pipeline orchestration framework: the stage
// interface, the state threaded through stages, and weighted progress.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/cost"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/tts"
)

// Stage identifiers, in canonical pipeline order.
const (
	StageDownload   = "download"
	StageDecode     = "decode"
	StageRecognize  = "recognize"
	StageSegment    = "segment"
	StagePostEdit   = "postedit"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
	StageMux        = "mux"
)

// Stage is a single step of a job pipeline.
type Stage interface {
	// ID returns the stage identifier used for progress and error reporting.
	ID() string

	// Name returns a human-readable stage name.
	Name() string

	// Execute performs the stage's work, reading and writing State.
	Execute(ctx context.Context, state *State) error

	// Cleanup runs after the pipeline ends, success or failure.
	Cleanup(ctx context.Context) error
}

// State is the data shared across one pipeline run.
type State struct {
	// Job is the job being executed. Stages update its metadata fields;
	// the executor persists them.
	Job *models.Job

	// TempDir is the per-run scratch directory.
	TempDir string

	// SourceLanguage and TargetLanguage are resolved BCP-47 tags.
	SourceLanguage string
	TargetLanguage string

	// SourcePath is the downloaded media file.
	SourcePath string
	// VideoTitle is the probed source title.
	VideoTitle string

	// AudioPath is the decoded recognition audio, with its measurements.
	AudioPath     string
	AudioBytes    int64
	AudioDuration time.Duration

	// Words is the recognized word stream.
	Words []transcript.Word
	// Stats summarizes segmentation.
	Stats transcript.Stats

	// RawTranscript is the segmented recognition output; Script is the
	// current working script, replaced by post-editing and translation.
	RawTranscript *transcript.Transcript
	Script        *transcript.Transcript

	// Provider and Voice are the resolved synthesis backend.
	Provider tts.Provider
	Voice    tts.VoiceProfile
	// AudioOut is the assembled synthesis audio.
	AudioOut []byte

	// Ledger tracks this job's costs and enforces the budget.
	Ledger *cost.Ledger
	// Store persists artifacts.
	Store *artifact.Store
	// Progress is the weighted cross-stage progress tracker.
	Progress *Tracker

	// CancelCheck reports pending cooperative cancellation. Checked at
	// stage entry and at long-running loop boundaries.
	CancelCheck func(context.Context) error

	// StartTime records when execution began.
	StartTime time.Time
}

// Checkpoint returns nil unless the run should stop: context cancellation
// and cooperative cancellation both end it.
func (s *State) Checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.CancelCheck != nil {
		return s.CancelCheck(ctx)
	}
	return nil
}

// WriteArtifact stores data under the job's artifact directory and records
// the name on the job.
func (s *State) WriteArtifact(name string, data []byte) error {
	if err := s.Store.Write(s.Job.ID, name, data); err != nil {
		return err
	}
	s.Job.AddArtifact(name)
	return nil
}

// StageError wraps a stage failure with its origin.
type StageError struct {
	StageID   string
	StageName string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.StageID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage identity.
func NewStageError(id, name string, err error) *StageError {
	return &StageError{StageID: id, StageName: name, Err: err}
}
