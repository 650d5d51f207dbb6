package models

import (
	"gorm.io/gorm"
)

// JobKind represents the kind of processing a job performs.
type JobKind string

const (
	// JobKindTranscribe produces a timestamped transcript from a video URL.
	JobKindTranscribe JobKind = "transcribe"
	// JobKindTranslate translates an existing or freshly produced transcript.
	JobKindTranslate JobKind = "translate"
	// JobKindSynthesize renders speech audio from a script.
	JobKindSynthesize JobKind = "synthesize"
	// JobKindDub runs the full download-to-mux dubbing pipeline.
	JobKindDub JobKind = "dub"
)

// Valid reports whether the kind is a known job kind.
func (k JobKind) Valid() bool {
	switch k {
	case JobKindTranscribe, JobKindTranslate, JobKindSynthesize, JobKindDub:
		return true
	}
	return false
}

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusQueued indicates the job is waiting for a worker.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates the job is currently executing.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled.
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobParams carries the per-request options a job was submitted with.
// Stored as JSON alongside the job row.
type JobParams struct {
	// SourceURL is the video to fetch. Empty for synthesize-from-text jobs.
	SourceURL string `json:"source_url,omitempty"`
	// InputText is the script for synthesize jobs submitted without a source.
	InputText string `json:"input_text,omitempty"`
	// SourceLanguage is the BCP-47 recognition language.
	SourceLanguage string `json:"source_language,omitempty"`
	// TargetLanguage is the BCP-47 translation/synthesis language.
	TargetLanguage string `json:"target_language,omitempty"`
	// Context is the translation domain tag (legal, news, casual, ...).
	Context string `json:"context,omitempty"`
	// Audience and Tone steer the translation register.
	Audience string `json:"audience,omitempty"`
	Tone     string `json:"tone,omitempty"`
	// PostEdit enables LLM cleanup of the raw transcript.
	PostEdit *bool `json:"post_edit,omitempty"`
	// PostEditModel overrides the configured post-editor model.
	PostEditModel string `json:"post_edit_model,omitempty"`
	// TTSProvider names a provider explicitly, or "auto".
	TTSProvider string `json:"tts_provider,omitempty"`
	// VoiceID pins a specific voice. With an explicit provider, a missing
	// voice rejects the request rather than remapping silently.
	VoiceID string `json:"voice_id,omitempty"`
	// Mux controls whether the dubbed audio is muxed back into the video.
	Mux *bool `json:"mux,omitempty"`
	// Quality selects the generation preset for translation (fast, balanced, high).
	Quality string `json:"quality,omitempty"`
	// MaxCostUSD caps this job's spend. Zero falls back to the configured limit.
	MaxCostUSD float64 `json:"max_cost_usd,omitempty"`
	// TestMode limits processing to the first 60 seconds of the source.
	TestMode bool `json:"test_mode,omitempty"`
	// BreathDetection enables pause markers in the transcript.
	BreathDetection *bool `json:"breath_detection,omitempty"`
}

// Job represents one transcription, translation, synthesis, or dubbing run.
type Job struct {
	BaseModel

	// Kind indicates what pipeline this job runs.
	Kind JobKind `gorm:"not null;size:20;index" json:"kind"`

	// Status indicates the current status of the job.
	Status JobStatus `gorm:"not null;default:'queued';size:20;index" json:"status"`

	// Params holds the submitted request options.
	Params JobParams `gorm:"serializer:json" json:"params"`

	// VideoTitle is filled in after the source is probed.
	VideoTitle string `gorm:"size:512" json:"video_title,omitempty"`

	// Progress is the overall completion percentage, 0-100.
	// It never decreases; SetProgress enforces monotonicity.
	Progress int `gorm:"default:0" json:"progress"`

	// CurrentStage is the stage currently executing (empty when queued/terminal).
	CurrentStage string `gorm:"size:40" json:"current_stage,omitempty"`

	// PostEditorModel records the winning (region, model) pair used for
	// post-editing, e.g. "us-central1/gemini-2.0-flash".
	PostEditorModel string `gorm:"size:120" json:"post_editor_model,omitempty"`

	// TranslatorModel records the winning (region, model) pair used for translation.
	TranslatorModel string `gorm:"size:120" json:"translator_model,omitempty"`

	// TTSProvider and TTSVoice record the provider/voice actually used.
	TTSProvider string `gorm:"size:40" json:"tts_provider,omitempty"`
	TTSVoice    string `gorm:"size:120" json:"tts_voice,omitempty"`

	// CostUSD is the accumulated actual cost of completed stages.
	CostUSD float64 `json:"cost_usd"`

	// EstimatedCostUSD is actuals plus remaining stage quotes.
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	// Artifacts lists produced artifact file names in the job directory.
	Artifacts []string `gorm:"serializer:json" json:"artifacts,omitempty"`

	// Error holds the structured failure record for failed jobs.
	Error *JobError `gorm:"serializer:json" json:"error,omitempty"`

	// CancelRequested is the cooperative cancellation flag. Workers check it
	// at stage entry, poll iterations, and chunk boundaries.
	CancelRequested bool `gorm:"default:false" json:"cancel_requested,omitempty"`

	// StartedAt is the timestamp when the job started executing.
	StartedAt *Time `json:"started_at,omitempty"`

	// CompletedAt is the timestamp when the job reached a terminal state.
	CompletedAt *Time `json:"completed_at,omitempty"`

	// DurationMs is the execution duration in milliseconds.
	DurationMs int64 `json:"duration_ms,omitempty"`

	// LockedBy is the worker ID that owns this job for execution.
	LockedBy string `gorm:"size:100;index" json:"locked_by,omitempty"`

	// LockedAt is the timestamp when the job was locked.
	LockedAt *Time `json:"locked_at,omitempty"`
}

// TableName returns the table name for Job.
func (Job) TableName() string {
	return "jobs"
}

// IsQueued returns true if the job is waiting for a worker.
func (j *Job) IsQueued() bool {
	return j.Status == JobStatusQueued
}

// IsRunning returns true if the job is currently executing.
func (j *Job) IsRunning() bool {
	return j.Status == JobStatusRunning
}

// IsTerminal returns true if the job reached a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// MarkRunning marks the job as running under the given worker.
func (j *Job) MarkRunning(workerID string) error {
	if j.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobStatusRunning
	now := Now()
	j.StartedAt = &now
	j.LockedBy = workerID
	j.LockedAt = &now
	return nil
}

// MarkCompleted marks the job as completed successfully.
func (j *Job) MarkCompleted() error {
	if j.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobStatusCompleted
	now := Now()
	j.CompletedAt = &now
	j.Progress = 100
	j.CurrentStage = ""
	j.Error = nil

	if j.StartedAt != nil {
		j.DurationMs = now.Sub(*j.StartedAt).Milliseconds()
	}

	j.LockedBy = ""
	j.LockedAt = nil
	return nil
}

// MarkFailed marks the job as failed with a structured error record.
func (j *Job) MarkFailed(jobErr *JobError) error {
	if j.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobStatusFailed
	now := Now()
	j.CompletedAt = &now
	j.CurrentStage = ""
	j.Error = jobErr

	if j.StartedAt != nil {
		j.DurationMs = now.Sub(*j.StartedAt).Milliseconds()
	}

	j.LockedBy = ""
	j.LockedAt = nil
	return nil
}

// MarkCancelled marks the job as cancelled.
func (j *Job) MarkCancelled() error {
	if j.IsTerminal() {
		return ErrJobTerminal
	}
	j.Status = JobStatusCancelled
	now := Now()
	j.CompletedAt = &now
	j.CurrentStage = ""
	j.LockedBy = ""
	j.LockedAt = nil
	return nil
}

// SetProgress raises the progress to p. Values below the current progress
// are ignored so observed progress never moves backwards; values are clamped
// to [0, 100].
func (j *Job) SetProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p > j.Progress {
		j.Progress = p
	}
}

// AddArtifact records a produced artifact file name, ignoring duplicates.
func (j *Job) AddArtifact(name string) {
	for _, a := range j.Artifacts {
		if a == name {
			return
		}
	}
	j.Artifacts = append(j.Artifacts, name)
}

// Validate performs basic validation on the job.
func (j *Job) Validate() error {
	if j.Kind == "" {
		return ErrJobKindRequired
	}
	if j.Params.SourceURL == "" && j.Params.InputText == "" {
		return ErrSourceRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the job and generates ULID.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if err := j.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return j.Validate()
}

// CostLedgerEntry records one quote or actual cost line for a job stage.
type CostLedgerEntry struct {
	BaseModel

	// JobID is the job this entry belongs to.
	JobID ULID `gorm:"not null;index" json:"job_id"`

	// Stage names the billable stage (recognize, postedit, translate, synthesize).
	Stage string `gorm:"not null;size:40;index" json:"stage"`

	// Type is "quote" or "actual".
	Type string `gorm:"not null;size:10" json:"type"`

	// AmountUSD is the line amount in US dollars.
	AmountUSD float64 `json:"amount_usd"`

	// Detail describes the pricing basis, e.g. "12.5 min @ $0.016/min".
	Detail string `gorm:"size:255" json:"detail,omitempty"`
}

// TableName returns the table name for CostLedgerEntry.
func (CostLedgerEntry) TableName() string {
	return "cost_ledger"
}

// PostEditEnabled reports whether post-editing was requested (default on).
func (p JobParams) PostEditEnabled() bool {
	return BoolVal(p.PostEdit)
}

// MuxEnabled reports whether muxing was requested (default on).
func (p JobParams) MuxEnabled() bool {
	return BoolVal(p.Mux)
}

// BreathDetectionEnabled reports whether pause markers were requested (default on).
func (p JobParams) BreathDetectionEnabled() bool {
	return BoolVal(p.BreathDetection)
}

// TranslationContexts is the set of accepted translation context tags.
var TranslationContexts = map[string]bool{
	"legal":       true,
	"spiritual":   true,
	"marketing":   true,
	"scientific":  true,
	"educational": true,
	"news":        true,
	"casual":      true,
}

// ValidTranslationContext reports whether tag is a known translation context.
// The empty tag is allowed and means "general".
func ValidTranslationContext(tag string) bool {
	return tag == "" || TranslationContexts[tag]
}
