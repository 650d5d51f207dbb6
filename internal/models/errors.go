package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies job failures for API mapping and retry decisions.
type ErrorKind string

const (
	// ErrorKindInvalidRequest indicates a malformed or unsupported request.
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	// ErrorKindNotFound indicates a missing job or resource.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindArtifactNotReady indicates the requested artifact is not yet produced.
	ErrorKindArtifactNotReady ErrorKind = "artifact_not_ready"
	// ErrorKindUnsupportedLanguage indicates the language is not supported by a backend.
	ErrorKindUnsupportedLanguage ErrorKind = "unsupported_language"
	// ErrorKindVoiceNotFound indicates an explicitly requested voice does not exist.
	ErrorKindVoiceNotFound ErrorKind = "voice_not_found"
	// ErrorKindSourceUnavailable indicates the media source could not be fetched.
	ErrorKindSourceUnavailable ErrorKind = "source_unavailable"
	// ErrorKindAudioFormatRejected indicates the backend rejected the audio encoding.
	ErrorKindAudioFormatRejected ErrorKind = "audio_format_rejected"
	// ErrorKindQuotaExceeded indicates a remote quota or rate limit was hit.
	ErrorKindQuotaExceeded ErrorKind = "quota_exceeded"
	// ErrorKindTransientNetwork indicates a retryable network failure.
	ErrorKindTransientNetwork ErrorKind = "transient_network"
	// ErrorKindTransientRemote indicates a retryable remote-side failure.
	ErrorKindTransientRemote ErrorKind = "transient_remote"
	// ErrorKindBudgetExceeded indicates the projected job cost exceeds the budget.
	ErrorKindBudgetExceeded ErrorKind = "budget_exceeded"
	// ErrorKindMuxerFailed indicates the mux subprocess exited with an error.
	ErrorKindMuxerFailed ErrorKind = "muxer_failed"
	// ErrorKindCancelled indicates the job was cancelled.
	ErrorKindCancelled ErrorKind = "cancelled"
	// ErrorKindInternal indicates an unclassified internal failure.
	ErrorKindInternal ErrorKind = "internal"
)

// IsTransient reports whether errors of this kind are worth retrying.
func (k ErrorKind) IsTransient() bool {
	switch k {
	case ErrorKindTransientNetwork, ErrorKindTransientRemote, ErrorKindQuotaExceeded:
		return true
	}
	return false
}

// JobError is the structured failure record attached to a failed job.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	// RemoteDetail carries the backend's own error text when one exists,
	// e.g. the last stderr line of a failed mux.
	RemoteDetail string `json:"remote_detail,omitempty"`

	wrapped error
}

// NewJobError creates a JobError of the given kind.
func NewJobError(kind ErrorKind, stage, message string) *JobError {
	return &JobError{Kind: kind, Stage: stage, Message: message}
}

// WrapJobError creates a JobError wrapping an underlying error.
func WrapJobError(kind ErrorKind, stage string, err error) *JobError {
	if err == nil {
		return nil
	}
	return &JobError{Kind: kind, Stage: stage, Message: err.Error(), wrapped: err}
}

// WithRemoteDetail attaches backend error text and returns the receiver.
func (e *JobError) WithRemoteDetail(detail string) *JobError {
	e.RemoteDetail = detail
	return e
}

// Error implements the error interface.
func (e *JobError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error, if any.
func (e *JobError) Unwrap() error {
	return e.wrapped
}

// KindOf extracts the ErrorKind from err, walking the wrap chain.
// Unclassified errors map to ErrorKindInternal; context cancellation maps
// to ErrorKindCancelled.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var je *JobError
	if errors.As(err, &je) {
		return je.Kind
	}
	if errors.Is(err, ErrCancelled) {
		return ErrorKindCancelled
	}
	return ErrorKindInternal
}

// Common validation and state errors for models.
var (
	// ErrJobKindRequired indicates a required job kind field is empty.
	ErrJobKindRequired = errors.New("job kind is required")

	// ErrSourceRequired indicates a job without a source URL or input text.
	ErrSourceRequired = errors.New("source url or input text is required")

	// ErrJobNotFound indicates a job was not found.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal indicates a state change was attempted on a terminal job.
	ErrJobTerminal = errors.New("job is in a terminal state")

	// ErrJobNotTerminal indicates deletion was attempted on a live job.
	ErrJobNotTerminal = errors.New("job is still queued or running")

	// ErrCancelled indicates cooperative cancellation was observed.
	ErrCancelled = errors.New("job cancelled")

	// ErrInvalidLanguage indicates a malformed BCP-47 language tag.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrInvalidContext indicates an unknown translation context tag.
	ErrInvalidContext = errors.New("invalid translation context")
)
