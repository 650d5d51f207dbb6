// Package handlers provides the HTTP API handlers for yts.
package handlers

import (
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// JobResponse is the API representation of a job.
type JobResponse struct {
	ID           string `json:"id" doc:"Job ID (ULID)"`
	Kind         string `json:"kind" doc:"Job kind"`
	Status       string `json:"status" doc:"Job status"`
	Progress     int    `json:"progress" doc:"Completion percentage, 0-100"`
	CurrentStage string `json:"current_stage,omitempty" doc:"Stage currently executing"`

	VideoTitle string `json:"video_title,omitempty"`

	Params models.JobParams `json:"params"`

	PostEditorModel string `json:"post_editor_model,omitempty"`
	TranslatorModel string `json:"translator_model,omitempty"`
	TTSProvider     string `json:"tts_provider,omitempty"`
	TTSVoice        string `json:"tts_voice,omitempty"`

	CostUSD          float64 `json:"cost_usd"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	Artifacts []string `json:"artifacts,omitempty"`

	Error *JobErrorResponse `json:"error,omitempty"`

	CreatedAt   string `json:"created_at"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

// JobErrorResponse is the API representation of a job failure.
type JobErrorResponse struct {
	Kind         string `json:"kind"`
	Stage        string `json:"stage,omitempty"`
	Message      string `json:"message"`
	RemoteDetail string `json:"remote_detail,omitempty"`
}

// PaginationMeta describes a listing page.
type PaginationMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// JobFromModel converts a job model to its API representation.
func JobFromModel(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:               job.ID.String(),
		Kind:             string(job.Kind),
		Status:           string(job.Status),
		Progress:         job.Progress,
		CurrentStage:     job.CurrentStage,
		VideoTitle:       job.VideoTitle,
		Params:           job.Params,
		PostEditorModel:  job.PostEditorModel,
		TranslatorModel:  job.TranslatorModel,
		TTSProvider:      job.TTSProvider,
		TTSVoice:         job.TTSVoice,
		CostUSD:          job.CostUSD,
		EstimatedCostUSD: job.EstimatedCostUSD,
		Artifacts:        job.Artifacts,
		CreatedAt:        job.CreatedAt.UTC().Format(time.RFC3339),
		DurationMs:       job.DurationMs,
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.UTC().Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	if job.Error != nil {
		resp.Error = &JobErrorResponse{
			Kind:         string(job.Error.Kind),
			Stage:        job.Error.Stage,
			Message:      job.Error.Message,
			RemoteDetail: job.Error.RemoteDetail,
		}
	}
	return resp
}
