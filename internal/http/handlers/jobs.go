package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/artifact"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/repository"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/service"
)

// JobHandler handles job submission and lifecycle endpoints.
type JobHandler struct {
	jobService *service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// Register registers the job routes with the API.
func (h *JobHandler) Register(api huma.API) {
	submissions := []struct {
		kind        models.JobKind
		operationID string
		path        string
		summary     string
		description string
	}{
		{models.JobKindTranscribe, "submitTranscribe", "/v1/transcribe",
			"Submit a transcription job",
			"Downloads the source video and produces a timestamped transcript"},
		{models.JobKindTranslate, "submitTranslate", "/v1/translate",
			"Submit a translation job",
			"Transcribes the source and translates the script into the target language"},
		{models.JobKindSynthesize, "submitSynthesize", "/v1/synthesize",
			"Submit a synthesis job",
			"Renders a script (from a source video or submitted text) as speech audio"},
		{models.JobKindDub, "submitDub", "/v1/dub",
			"Submit a dubbing job",
			"Runs the full pipeline and muxes the synthesized audio back into the video"},
	}
	for _, op := range submissions {
		kind := op.kind
		huma.Register(api, huma.Operation{
			OperationID:   op.operationID,
			Method:        "POST",
			Path:          op.path,
			Summary:       op.summary,
			Description:   op.description,
			Tags:          []string{"Jobs"},
			DefaultStatus: 202,
		}, func(ctx context.Context, input *SubmitJobInput) (*SubmitJobOutput, error) {
			return h.submit(ctx, kind, input)
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "listJobs",
		Method:      "GET",
		Path:        "/v1/jobs",
		Summary:     "List jobs",
		Description: "Returns jobs newest first, with pagination and optional status filter",
		Tags:        []string{"Jobs"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getJob",
		Method:      "GET",
		Path:        "/v1/jobs/{id}",
		Summary:     "Get job",
		Description: "Returns a job by ID",
		Tags:        []string{"Jobs"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "getJobArtifact",
		Method:      "GET",
		Path:        "/v1/jobs/{id}/artifact",
		Summary:     "Download a job artifact",
		Description: "Returns one of the job's output files by artifact kind",
		Tags:        []string{"Jobs"},
	}, h.GetArtifact)

	huma.Register(api, huma.Operation{
		OperationID: "cancelJob",
		Method:      "POST",
		Path:        "/v1/jobs/{id}/cancel",
		Summary:     "Cancel job",
		Description: "Requests cancellation; queued jobs cancel immediately, running jobs stop at their next checkpoint",
		Tags:        []string{"Jobs"},
	}, h.Cancel)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteJob",
		Method:        "DELETE",
		Path:          "/v1/jobs/{id}",
		Summary:       "Delete job",
		Description:   "Deletes a terminal job together with its artifacts",
		Tags:          []string{"Jobs"},
		DefaultStatus: 204,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "getStats",
		Method:      "GET",
		Path:        "/v1/stats",
		Summary:     "Job statistics",
		Description: "Returns job counts by status and the worker pool status",
		Tags:        []string{"Jobs"},
	}, h.GetStats)
}

// SubmitJobInput is the request body shared by the submission endpoints.
type SubmitJobInput struct {
	Body struct {
		SourceURL      string `json:"source_url,omitempty" doc:"Video URL to fetch (http/https)"`
		InputText      string `json:"input_text,omitempty" doc:"Script text for synthesize jobs without a source"`
		SourceLanguage string `json:"source_language,omitempty" doc:"BCP-47 recognition language" example:"hu-HU"`
		TargetLanguage string `json:"target_language,omitempty" doc:"BCP-47 translation/synthesis language" example:"en-US"`

		Context  string `json:"context,omitempty" doc:"Translation domain" enum:"legal,spiritual,marketing,scientific,educational,news,casual,"`
		Audience string `json:"audience,omitempty" doc:"Target audience for translation register"`
		Tone     string `json:"tone,omitempty" doc:"Desired tone for translation register"`

		PostEdit      *bool  `json:"post_edit,omitempty" doc:"LLM cleanup of the raw transcript (default true)"`
		PostEditModel string `json:"post_edit_model,omitempty" doc:"Override the configured post-editor model"`

		TTSProvider string `json:"tts_provider,omitempty" doc:"Synthesis provider, or \"auto\""`
		VoiceID     string `json:"voice_id,omitempty" doc:"Pin a specific voice (requires tts_provider)"`

		Mux             *bool   `json:"mux,omitempty" doc:"Mux dubbed audio back into the video (default true)"`
		Quality         string  `json:"quality,omitempty" doc:"Translation quality preset" enum:"fast,balanced,high,"`
		MaxCost         float64 `json:"max_cost,omitempty" minimum:"0" doc:"Per-job spend cap in USD (0 uses the configured limit)"`
		TestMode        bool    `json:"test_mode,omitempty" doc:"Process only the first 60 seconds"`
		BreathDetection *bool   `json:"breath_detection,omitempty" doc:"Pause markers in the transcript (default true)"`
	}
}

// SubmitJobOutput is the response for a job submission.
type SubmitJobOutput struct {
	Body struct {
		JobID string `json:"job_id" doc:"ULID of the queued job"`
	}
}

func (h *JobHandler) submit(ctx context.Context, kind models.JobKind, input *SubmitJobInput) (*SubmitJobOutput, error) {
	b := input.Body
	job, err := h.jobService.Submit(ctx, kind, models.JobParams{
		SourceURL:       b.SourceURL,
		InputText:       b.InputText,
		SourceLanguage:  b.SourceLanguage,
		TargetLanguage:  b.TargetLanguage,
		Context:         b.Context,
		Audience:        b.Audience,
		Tone:            b.Tone,
		PostEdit:        b.PostEdit,
		PostEditModel:   b.PostEditModel,
		TTSProvider:     b.TTSProvider,
		VoiceID:         b.VoiceID,
		Mux:             b.Mux,
		Quality:         b.Quality,
		MaxCostUSD:      b.MaxCost,
		TestMode:        b.TestMode,
		BreathDetection: b.BreathDetection,
	})
	if err != nil {
		return nil, apiError(err)
	}

	resp := &SubmitJobOutput{}
	resp.Body.JobID = job.ID.String()
	return resp, nil
}

// ListJobsInput is the input for listing jobs.
type ListJobsInput struct {
	Status string `query:"status" doc:"Filter by job status" enum:"queued,running,completed,failed,cancelled,"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListJobsOutput is the output for listing jobs.
type ListJobsOutput struct {
	Body struct {
		Jobs       []JobResponse  `json:"jobs"`
		Pagination PaginationMeta `json:"pagination"`
	}
}

// List returns jobs newest first.
func (h *JobHandler) List(ctx context.Context, input *ListJobsInput) (*ListJobsOutput, error) {
	jobs, total, err := h.jobService.List(ctx, repository.JobFilter{
		Status: models.JobStatus(input.Status),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list jobs", err)
	}

	resp := &ListJobsOutput{}
	resp.Body.Jobs = make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp.Body.Jobs = append(resp.Body.Jobs, JobFromModel(j))
	}
	resp.Body.Pagination = PaginationMeta{Total: total, Limit: input.Limit, Offset: input.Offset}
	return resp, nil
}

// GetJobInput is the input for getting a job.
type GetJobInput struct {
	ID string `path:"id" doc:"Job ID (ULID)"`
}

// GetJobOutput is the output for getting a job.
type GetJobOutput struct {
	Body JobResponse
}

// GetByID returns a job by ID.
func (h *JobHandler) GetByID(ctx context.Context, input *GetJobInput) (*GetJobOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("job %s not found", input.ID))
	}

	job, err := h.jobService.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}
	return &GetJobOutput{Body: JobFromModel(job)}, nil
}

// GetArtifactInput is the input for downloading a job artifact.
type GetArtifactInput struct {
	ID   string `path:"id" doc:"Job ID (ULID)"`
	Kind string `query:"kind" required:"true" doc:"Artifact kind" enum:"transcript,script,translation,audio,video"`
}

// GetArtifactOutput is the raw artifact response.
type GetArtifactOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// artifactContentTypes maps artifact kinds to their media types.
var artifactContentTypes = map[artifact.Kind]string{
	artifact.KindTranscript:  "text/plain; charset=utf-8",
	artifact.KindScript:      "text/plain; charset=utf-8",
	artifact.KindTranslation: "text/plain; charset=utf-8",
	artifact.KindAudio:       "audio/mpeg",
	artifact.KindVideo:       "video/mp4",
}

// GetArtifact returns one of the job's output files.
func (h *JobHandler) GetArtifact(ctx context.Context, input *GetArtifactInput) (*GetArtifactOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("job %s not found", input.ID))
	}

	art, err := h.jobService.FetchArtifact(ctx, id, artifact.Kind(input.Kind))
	if err != nil {
		return nil, apiError(err)
	}

	return &GetArtifactOutput{
		ContentType: artifactContentTypes[art.Kind],
		Body:        art.Data,
	}, nil
}

// CancelJobInput is the input for cancelling a job.
type CancelJobInput struct {
	ID string `path:"id" doc:"Job ID (ULID)"`
}

// CancelJobOutput is the output for cancelling a job.
type CancelJobOutput struct {
	Body JobResponse
}

// Cancel flags a job for cooperative cancellation.
func (h *JobHandler) Cancel(ctx context.Context, input *CancelJobInput) (*CancelJobOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("job %s not found", input.ID))
	}

	job, err := h.jobService.Cancel(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}
	return &CancelJobOutput{Body: JobFromModel(job)}, nil
}

// DeleteJobInput is the input for deleting a job.
type DeleteJobInput struct {
	ID string `path:"id" doc:"Job ID (ULID)"`
}

// DeleteJobOutput is the (empty) output for deleting a job.
type DeleteJobOutput struct{}

// Delete removes a terminal job and its artifacts.
func (h *JobHandler) Delete(ctx context.Context, input *DeleteJobInput) (*DeleteJobOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("job %s not found", input.ID))
	}

	if err := h.jobService.Delete(ctx, id); err != nil {
		return nil, apiError(err)
	}
	return &DeleteJobOutput{}, nil
}

// GetStatsInput is the input for the stats endpoint.
type GetStatsInput struct{}

// GetStatsOutput is the output for the stats endpoint.
type GetStatsOutput struct {
	Body service.Stats
}

// GetStats returns job counts by status and runner status.
func (h *JobHandler) GetStats(ctx context.Context, input *GetStatsInput) (*GetStatsOutput, error) {
	stats, err := h.jobService.GetStats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get stats", err)
	}
	return &GetStatsOutput{Body: *stats}, nil
}
