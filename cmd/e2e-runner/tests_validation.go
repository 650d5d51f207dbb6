//nolint:errcheck,gocognit,gocyclo,nestif,gocritic,godot,wrapcheck,gosec,revive,goprintffuncname,modernize // E2E test runner uses relaxed linting
package main

import (
	"context"
	"fmt"
	"net/http"
)

// absentJobID is a syntactically valid ULID that no job will ever have.
const absentJobID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

// runValidationTests verifies that bad submissions are rejected before a
// job is created. Schema-level violations are rejected by the request
// validator (422); semantic ones by the job service (400/404).
func (r *E2ERunner) runValidationTests(ctx context.Context) {
	cases := []struct {
		name       string
		info       string
		path       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "Reject Missing Source",
			info:       "POST /v1/transcribe with empty body - expect 400",
			path:       "/v1/transcribe",
			body:       map[string]interface{}{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Reject Bad URL Scheme",
			info:       "POST /v1/transcribe with ftp:// source - expect 400",
			path:       "/v1/transcribe",
			body:       map[string]interface{}{"source_url": "ftp://example.com/video.mp4"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Reject Missing Target Language",
			info:       "POST /v1/translate without target_language - expect 400",
			path:       "/v1/translate",
			body:       map[string]interface{}{"source_url": "https://example.com/video.mp4"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Reject Bad Language Tag",
			info: "POST /v1/transcribe with invalid source_language - expect 400",
			path: "/v1/transcribe",
			body: map[string]interface{}{
				"source_url":      "https://example.com/video.mp4",
				"source_language": "zz_not_a_tag!",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Reject Unknown Quality",
			info: "POST /v1/transcribe with quality=ultra - expect schema rejection",
			path: "/v1/transcribe",
			body: map[string]interface{}{
				"source_url": "https://example.com/video.mp4",
				"quality":    "ultra",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Reject Negative Cost Cap",
			info: "POST /v1/transcribe with max_cost=-1 - expect schema rejection",
			path: "/v1/transcribe",
			body: map[string]interface{}{
				"source_url": "https://example.com/video.mp4",
				"max_cost":   -1,
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Reject Unknown Provider",
			info: "POST /v1/synthesize with tts_provider=acme - expect 400",
			path: "/v1/synthesize",
			body: map[string]interface{}{
				"input_text":   "Hello there.",
				"tts_provider": "acme",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Reject Unknown Voice",
			info: "POST /v1/synthesize with a voice the provider lacks - expect 404",
			path: "/v1/synthesize",
			body: map[string]interface{}{
				"input_text":   "Hello there.",
				"tts_provider": "google",
				"voice_id":     "no-such-voice",
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		tc := tc
		r.runTestWithInfo(tc.name, tc.info, func() error {
			status, body, err := r.client.postJSON(ctx, tc.path, tc.body)
			if err != nil {
				return err
			}
			if status != tc.wantStatus {
				return fmt.Errorf("expected status %d, got %d: %s",
					tc.wantStatus, status, problemDetail(body))
			}
			return nil
		})
	}

	r.runTestWithInfo("Rejections Create No Jobs", "GET /v1/jobs - rejected submissions left no rows", func() error {
		list, err := r.client.ListJobs(ctx, "", 10, 0)
		if err != nil {
			return err
		}
		if list.Pagination.Total != 0 {
			return fmt.Errorf("expected 0 jobs after rejected submissions, found %d", list.Pagination.Total)
		}
		return nil
	})

	r.runTestWithInfo("Unknown Job Lookup", "GET /v1/jobs/{id} for absent and malformed IDs - expect 404", func() error {
		for _, id := range []string{absentJobID, "not-a-ulid"} {
			status, err := r.client.JobStatusCode(ctx, id)
			if err != nil {
				return err
			}
			if status != http.StatusNotFound {
				return fmt.Errorf("lookup of %q returned %d, expected 404", id, status)
			}
		}
		return nil
	})

	r.runTestWithInfo("Unknown Job Cancel", "POST /v1/jobs/{id}/cancel for an absent ID - expect 404", func() error {
		status, err := r.client.CancelStatusCode(ctx, absentJobID)
		if err != nil {
			return err
		}
		if status != http.StatusNotFound {
			return fmt.Errorf("expected status 404, got %d", status)
		}
		return nil
	})

	r.runTestWithInfo("Unknown Job Delete", "DELETE /v1/jobs/{id} for an absent ID - expect 404", func() error {
		status, err := r.client.DeleteJob(ctx, absentJobID)
		if err != nil {
			return err
		}
		if status != http.StatusNotFound {
			return fmt.Errorf("expected status 404, got %d", status)
		}
		return nil
	})
}
