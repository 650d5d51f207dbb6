//nolint:errcheck,gocognit,gocyclo,nestif,gocritic,godot,wrapcheck,gosec,revive,goprintffuncname,modernize // E2E test runner uses relaxed linting
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIClient wraps HTTP calls to the yts API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// get performs a GET and returns the raw status and body.
func (c *APIClient) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// getJSON performs a GET, requires a 200, and decodes the body into out.
func (c *APIClient) getJSON(ctx context.Context, path string, out interface{}) error {
	status, body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d: %s", path, status, problemDetail(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

// postJSON performs a POST with an optional JSON body and returns the raw
// status and response body.
func (c *APIClient) postJSON(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// problemDetail extracts a readable message from an error response body.
// The API emits RFC 7807 problem documents; anything else is returned
// verbatim (truncated).
func problemDetail(body []byte) string {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message  string `json:"message"`
			Location string `json:"location"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &problem); err == nil && (problem.Detail != "" || problem.Title != "") {
		msg := problem.Detail
		if msg == "" {
			msg = problem.Title
		}
		for _, e := range problem.Errors {
			msg += "; " + e.Location + ": " + e.Message
		}
		return msg
	}
	return truncateString(strings.TrimSpace(string(body)), 200)
}

// HealthCheck verifies the API is accessible.
func (c *APIClient) HealthCheck(ctx context.Context) error {
	status, body, err := c.get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d: %s", status, problemDetail(body))
	}
	return nil
}

// Health fetches and decodes the full health document.
func (c *APIClient) Health(ctx context.Context) (*HealthInfo, error) {
	var health HealthInfo
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// OpenAPISpec fetches the generated OpenAPI document.
func (c *APIClient) OpenAPISpec(ctx context.Context) (map[string]interface{}, error) {
	var spec map[string]interface{}
	if err := c.getJSON(ctx, "/openapi.json", &spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// SubmitJob posts a job to one of the submission endpoints
// (/v1/transcribe, /v1/translate, /v1/synthesize, /v1/dub) and returns the
// new job ID.
func (c *APIClient) SubmitJob(ctx context.Context, path string, body map[string]interface{}) (string, error) {
	status, respBody, err := c.postJSON(ctx, path, body)
	if err != nil {
		return "", err
	}
	if status != http.StatusAccepted {
		return "", fmt.Errorf("POST %s returned status %d: %s", path, status, problemDetail(respBody))
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding submission response: %w", err)
	}
	if result.JobID == "" {
		return "", fmt.Errorf("submission response missing job_id")
	}
	return result.JobID, nil
}

// GetJob fetches a job by ID.
func (c *APIClient) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.getJSON(ctx, "/v1/jobs/"+id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobStatusCode returns only the HTTP status of a job lookup. Used to
// assert 404s without inventing a sentinel error.
func (c *APIClient) JobStatusCode(ctx context.Context, id string) (int, error) {
	status, _, err := c.get(ctx, "/v1/jobs/"+id)
	return status, err
}

// ListJobs fetches a page of jobs, optionally filtered by status.
func (c *APIClient) ListJobs(ctx context.Context, status string, limit, offset int) (*JobList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var list JobList
	if err := c.getJSON(ctx, "/v1/jobs?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetStats fetches the job statistics.
func (c *APIClient) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, "/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CancelJob requests cancellation and returns the updated job.
func (c *APIClient) CancelJob(ctx context.Context, id string) (*Job, error) {
	status, body, err := c.postJSON(ctx, "/v1/jobs/"+id+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("cancel returned status %d: %s", status, problemDetail(body))
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decoding cancel response: %w", err)
	}
	return &job, nil
}

// CancelStatusCode requests cancellation and returns only the HTTP status.
func (c *APIClient) CancelStatusCode(ctx context.Context, id string) (int, error) {
	status, _, err := c.postJSON(ctx, "/v1/jobs/"+id+"/cancel", nil)
	return status, err
}

// DeleteJob deletes a job and returns the HTTP status (204 on success, 400
// for jobs that are not terminal yet).
func (c *APIClient) DeleteJob(ctx context.Context, id string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/v1/jobs/"+id, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// FetchArtifact downloads one of a job's artifacts. Returns the HTTP
// status, the Content-Type, and the raw bytes.
func (c *APIClient) FetchArtifact(ctx context.Context, id, kind string) (int, string, []byte, error) {
	path := "/v1/jobs/" + id + "/artifact?kind=" + url.QueryEscape(kind)
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return 0, "", nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", nil, err
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), body, nil
}

// Providers fetches the synthesis provider catalog.
func (c *APIClient) Providers(ctx context.Context) ([]ProviderInfo, error) {
	var result struct {
		Providers []ProviderInfo `json:"providers"`
	}
	if err := c.getJSON(ctx, "/v1/tts-providers", &result); err != nil {
		return nil, err
	}
	return result.Providers, nil
}

// Voices fetches a provider's voices, optionally filtered by language.
// Returns the HTTP status so tests can assert 404 for unknown providers.
func (c *APIClient) Voices(ctx context.Context, provider, language string) (int, []Voice, error) {
	path := "/v1/tts-providers/" + url.PathEscape(provider) + "/voices"
	if language != "" {
		path += "?language=" + url.QueryEscape(language)
	}

	status, body, err := c.get(ctx, path)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var result struct {
		Provider string  `json:"provider"`
		Voices   []Voice `json:"voices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return status, nil, fmt.Errorf("decoding voices response: %w", err)
	}
	return status, result.Voices, nil
}

// CompareCosts fetches the cost comparison for a text. Returns the HTTP
// status so tests can assert rejections.
func (c *APIClient) CompareCosts(ctx context.Context, text, language string) (int, *CostComparisonInfo, error) {
	q := url.Values{}
	q.Set("text", text)
	if language != "" {
		q.Set("language", language)
	}

	status, body, err := c.get(ctx, "/v1/tts-cost-comparison?"+q.Encode())
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var cmp CostComparisonInfo
	if err := json.Unmarshal(body, &cmp); err != nil {
		return status, nil, fmt.Errorf("decoding cost comparison: %w", err)
	}
	return status, &cmp, nil
}

// WaitForTerminal polls a job until it reaches a terminal state or the
// deadline passes. The observe callback receives every polled snapshot,
// which the runner uses to build the progress timeline.
func (c *APIClient) WaitForTerminal(ctx context.Context, id string, deadline time.Duration, observe func(*Job)) (*Job, error) {
	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(StatusPollInterval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(waitCtx, id)
		if err != nil {
			return nil, err
		}
		if observe != nil {
			observe(job)
		}
		if job.IsTerminal() {
			return job, nil
		}

		select {
		case <-waitCtx.Done():
			return job, fmt.Errorf("job %s still %s after %v", id, job.Status, deadline)
		case <-ticker.C:
		}
	}
}
