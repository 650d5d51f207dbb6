package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

const defaultSpeechEndpoint = "https://speech.googleapis.com/v1"

// recognitionConfig is the request-side recognition configuration.
type recognitionConfig struct {
	Encoding              string `json:"encoding"`
	SampleRateHertz       int    `json:"sampleRateHertz"`
	LanguageCode          string `json:"languageCode"`
	EnableWordTimeOffsets bool   `json:"enableWordTimeOffsets"`
	EnableWordConfidence  bool   `json:"enableWordConfidence"`
	Model                 string `json:"model,omitempty"`
}

// recognitionAudio carries either inline content or an object store URI.
type recognitionAudio struct {
	Content string `json:"content,omitempty"`
	URI     string `json:"uri,omitempty"`
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type wordInfo struct {
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

type recognitionAlternative struct {
	Transcript string     `json:"transcript"`
	Confidence float64    `json:"confidence"`
	Words      []wordInfo `json:"words"`
}

type recognitionResult struct {
	Alternatives []recognitionAlternative `json:"alternatives"`
}

type recognizeResponse struct {
	Results []recognitionResult `json:"results"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationStatus struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Response *recognizeResponse `json:"response"`
	Error    *operationError    `json:"error"`
}

// parseAPIDuration parses backend durations of the form "12.340s".
func parseAPIDuration(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
	if err != nil {
		return 0
	}
	return v
}

// speechAPI is the remote recognition surface, split out so tests can fake
// the backend without HTTP.
type speechAPI interface {
	Recognize(ctx context.Context, req *recognizeRequest) (*recognizeResponse, error)
	StartLongRunning(ctx context.Context, req *recognizeRequest) (string, error)
	GetOperation(ctx context.Context, name string) (*operationStatus, error)
}

// speechClient talks to the speech backend over REST.
type speechClient struct {
	endpoint string
	apiKey   string
	client   *httpclient.Client
	logger   *slog.Logger
}

func newSpeechClient(endpoint, apiKey string, client *httpclient.Client, logger *slog.Logger) *speechClient {
	if endpoint == "" {
		endpoint = defaultSpeechEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &speechClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

func (c *speechClient) url(path string) string {
	return fmt.Sprintf("%s/%s?key=%s", c.endpoint, path, c.apiKey)
}

func (c *speechClient) post(ctx context.Context, path string, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	resp, err := c.client.Post(ctx, c.url(path), body, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}
	return c.decode(resp, out)
}

func (c *speechClient) decode(resp *http.Response, out any) error {
	data, err := c.client.ReadBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &remoteError{Status: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// remoteError is a non-retryable backend rejection, kept verbatim for
// classification.
type remoteError struct {
	Status int
	Body   string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("speech backend returned %d: %s", e.Status, e.Body)
}

func (c *speechClient) Recognize(ctx context.Context, req *recognizeRequest) (*recognizeResponse, error) {
	var out recognizeResponse
	if err := c.post(ctx, "speech:recognize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *speechClient) StartLongRunning(ctx context.Context, req *recognizeRequest) (string, error) {
	var out operationStatus
	if err := c.post(ctx, "speech:longrunningrecognize", req, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", fmt.Errorf("backend returned no operation name")
	}
	return out.Name, nil
}

func (c *speechClient) GetOperation(ctx context.Context, name string) (*operationStatus, error) {
	resp, err := c.client.Get(ctx, c.url("operations/"+name), nil)
	if err != nil {
		return nil, err
	}
	var out operationStatus
	if err := c.decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
