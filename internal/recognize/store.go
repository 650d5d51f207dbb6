package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

const defaultStorageEndpoint = "https://storage.googleapis.com"

// ObjectStore stages audio for long-running recognition. Objects are
// short-lived: the recognizer deletes them as soon as the operation
// finishes, success or not.
type ObjectStore interface {
	// Put uploads data under name and returns the URI the speech backend
	// should read it from.
	Put(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// bucketStore is an ObjectStore backed by a cloud storage bucket's JSON
// upload API.
type bucketStore struct {
	endpoint string
	bucket   string
	apiKey   string
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewBucketStore creates an object store for the given bucket.
func NewBucketStore(bucket, apiKey string, client *httpclient.Client, logger *slog.Logger) ObjectStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &bucketStore{
		endpoint: defaultStorageEndpoint,
		bucket:   bucket,
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

func (s *bucketStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	uploadURL := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s&key=%s",
		s.endpoint, s.bucket, url.QueryEscape(name), s.apiKey)

	resp, err := s.client.Post(ctx, uploadURL, data, map[string]string{
		"Content-Type": "audio/flac",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	body, err := s.client.ReadBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload of %s rejected: %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.logger.Debug("audio staged for recognition",
		slog.String("bucket", s.bucket),
		slog.String("object", name),
		slog.Int("bytes", len(data)))
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func (s *bucketStore) Delete(ctx context.Context, name string) error {
	deleteURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s?key=%s",
		s.endpoint, s.bucket, url.PathEscape(name), s.apiKey)

	req, err := httpclient.NewRequest(ctx, http.MethodDelete, deleteURL, nil, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete of %s rejected: %d", name, resp.StatusCode)
	}
	return nil
}
