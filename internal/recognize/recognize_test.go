package recognize

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

type fakeSpeechAPI struct {
	syncResp   *recognizeResponse
	syncErr    error
	syncCalls  int
	startErr   error
	startCalls int
	ops        []*operationStatus
	opErr      error
	opCalls    int
}

func (f *fakeSpeechAPI) Recognize(ctx context.Context, req *recognizeRequest) (*recognizeResponse, error) {
	f.syncCalls++
	return f.syncResp, f.syncErr
}

func (f *fakeSpeechAPI) StartLongRunning(ctx context.Context, req *recognizeRequest) (string, error) {
	f.startCalls++
	if f.startErr != nil {
		return "", f.startErr
	}
	return "op-1", nil
}

func (f *fakeSpeechAPI) GetOperation(ctx context.Context, name string) (*operationStatus, error) {
	if f.opErr != nil {
		return nil, f.opErr
	}
	op := f.ops[0]
	if len(f.ops) > 1 {
		f.ops = f.ops[1:]
	}
	f.opCalls++
	return op, nil
}

type fakeStore struct {
	puts    int
	deletes int
	putErr  error
}

func (f *fakeStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	return "gs://bucket/" + name, nil
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	f.deletes++
	return nil
}

func writeAudio(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.flac")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func wordsResponse() *recognizeResponse {
	return &recognizeResponse{
		Results: []recognitionResult{{
			Alternatives: []recognitionAlternative{{
				Confidence: 0.9,
				Words: []wordInfo{
					{Word: "jó", StartTime: "0.100s", EndTime: "0.400s", Confidence: 0.95},
					{Word: "napot", StartTime: "0.500s", EndTime: "0.900s"},
				},
			}},
		}},
	}
}

func newTestRecognizer(api speechAPI, store ObjectStore) *GoogleRecognizer {
	return &GoogleRecognizer{
		api:   api,
		store: store,
		cfg: config.SpeechConfig{
			SyncSizeLimit:   10 * 1024 * 1024,
			SyncDurationCap: 55 * time.Second,
			MaxDuration:     30 * time.Minute,
		},
		sampleRate:   16000,
		pollInterval: time.Millisecond,
		logger:       testLogger(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecognizeSyncPath(t *testing.T) {
	api := &fakeSpeechAPI{syncResp: wordsResponse()}
	store := &fakeStore{}
	r := newTestRecognizer(api, store)

	audio := AudioInfo{Path: writeAudio(t, 1024), SizeBytes: 1024, Duration: 30 * time.Second}

	var last int
	result, err := r.Recognize(context.Background(), audio, "hu-HU", func(p int) { last = p })
	require.NoError(t, err)

	assert.False(t, result.Staged)
	assert.Equal(t, 1, api.syncCalls)
	assert.Equal(t, 0, api.startCalls)
	assert.Equal(t, 0, store.puts)
	assert.Equal(t, 100, last)

	require.Len(t, result.Words, 2)
	assert.Equal(t, "jó", result.Words[0].Text)
	assert.InDelta(t, 0.1, result.Words[0].Start, 0.001)
	assert.InDelta(t, 0.95, result.Words[0].Confidence, 0.001)
	// Missing per-word confidence falls back to the alternative's.
	assert.InDelta(t, 0.9, result.Words[1].Confidence, 0.001)
}

func TestRecognizeSyncAtExactLimits(t *testing.T) {
	api := &fakeSpeechAPI{syncResp: wordsResponse()}
	r := newTestRecognizer(api, &fakeStore{})

	// Both limits are inclusive: exactly at the boundary stays synchronous.
	size := int64(10 * 1024 * 1024)
	audio := AudioInfo{Path: writeAudio(t, int(size)), SizeBytes: size, Duration: 55 * time.Second}

	result, err := r.Recognize(context.Background(), audio, "hu-HU", nil)
	require.NoError(t, err)
	assert.False(t, result.Staged)
	assert.Equal(t, 1, api.syncCalls)
}

func TestRecognizeStagedWhenOverSize(t *testing.T) {
	api := &fakeSpeechAPI{ops: []*operationStatus{
		{Done: false},
		{Done: true, Response: wordsResponse()},
	}}
	store := &fakeStore{}
	r := newTestRecognizer(api, store)
	r.cfg.SyncSizeLimit = 16

	audio := AudioInfo{Path: writeAudio(t, 32), SizeBytes: 32, Duration: 10 * time.Second}

	result, err := r.Recognize(context.Background(), audio, "hu-HU", nil)
	require.NoError(t, err)

	assert.True(t, result.Staged)
	assert.Equal(t, 0, api.syncCalls)
	assert.Equal(t, 1, api.startCalls)
	assert.Equal(t, 1, store.puts)
	assert.Equal(t, 1, store.deletes, "staged object should be cleaned up")
	assert.Len(t, result.Words, 2)
}

func TestRecognizeStagedWhenOverDuration(t *testing.T) {
	api := &fakeSpeechAPI{ops: []*operationStatus{{Done: true, Response: wordsResponse()}}}
	store := &fakeStore{}
	r := newTestRecognizer(api, store)

	audio := AudioInfo{Path: writeAudio(t, 64), SizeBytes: 64, Duration: 56 * time.Second}

	result, err := r.Recognize(context.Background(), audio, "hu-HU", nil)
	require.NoError(t, err)
	assert.True(t, result.Staged)
}

func TestRecognizeStagedProgressCapped(t *testing.T) {
	ops := make([]*operationStatus, 0, 6)
	for i := 0; i < 5; i++ {
		ops = append(ops, &operationStatus{Done: false})
	}
	ops = append(ops, &operationStatus{Done: true, Response: wordsResponse()})

	api := &fakeSpeechAPI{ops: ops}
	r := newTestRecognizer(api, &fakeStore{})
	r.cfg.SyncSizeLimit = 1

	// A tiny expected duration forces the estimate past the ceiling fast.
	audio := AudioInfo{Path: writeAudio(t, 64), SizeBytes: 64, Duration: time.Microsecond}

	var reports []int
	_, err := r.Recognize(context.Background(), audio, "hu-HU", func(p int) {
		reports = append(reports, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	for _, p := range reports[:len(reports)-1] {
		assert.LessOrEqual(t, p, stagedProgressCeiling)
	}
	assert.Equal(t, 100, reports[len(reports)-1])
}

func TestRecognizeStagedCleanupOnFailure(t *testing.T) {
	api := &fakeSpeechAPI{ops: []*operationStatus{
		{Done: true, Error: &operationError{Code: 500, Message: "backend blew up"}},
	}}
	store := &fakeStore{}
	r := newTestRecognizer(api, store)
	r.cfg.SyncSizeLimit = 1

	audio := AudioInfo{Path: writeAudio(t, 64), SizeBytes: 64, Duration: 10 * time.Second}

	_, err := r.Recognize(context.Background(), audio, "hu-HU", nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindTransientRemote, models.KindOf(err))
	assert.Equal(t, 1, store.deletes)
}

func TestRecognizeCancelDuringPoll(t *testing.T) {
	api := &fakeSpeechAPI{ops: []*operationStatus{{Done: false}}}
	store := &fakeStore{}
	r := newTestRecognizer(api, store)
	r.cfg.SyncSizeLimit = 1
	r.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	audio := AudioInfo{Path: writeAudio(t, 64), SizeBytes: 64, Duration: 10 * time.Minute}

	_, err := r.Recognize(ctx, audio, "hu-HU", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, store.deletes, "cancellation still cleans up the staged object")
}

func TestRecognizeRejectsOverlongAudio(t *testing.T) {
	r := newTestRecognizer(&fakeSpeechAPI{}, &fakeStore{})

	audio := AudioInfo{Path: writeAudio(t, 64), SizeBytes: 64, Duration: time.Hour}
	_, err := r.Recognize(context.Background(), audio, "hu-HU", nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindInvalidRequest, models.KindOf(err))
}

func TestClassifyRecognitionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"unsupported language", &remoteError{Status: 400, Body: "Invalid languageCode xx-XX"}, models.ErrorKindUnsupportedLanguage},
		{"bad encoding", &remoteError{Status: 400, Body: "Invalid audio encoding"}, models.ErrorKindAudioFormatRejected},
		{"quota", &remoteError{Status: 429, Body: "Quota exceeded"}, models.ErrorKindQuotaExceeded},
		{"server error", &remoteError{Status: 503, Body: "backend unavailable"}, models.ErrorKindTransientRemote},
		{"other rejection", &remoteError{Status: 400, Body: "bad request"}, models.ErrorKindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.KindOf(classifyRecognitionError(tt.err)))
		})
	}
}

func TestParseAPIDuration(t *testing.T) {
	assert.InDelta(t, 1.5, parseAPIDuration("1.500s"), 0.001)
	assert.InDelta(t, 0, parseAPIDuration("garbage"), 0.001)
}
