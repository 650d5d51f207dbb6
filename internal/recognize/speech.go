package recognize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/transcript"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/httpclient"
)

const (
	recognitionEncoding = "FLAC"
	recognitionModel    = "latest_long"

	// stagedProgressCeiling caps elapsed-time progress estimation until the
	// operation actually reports done.
	stagedProgressCeiling = 90
)

// GoogleRecognizer recognizes speech through the cloud speech backend.
type GoogleRecognizer struct {
	api          speechAPI
	store        ObjectStore
	cfg          config.SpeechConfig
	sampleRate   int
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewGoogleRecognizer creates a recognizer from configuration.
func NewGoogleRecognizer(cfg config.SpeechConfig, client *httpclient.Client, logger *slog.Logger) *GoogleRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleRecognizer{
		api:          newSpeechClient(cfg.Endpoint, cfg.APIKey, client, logger),
		store:        NewBucketStore(cfg.Bucket, cfg.APIKey, client, logger),
		cfg:          cfg,
		sampleRate:   16000,
		pollInterval: cfg.PollInterval,
		logger:       logger,
	}
}

// useSyncPath reports whether the audio is small and short enough for the
// synchronous endpoint. Both limits are inclusive.
func (r *GoogleRecognizer) useSyncPath(audio AudioInfo) bool {
	return audio.SizeBytes <= int64(r.cfg.SyncSizeLimit) && audio.Duration <= r.cfg.SyncDurationCap
}

// Recognize converts audio to timed words, picking the sync or staged path
// by size and duration.
func (r *GoogleRecognizer) Recognize(ctx context.Context, audio AudioInfo, language string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(int) {}
	}
	if r.cfg.MaxDuration > 0 && audio.Duration > r.cfg.MaxDuration {
		return nil, models.NewJobError(models.ErrorKindInvalidRequest, "recognize",
			fmt.Sprintf("audio duration %s exceeds the %s limit", audio.Duration, r.cfg.MaxDuration))
	}

	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return nil, models.WrapJobError(models.ErrorKindInternal, "recognize",
			fmt.Errorf("reading audio: %w", err))
	}

	req := &recognizeRequest{
		Config: recognitionConfig{
			Encoding:              recognitionEncoding,
			SampleRateHertz:       r.sampleRate,
			LanguageCode:          language,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
			Model:                 recognitionModel,
		},
	}

	if r.useSyncPath(audio) {
		req.Audio.Content = base64.StdEncoding.EncodeToString(data)
		r.logger.Info("recognizing audio synchronously",
			slog.Int64("bytes", audio.SizeBytes),
			slog.Duration("duration", audio.Duration))

		resp, err := r.api.Recognize(ctx, req)
		if err != nil {
			return nil, classifyRecognitionError(err)
		}
		progress(100)
		return &Result{Words: collectWords(resp)}, nil
	}

	words, err := r.recognizeStaged(ctx, req, audio, data, progress)
	if err != nil {
		return nil, err
	}
	progress(100)
	return &Result{Words: words, Staged: true}, nil
}

// recognizeStaged uploads the audio, starts a long-running operation and
// polls it to completion. The staged object is removed on every exit path.
func (r *GoogleRecognizer) recognizeStaged(ctx context.Context, req *recognizeRequest, audio AudioInfo, data []byte, progress ProgressFunc) ([]transcript.Word, error) {
	objectName := fmt.Sprintf("recognition/%d-%d.flac", time.Now().UnixNano(), rand.Int31())

	uri, err := r.store.Put(ctx, objectName, data)
	if err != nil {
		return nil, classifyRecognitionError(err)
	}
	defer func() {
		// Best effort: the object has no value once the operation ends.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.store.Delete(cleanupCtx, objectName); err != nil {
			r.logger.Warn("failed to delete staged audio",
				slog.String("object", objectName),
				slog.String("error", err.Error()))
		}
	}()

	req.Audio.URI = uri
	opName, err := r.api.StartLongRunning(ctx, req)
	if err != nil {
		return nil, classifyRecognitionError(err)
	}

	r.logger.Info("long-running recognition started",
		slog.String("operation", opName),
		slog.Int64("bytes", audio.SizeBytes),
		slog.Duration("duration", audio.Duration))

	return r.poll(ctx, opName, audio.Duration, progress)
}

// poll waits for the operation, reporting elapsed-time progress capped at
// stagedProgressCeiling until the backend says done.
func (r *GoogleRecognizer) poll(ctx context.Context, opName string, audioDuration time.Duration, progress ProgressFunc) ([]transcript.Word, error) {
	// The backend typically processes audio faster than realtime; the audio
	// duration serves as the expected processing time.
	expected := audioDuration
	if expected <= 0 {
		expected = time.Minute
	}
	start := time.Now()

	for {
		if err := sleepJittered(ctx, r.pollInterval); err != nil {
			return nil, err
		}

		op, err := r.api.GetOperation(ctx, opName)
		if err != nil {
			return nil, classifyRecognitionError(err)
		}

		if op.Done {
			if op.Error != nil {
				return nil, classifyRecognitionError(&remoteError{
					Status: op.Error.Code,
					Body:   op.Error.Message,
				})
			}
			if op.Response == nil {
				return nil, models.NewJobError(models.ErrorKindTransientRemote, "recognize",
					"operation finished without a response")
			}
			return collectWords(op.Response), nil
		}

		pct := int(float64(time.Since(start)) / float64(expected) * 100)
		if pct > stagedProgressCeiling {
			pct = stagedProgressCeiling
		}
		progress(pct)
	}
}

// collectWords flattens the backend response into a word stream, keeping
// only the top alternative of each result.
func collectWords(resp *recognizeResponse) []transcript.Word {
	var words []transcript.Word
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		for _, w := range alt.Words {
			conf := w.Confidence
			if conf == 0 {
				conf = alt.Confidence
			}
			words = append(words, transcript.Word{
				Text:       w.Word,
				Start:      parseAPIDuration(w.StartTime),
				End:        parseAPIDuration(w.EndTime),
				Confidence: conf,
			})
		}
	}
	return words
}

// classifyRecognitionError maps backend failures onto job error kinds.
func classifyRecognitionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, httpclient.ErrQuotaExceeded) {
		return models.WrapJobError(models.ErrorKindQuotaExceeded, "recognize", err)
	}
	if errors.Is(err, httpclient.ErrMaxRetries) {
		return models.WrapJobError(models.ErrorKindTransientNetwork, "recognize", err)
	}

	var remote *remoteError
	if errors.As(err, &remote) {
		msg := strings.ToLower(remote.Body)
		switch {
		case strings.Contains(msg, "language"):
			return models.WrapJobError(models.ErrorKindUnsupportedLanguage, "recognize", err).
				WithRemoteDetail(remote.Body)
		case strings.Contains(msg, "encoding"),
			strings.Contains(msg, "sample rate"),
			strings.Contains(msg, "audio"):
			return models.WrapJobError(models.ErrorKindAudioFormatRejected, "recognize", err).
				WithRemoteDetail(remote.Body)
		case remote.Status == 429, strings.Contains(msg, "quota"):
			return models.WrapJobError(models.ErrorKindQuotaExceeded, "recognize", err).
				WithRemoteDetail(remote.Body)
		case remote.Status >= 500:
			return models.WrapJobError(models.ErrorKindTransientRemote, "recognize", err).
				WithRemoteDetail(remote.Body)
		default:
			return models.WrapJobError(models.ErrorKindInvalidRequest, "recognize", err).
				WithRemoteDetail(remote.Body)
		}
	}
	return models.WrapJobError(models.ErrorKindTransientNetwork, "recognize", err)
}

// sleepJittered sleeps for d plus up to 25% jitter, honoring cancellation.
func sleepJittered(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
