// Package artifact stores job outputs on disk. Every job owns one
// directory named by its ULID under the artifacts root; file names are
// deterministic per artifact kind so clients can address them without a
// listing.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// Kind identifies an artifact category addressable through the API.
type Kind string

const (
	KindTranscript  Kind = "transcript"
	KindScript      Kind = "script"
	KindTranslation Kind = "translation"
	KindAudio       Kind = "audio"
	KindVideo       Kind = "video"
)

// ValidKind reports whether k names a known artifact kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindTranscript, KindScript, KindTranslation, KindAudio, KindVideo:
		return true
	}
	return false
}

// FileName returns the deterministic file name for an artifact kind.
// language applies to translation, audio and video; ext to video only.
func FileName(kind Kind, language, ext string) string {
	switch kind {
	case KindTranscript:
		return "transcript.txt"
	case KindScript:
		return "script.txt"
	case KindTranslation:
		return fmt.Sprintf("translated.%s.txt", language)
	case KindAudio:
		return fmt.Sprintf("audio.%s.mp3", language)
	case KindVideo:
		return fmt.Sprintf("dubbed.%s.%s", language, ext)
	}
	return ""
}

// KindOfFile maps a stored file name back to its artifact kind.
func KindOfFile(name string) (Kind, bool) {
	switch {
	case name == "transcript.txt":
		return KindTranscript, true
	case name == "script.txt":
		return KindScript, true
	case strings.HasPrefix(name, "translated."):
		return KindTranslation, true
	case strings.HasPrefix(name, "audio."):
		return KindAudio, true
	case strings.HasPrefix(name, "dubbed."):
		return KindVideo, true
	}
	return "", false
}

// FindByKind returns the first artifact name of the given kind.
func FindByKind(names []string, kind Kind) (string, bool) {
	for _, n := range names {
		if k, ok := KindOfFile(n); ok && k == kind {
			return n, true
		}
	}
	return "", false
}

// Store manages the artifact and temp directories.
type Store struct {
	root     string
	tempRoot string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewStore creates the store and its directories.
func NewStore(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(cfg.ArtifactPath())
	if err != nil {
		return nil, fmt.Errorf("resolving artifact root: %w", err)
	}
	tempRoot, err := filepath.Abs(cfg.TempPath())
	if err != nil {
		return nil, fmt.Errorf("resolving temp root: %w", err)
	}
	for _, dir := range []string{root, tempRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Store{root: root, tempRoot: tempRoot, ttl: cfg.ArtifactTTL.Duration(), logger: logger}, nil
}

// resolve joins rel onto base and rejects anything that escapes it.
func resolve(base, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty path")
	}
	full := filepath.Join(base, filepath.Clean("/"+rel))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return full, nil
}

// JobDir creates and returns the job's artifact directory.
func (s *Store) JobDir(jobID models.ULID) (string, error) {
	dir, err := resolve(s.root, jobID.String())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating job dir: %w", err)
	}
	return dir, nil
}

// Write stores an artifact file for a job.
func (s *Store) Write(jobID models.ULID, name string, data []byte) error {
	dir, err := s.JobDir(jobID)
	if err != nil {
		return err
	}
	path, err := resolve(dir, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	s.logger.Debug("artifact written",
		slog.String("job_id", jobID.String()),
		slog.String("name", name),
		slog.Int("bytes", len(data)))
	return nil
}

// Path resolves an artifact file path, rejecting traversal. The file must
// exist.
func (s *Store) Path(jobID models.ULID, name string) (string, error) {
	dir, err := resolve(s.root, jobID.String())
	if err != nil {
		return "", err
	}
	path, err := resolve(dir, name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("artifact %s: %w", name, err)
	}
	return path, nil
}

// Read returns an artifact's contents.
func (s *Store) Read(jobID models.ULID, name string) ([]byte, error) {
	path, err := s.Path(jobID, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Remove deletes a job's artifact directory.
func (s *Store) Remove(jobID models.ULID) error {
	dir, err := resolve(s.root, jobID.String())
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// TempDir creates a fresh working directory for one pipeline run. The
// caller removes it when the run ends.
func (s *Store) TempDir(prefix string) (string, error) {
	return os.MkdirTemp(s.tempRoot, prefix+"-*")
}

// PurgeTemp removes everything under the temp root. Called at startup to
// clear leftovers from interrupted runs.
func (s *Store) PurgeTemp() error {
	entries, err := os.ReadDir(s.tempRoot)
	if err != nil {
		return fmt.Errorf("reading temp root: %w", err)
	}
	var removed int
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.tempRoot, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("temp storage purged", slog.Int("entries", removed))
	}
	return nil
}

// Sweep deletes job directories older than the artifact TTL, judged by the
// directory's modification time. Returns the number removed.
func (s *Store) Sweep(now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading artifact root: %w", err)
	}
	var removed int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > s.ttl {
			if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
				s.logger.Warn("failed to remove expired artifacts",
					slog.String("dir", e.Name()),
					slog.String("error", err.Error()))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired artifacts swept", slog.Int("jobs", removed))
	}
	return removed, nil
}
