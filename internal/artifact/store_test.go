package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := NewStore(config.StorageConfig{
		BaseDir:     t.TempDir(),
		ArtifactDir: "artifacts",
		TempDir:     "temp",
		ArtifactTTL: config.Duration(ttl),
	}, nil)
	require.NoError(t, err)
	return s
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "transcript.txt", FileName(KindTranscript, "", ""))
	assert.Equal(t, "script.txt", FileName(KindScript, "", ""))
	assert.Equal(t, "translated.en-US.txt", FileName(KindTranslation, "en-US", ""))
	assert.Equal(t, "audio.en-US.mp3", FileName(KindAudio, "en-US", ""))
	assert.Equal(t, "dubbed.en-US.mp4", FileName(KindVideo, "en-US", "mp4"))
}

func TestKindOfFileRoundTrip(t *testing.T) {
	for _, name := range []string{
		"transcript.txt", "script.txt",
		"translated.de-DE.txt", "audio.hu-HU.mp3", "dubbed.en-US.mp4",
	} {
		k, ok := KindOfFile(name)
		require.True(t, ok, name)
		assert.Equal(t, name, FileName(k, kindLang(name), "mp4"), name)
	}

	_, ok := KindOfFile("random.bin")
	assert.False(t, ok)
}

// kindLang extracts the language segment of a three-part artifact name.
func kindLang(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) == 3 {
		return parts[1]
	}
	return ""
}

func TestFindByKind(t *testing.T) {
	names := []string{"transcript.txt", "audio.en-US.mp3"}
	got, ok := FindByKind(names, KindAudio)
	require.True(t, ok)
	assert.Equal(t, "audio.en-US.mp3", got)

	_, ok = FindByKind(names, KindVideo)
	assert.False(t, ok)
}

func TestWriteAndRead(t *testing.T) {
	s := newTestStore(t, 0)
	jobID := models.NewULID()

	require.NoError(t, s.Write(jobID, "transcript.txt", []byte("[0:00:01] hello")))

	data, err := s.Read(jobID, "transcript.txt")
	require.NoError(t, err)
	assert.Equal(t, "[0:00:01] hello", string(data))

	path, err := s.Path(jobID, "transcript.txt")
	require.NoError(t, err)
	assert.Contains(t, path, jobID.String())
}

func TestPathRejectsTraversal(t *testing.T) {
	s := newTestStore(t, 0)
	jobID := models.NewULID()
	require.NoError(t, s.Write(jobID, "transcript.txt", []byte("x")))

	for _, name := range []string{"../other/transcript.txt", "../../etc/passwd"} {
		// Join-and-clean confines these inside the job dir, so the worst
		// case is a miss, never an escape.
		_, err := s.Path(jobID, name)
		assert.Error(t, err, name)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, 0)
	jobID := models.NewULID()
	require.NoError(t, s.Write(jobID, "transcript.txt", []byte("x")))

	require.NoError(t, s.Remove(jobID))
	_, err := s.Path(jobID, "transcript.txt")
	assert.Error(t, err)
}

func TestPurgeTemp(t *testing.T) {
	s := newTestStore(t, 0)

	dir, err := s.TempDir("job")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.flac"), []byte("x"), 0o644))

	require.NoError(t, s.PurgeTemp())
	entries, err := os.ReadDir(s.tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweepRemovesExpired(t *testing.T) {
	s := newTestStore(t, time.Hour)

	oldJob := models.NewULID()
	freshJob := models.NewULID()
	require.NoError(t, s.Write(oldJob, "transcript.txt", []byte("x")))
	require.NoError(t, s.Write(freshJob, "transcript.txt", []byte("x")))

	// Age the first job dir past the TTL.
	oldDir := filepath.Join(s.root, oldJob.String())
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, past, past))

	removed, err := s.Sweep(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Path(oldJob, "transcript.txt")
	assert.Error(t, err)
	_, err = s.Path(freshJob, "transcript.txt")
	assert.NoError(t, err)
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	s := newTestStore(t, 0)
	jobID := models.NewULID()
	require.NoError(t, s.Write(jobID, "transcript.txt", []byte("x")))

	removed, err := s.Sweep(time.Now().Add(1000 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}
