// Package media wraps the external media toolchain: yt-dlp for downloads,
// ffmpeg for decoding and muxing, ffprobe for stream inspection. All
// subprocesses run through a single spawn-with-deadline helper.
package media

import (
	"fmt"
	"os"
	"os/exec"
)

// Toolchain holds resolved paths to the external binaries.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
	Ytdlp   string
}

// ResolveToolchain locates the external binaries. Explicit paths win;
// empty paths fall back to env var, ./name, then $PATH lookup.
func ResolveToolchain(ffmpegPath, ffprobePath, ytdlpPath string) (*Toolchain, error) {
	tc := &Toolchain{}
	var err error

	if tc.FFmpeg, err = resolveBinary(ffmpegPath, "ffmpeg", "YTS_FFMPEG_BINARY"); err != nil {
		return nil, err
	}
	if tc.FFprobe, err = resolveBinary(ffprobePath, "ffprobe", "YTS_FFPROBE_BINARY"); err != nil {
		return nil, err
	}
	if tc.Ytdlp, err = resolveBinary(ytdlpPath, "yt-dlp", "YTS_YTDLP_BINARY"); err != nil {
		return nil, err
	}
	return tc, nil
}

func resolveBinary(explicit, name, envVar string) (string, error) {
	if explicit != "" {
		if !isExecutable(explicit) {
			return "", fmt.Errorf("configured %s binary %q is not executable", name, explicit)
		}
		return explicit, nil
	}
	return FindBinary(name, envVar)
}

// FindBinary searches for an executable binary by name.
// Search order:
//  1. Environment variable (if envVar is non-empty and set)
//  2. ./name (current directory, useful for development)
//  3. name on PATH (via exec.LookPath)
func FindBinary(name string, envVar string) (string, error) {
	if envVar != "" {
		if envPath := os.Getenv(envVar); envPath != "" {
			if isExecutable(envPath) {
				return envPath, nil
			}
		}
	}

	localPath := "./" + name
	if isExecutable(localPath) {
		return localPath, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("binary %s not found", name)
}

// isExecutable checks if a file exists and is executable by the current user.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
