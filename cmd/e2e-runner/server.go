package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// mediaTools are the binaries yts refuses to boot without.
var mediaTools = []struct {
	name   string
	envVar string
}{
	{"ffmpeg", "YTS_FFMPEG_BINARY"},
	{"ffprobe", "YTS_FFPROBE_BINARY"},
	{"yt-dlp", "YTS_YTDLP_BINARY"},
}

// missingMediaTools returns the names of required media binaries that
// cannot be found, mirroring the server's own lookup order: environment
// override, then PATH.
func missingMediaTools() []string {
	var missing []string
	for _, tool := range mediaTools {
		if envPath := os.Getenv(tool.envVar); envPath != "" {
			if info, err := os.Stat(envPath); err == nil && !info.IsDir() {
				continue
			}
		}
		if _, err := exec.LookPath(tool.name); err != nil {
			missing = append(missing, tool.name)
		}
	}
	return missing
}

// findFreePort finds an available high port (never 8080) for the E2E server.
func findFreePort() (int, error) {
	// Listen on port 0 to get a random free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find free port: %w", err)
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port

	// Never use port 8080 (reserved for local dev instances)
	if port == 8080 {
		return findFreePort() // Recursively try again
	}

	return port, nil
}

// ManagedServer represents a yts server managed by the E2E runner.
type ManagedServer struct {
	cmd       *exec.Cmd
	port      int
	dataDir   string
	baseURL   string
	startErr  error
	logBuffer *logCapture
	logFiles  *LogFiles
}

// NewManagedServer creates a new yts server on a random port with its own
// database and data directory. If logFiles is provided, server output will
// also be written to those files.
func NewManagedServer(binaryPath string, workers int, logFiles *LogFiles) (*ManagedServer, error) {
	port, err := findFreePort()
	if err != nil {
		return nil, err
	}

	// Create unique data directory
	dataDir := filepath.Join(os.TempDir(), fmt.Sprintf("yts-e2e-%d-%d", port, time.Now().UnixNano()))
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	cmd := exec.Command(binaryPath, "serve",
		"--host", "127.0.0.1",
		"--port", fmt.Sprintf("%d", port),
		"--database", filepath.Join(dataDir, "yts.db"),
		"--data-dir", filepath.Join(dataDir, "data"),
		"--workers", fmt.Sprintf("%d", workers),
	)

	// Run out of the data directory so a config.yaml in the invoking
	// directory cannot leak into the server under test. The long worker
	// poll interval keeps freshly submitted jobs in the queued state for
	// the duration of the lifecycle tests.
	cmd.Dir = dataDir
	cmd.Env = append(os.Environ(),
		"YTS_LOGGING_LEVEL=debug",
		"YTS_LOGGING_FORMAT=json",
		fmt.Sprintf("YTS_JOBS_POLL_INTERVAL=%s", QueuePollInterval),
	)

	// Set up output writers
	var stdoutWriter, stderrWriter io.Writer

	if logFiles != nil {
		// Write only to log files (hide from console)
		stdoutWriter = logFiles.StdoutFile
		stderrWriter = logFiles.StderrFile
	} else {
		// No log files - write to stderr for visibility
		stdoutWriter = os.Stderr
		stderrWriter = os.Stderr
	}

	// yts logs through slog onto stderr, so the capture buffer used by
	// LogContains wraps the stderr stream.
	logBuffer := newLogCapture(stderrWriter)
	cmd.Stdout = stdoutWriter
	cmd.Stderr = logBuffer

	ms := &ManagedServer{
		cmd:       cmd,
		port:      port,
		dataDir:   dataDir,
		baseURL:   baseURL,
		logBuffer: logBuffer,
		logFiles:  logFiles,
	}

	return ms, nil
}

// Start starts the managed server and waits for it to be ready.
func (ms *ManagedServer) Start(ctx context.Context) error {
	if err := ms.cmd.Start(); err != nil {
		ms.startErr = err
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Wait for server to be ready (up to 30 seconds)
	client := &http.Client{Timeout: HealthCheckTimeout}
	healthURL := ms.baseURL + "/health"

	for i := 0; i < 30; i++ {
		select {
		case <-ctx.Done():
			ms.Stop()
			return ctx.Err()
		default:
		}

		req, _ := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(time.Second)
	}

	ms.Stop()
	return fmt.Errorf("server failed to become ready within 30 seconds")
}

// Stop stops the managed server and cleans up.
func (ms *ManagedServer) Stop() {
	if ms.cmd != nil && ms.cmd.Process != nil {
		// Send SIGTERM for graceful shutdown
		ms.cmd.Process.Signal(syscall.SIGTERM)

		// Wait a bit then force kill if needed
		done := make(chan error, 1)
		go func() {
			done <- ms.cmd.Wait()
		}()

		select {
		case <-done:
			// Process exited
		case <-time.After(ProcessKillTimeout):
			// Force kill
			ms.cmd.Process.Kill()
			<-done
		}
	}

	// Cleanup data directory
	if ms.dataDir != "" {
		os.RemoveAll(ms.dataDir)
	}
}

// Port returns the port the server is running on.
func (ms *ManagedServer) Port() int {
	return ms.port
}

// BaseURL returns the base URL for the server.
func (ms *ManagedServer) BaseURL() string {
	return ms.baseURL
}

// DataDir returns the data directory path.
func (ms *ManagedServer) DataDir() string {
	return ms.dataDir
}

// LogContains checks if the server logs contain a specific string.
func (ms *ManagedServer) LogContains(s string) bool {
	if ms.logBuffer == nil {
		return false
	}
	return ms.logBuffer.Contains(s)
}
