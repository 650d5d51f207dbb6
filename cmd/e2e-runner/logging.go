package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// logCapture tees server output into a buffer so tests can assert on log
// lines while the output still reaches the log file.
type logCapture struct {
	mu     sync.Mutex
	buffer bytes.Buffer
	writer io.Writer
}

func newLogCapture(w io.Writer) *logCapture {
	return &logCapture{writer: w}
}

func (lc *logCapture) Write(p []byte) (int, error) {
	lc.mu.Lock()
	lc.buffer.Write(p)
	lc.mu.Unlock()
	return lc.writer.Write(p)
}

// Contains reports whether the captured output includes s.
func (lc *logCapture) Contains(s string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return bytes.Contains(lc.buffer.Bytes(), []byte(s))
}

func (lc *logCapture) String() string {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.buffer.String()
}

// LogFiles holds the stdout/stderr capture files for the managed yts server.
type LogFiles struct {
	StdoutFile *os.File
	StderrFile *os.File
	logDir     string
}

// SetupLogFiles creates ./logs and opens fresh capture files in it.
func SetupLogFiles() (*LogFiles, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(wd, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	stdoutFile, err := os.Create(filepath.Join(logDir, "stdout.log"))
	if err != nil {
		return nil, err
	}
	stderrFile, err := os.Create(filepath.Join(logDir, "stderr.log"))
	if err != nil {
		stdoutFile.Close()
		return nil, err
	}
	return &LogFiles{StdoutFile: stdoutFile, StderrFile: stderrFile, logDir: logDir}, nil
}

// Close closes both capture files.
func (lf *LogFiles) Close() {
	if lf.StdoutFile != nil {
		lf.StdoutFile.Close()
	}
	if lf.StderrFile != nil {
		lf.StderrFile.Close()
	}
}

// Dir returns the log directory path.
func (lf *LogFiles) Dir() string {
	return lf.logDir
}
