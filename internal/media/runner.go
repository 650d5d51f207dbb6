package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// maxStderrLines is how many recent stderr lines are kept in memory for
// error reporting.
const maxStderrLines = 100

// CommandResult reports a finished subprocess.
type CommandResult struct {
	ExitCode   int
	Duration   time.Duration
	Stdout     []byte
	StderrTail []string
}

// LastStderr returns the last captured stderr line, for error detail.
func (r *CommandResult) LastStderr() string {
	if len(r.StderrTail) == 0 {
		return ""
	}
	return r.StderrTail[len(r.StderrTail)-1]
}

// ExitError is returned when a subprocess exits non-zero. It carries the
// exit code and the tail of stderr.
type ExitError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
}

// Command is a single subprocess invocation with a deadline, bounded
// stderr capture, and kill-on-cancel. Every external binary runs through
// this helper.
type Command struct {
	Binary  string
	Args    []string
	Timeout time.Duration

	cmd     *exec.Cmd
	started time.Time
	mu      sync.RWMutex

	stderrLines []string
	stderrMu    sync.Mutex
}

// NewCommand creates a command. A zero timeout means the caller's context
// alone bounds execution.
func NewCommand(binary string, args ...string) *Command {
	return &Command{Binary: binary, Args: args}
}

// WithTimeout sets a deadline for the subprocess.
func (c *Command) WithTimeout(d time.Duration) *Command {
	c.Timeout = d
	return c
}

// String returns the command line for logging.
func (c *Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Run executes the command, draining stdout into memory and keeping the
// stderr tail. The process is killed when the context is cancelled or the
// timeout elapses. A non-zero exit returns an *ExitError alongside the
// result.
func (c *Command) Run(ctx context.Context, logger *slog.Logger) (*CommandResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.mu.Lock()
	c.cmd = exec.CommandContext(ctx, c.Binary, c.Args...)
	c.started = time.Now()
	cmd := c.cmd
	c.mu.Unlock()

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stderr pipe: %w", err)
	}

	logger.Debug("spawning subprocess", slog.String("command", c.String()))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", c.Binary, err)
	}

	stderrDone := make(chan struct{})
	go c.captureStderr(stderr, stderrDone)

	waitErr := cmd.Wait()
	<-stderrDone

	result := &CommandResult{
		ExitCode:   cmd.ProcessState.ExitCode(),
		Duration:   time.Since(c.started),
		Stdout:     stdout.Bytes(),
		StderrTail: c.StderrLines(),
	}

	if waitErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{
				Binary:   c.Binary,
				ExitCode: result.ExitCode,
				Stderr:   result.LastStderr(),
			}
		}
		return result, fmt.Errorf("running %s: %w", c.Binary, waitErr)
	}
	return result, nil
}

// captureStderr keeps the last maxStderrLines lines of stderr.
func (c *Command) captureStderr(r interface{ Read([]byte) (int, error) }, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		c.stderrMu.Lock()
		if len(c.stderrLines) >= maxStderrLines {
			c.stderrLines = c.stderrLines[1:]
		}
		c.stderrLines = append(c.stderrLines, line)
		c.stderrMu.Unlock()
	}
}

// StderrLines returns a copy of the recent stderr lines.
func (c *Command) StderrLines() []string {
	c.stderrMu.Lock()
	defer c.stderrMu.Unlock()
	lines := make([]string, len(c.stderrLines))
	copy(lines, c.stderrLines)
	return lines
}
