package main

import (
	"fmt"
	"strings"
	"time"
)

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// isTimestampLine reports whether a transcript line starts with an
// "[h:mm:ss]" timestamp.
func isTimestampLine(line string) bool {
	if !strings.HasPrefix(line, "[") {
		return false
	}
	end := strings.Index(line, "]")
	if end < 2 {
		return false
	}
	stamp := line[1:end]
	parts := strings.Split(stamp, ":")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// ValidateTranscript checks that the transcript content has at least one
// timestamped line and returns the line count.
func ValidateTranscript(content string) (lineCount int, err error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("invalid transcript: empty content")
	}

	for _, line := range strings.Split(content, "\n") {
		if isTimestampLine(line) {
			lineCount++
		}
	}
	if lineCount == 0 {
		return 0, fmt.Errorf("invalid transcript: no timestamped lines found")
	}
	return lineCount, nil
}
