package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
)

func TestNewLoggerFormats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
		logger.Info("test message", slog.String("key", "value"))

		assert.Contains(t, buf.String(), `"key":"value"`)
		var parsed map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
		logger.Info("test message", slog.String("key", "value"))

		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("unknown format falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "banana"}, &buf)
		logger.Info("test message")

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	})
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		configLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelDebug, false},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelWarn, false},
		{"error", slog.LevelError, true},
		{"bogus", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(config.LoggingConfig{Level: tt.configLevel, Format: "json"}, &buf)
		logger.Log(context.Background(), tt.logLevel, "probe")
		if tt.shouldLog {
			assert.NotEmpty(t, buf.String(), "%s should log %v", tt.configLevel, tt.logLevel)
		} else {
			assert.Empty(t, buf.String(), "%s should drop %v", tt.configLevel, tt.logLevel)
		}
	}
}

func TestCustomTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{
		Level: "info", Format: "json", TimeFormat: "2006-01-02",
	}, &buf)
	logger.Info("test message")

	assert.Contains(t, buf.String(), time.Now().Format("2006-01-02"))
}

func TestAPIKeyRedaction(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
	}{
		{"api_key snake case", "api_key", "sk_live_12345"},
		{"APIKey camel case", "APIKey", "ak-67890"},
		{"provider key field", "ElevenLabsAPIKey", "el-abc123"},
		{"secret prefix", "secret_webhook", "hook-value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
			logger.Info("test message", slog.String(tt.fieldName, tt.value))

			assert.NotContains(t, buf.String(), tt.value)
			assert.Contains(t, buf.String(), "[REDACTED]")
		})
	}
}

func TestNonSensitiveDataNotRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("test message",
		slog.String("source_url", "http://example.com/v"),
		slog.String("voice_id", "hu-HU-Wavenet-A"),
		slog.Int("progress", 42),
	)

	out := buf.String()
	assert.Contains(t, out, "http://example.com/v")
	assert.Contains(t, out, "hu-HU-Wavenet-A")
	assert.Contains(t, out, "42")
}
