package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Standard Go format
		{"hours", "168h", 168 * time.Hour, false},
		{"minutes", "30m", 30 * time.Minute, false},
		{"combined standard", "1h30m", 90 * time.Minute, false},

		// Extended units
		{"days", "7d", 7 * 24 * time.Hour, false},
		{"weeks", "2w", 14 * 24 * time.Hour, false},
		{"weeks days hours", "1w2d12h", 9*24*time.Hour + 12*time.Hour, false},

		{"zero", "0s", 0, false},

		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	err := d.UnmarshalText([]byte("7d"))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d.Duration())
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected time.Duration
	}{
		{"string format", `"7d"`, 7 * 24 * time.Hour},
		{"standard hours", `"168h"`, 168 * time.Hour},
		{"nanoseconds int", `604800000000000`, 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.json), &d)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration(7 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, `"1w"`, string(data))
}

func TestDuration_String(t *testing.T) {
	assert.Equal(t, "1w", Duration(7*24*time.Hour).String())
	assert.Equal(t, "2d12h", Duration(60*time.Hour).String())
	assert.Equal(t, "0s", Duration(0).String())
}
