package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger(t *testing.T) {
	t.Run("writes structured JSON with service and fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, "gallery-test", LevelInfo, FormatJSON)

		logger.WithField("operation", "ListPhotos").Errorf("query failed: %s", "timeout")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "error", entries[0]["level"])
		assert.Equal(t, "query failed: timeout", entries[0]["msg"])
		assert.Equal(t, "gallery-test", entries[0]["service"])
		assert.Equal(t, "ListPhotos", entries[0]["operation"])
	})

	t.Run("drops entries below the minimum level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, "gallery-test", LevelWarn, FormatJSON)

		logger.Info("ignored")
		logger.Debugf("ignored %d", 1)
		logger.Warn("kept")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "kept", entries[0]["msg"])
	})

	t.Run("WithFields does not leak into the parent logger", func(t *testing.T) {
		var buf bytes.Buffer
		parent := NewLoggerTo(&buf, "gallery-test", LevelInfo, FormatJSON)

		parent.WithFields(map[string]interface{}{"slug": "iceland"}).Info("child")
		parent.Info("parent")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "iceland", entries[0]["slug"])
		assert.NotContains(t, entries[1], "slug")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}
