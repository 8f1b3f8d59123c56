package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	var buf bytes.Buffer
	Initialize(Config{Level: level, Format: "json", Output: &buf})
	t.Cleanup(func() {
		Initialize(Config{Level: "info", Format: "console"})
	})
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	var events []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}
	return events
}

func TestLogger_FieldsAndCaller(t *testing.T) {
	buf := captureJSON(t, "info")

	Info("Cart updated", map[string]interface{}{
		"cart_session": "abc",
		"items":        2,
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	assert.Equal(t, "info", events[0]["level"])
	assert.Equal(t, "Cart updated", events[0]["message"])
	assert.Equal(t, "abc", events[0]["cart_session"])
	assert.EqualValues(t, 2, events[0]["items"])
	assert.Contains(t, events[0]["caller"], "logger_test.go")
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := captureJSON(t, "warn")

	Debug("hidden")
	Info("hidden")
	Warn("shown")
	Error("failed", errors.New("boom"))

	events := decodeLines(t, buf)
	require.Len(t, events, 2)
	assert.Equal(t, "shown", events[0]["message"])
	assert.Equal(t, "boom", events[1]["error"])
}

func TestLogger_WithContext(t *testing.T) {
	buf := captureJSON(t, "debug")

	l := WithContext(map[string]interface{}{"request_id": "req-1"})
	l.Debug("first")
	l.Info("second", map[string]interface{}{"path": "/api/v1/cart"})

	events := decodeLines(t, buf)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "req-1", ev["request_id"])
	}
	assert.Equal(t, "/api/v1/cart", events[1]["path"])
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"error":   "error",
		"":        "info",
		"verbose": "info",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in).String(), in)
	}
}
