package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json"})

	log.Info("prompt stored", "prompt_id", "prompt-abc")

	out := buf.String()
	assert.Contains(t, out, `"msg":"prompt stored"`)
	assert.Contains(t, out, `"prompt_id":"prompt-abc"`)
}

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestNew_DevelopmentDefaultsToPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development"})

	log.Info("hello")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), "INF")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.Warn("similarity below threshold", "score", 0.42)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "similarity below threshold")
	assert.Contains(t, out, "score=")
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	scoped := log.With("saver_id", "saver-1")
	scoped.Info("submission accepted")

	assert.Contains(t, buf.String(), "saver_id=saver-1")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json"})

	log.WithError(assert.AnError).Error("import failed")

	require.Contains(t, buf.String(), `"error":`)
	assert.Contains(t, buf.String(), "import failed")
}
