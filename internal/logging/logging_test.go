package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)
	logger.Info("booted", "tasks", 3)

	assert.Contains(t, buf.String(), "msg=booted")
	assert.Contains(t, buf.String(), "tasks=3")
}

func TestNewLoggerWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)
	logger.Info("halted", "ticks", 600)

	assert.Contains(t, buf.String(), `"msg":"halted"`)
	assert.Contains(t, buf.String(), `"ticks":600`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestChildLogger(t *testing.T) {
	var buf bytes.Buffer
	child := NewLoggerWithWriter(slog.LevelDebug, "text", &buf).With("component", "sched")
	child.Debug("switching", "from", "main")

	assert.Contains(t, buf.String(), "component=sched")
	assert.Contains(t, buf.String(), "from=main")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat("text"))
	assert.NoError(t, CheckFormat("Json"))
	assert.NoError(t, CheckFormat(""))
	assert.Error(t, CheckFormat("xml"))
}
