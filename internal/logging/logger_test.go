package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestPrettyHandler_FormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &Options{Level: slog.LevelInfo}))

	log.With("component", "registry").WithGroup("req").Info("sequencer registered", "identity", "seq-a")

	out := buf.String()
	assert.Contains(t, out, "INFO ")
	assert.Contains(t, out, "sequencer registered")
	assert.Contains(t, out, " component=registry")
	assert.NotContains(t, out, "req.component")
	assert.Contains(t, out, "req.identity=seq-a")
	assert.NotContains(t, out, "\033[")
}

func TestPrettyHandler_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &Options{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Debug("hidden too")

	assert.Empty(t, buf.String())
}

func TestPrettyHandler_ErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &Options{Level: slog.LevelDebug, AddSource: true}))

	log.Error("store write failed", "error", errors.New("disk full"))

	out := buf.String()
	require.Contains(t, out, "ERROR: disk full")
	assert.Contains(t, out, "logger_test.go:")
	assert.Contains(t, out, "goroutine")
}
