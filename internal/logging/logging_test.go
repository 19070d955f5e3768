// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func withOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := Output
	Output = &buf
	t.Cleanup(func() { Output = orig })
	return &buf
}

func TestNew_JSON(t *testing.T) {
	buf := withOutput(t)

	New("info", "json").Info("analyzed", "reviewer", "A1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "analyzed", rec["msg"])
	assert.Equal(t, "A1", rec["reviewer"])
}

func TestNew_TextFiltersBelowLevel(t *testing.T) {
	buf := withOutput(t)

	log := New("warn", "text")
	log.Info("hidden")
	log.Warn("shown", "code", "HTTP_503")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "code=HTTP_503")
}
