package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":     slog.LevelDebug,
		"DEBUG":     slog.LevelDebug,
		" info ":    slog.LevelInfo,
		"warn":      slog.LevelWarn,
		"warning":   slog.LevelWarn,
		"error":     slog.LevelError,
		"":          slog.LevelInfo,
		"trace":     slog.LevelInfo,
		"not-level": slog.LevelInfo,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, logger.ParseLevel(input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	require.NotNil(t, logger.New("debug", "json"))
}

func TestNewWithWriter_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{name: "text", format: "text", want: []string{"level=INFO", "msg=polling", "handle=r-1"}},
		{name: "json any case", format: "JSON", want: []string{`"level":"INFO"`, `"msg":"polling"`, `"handle":"r-1"`}},
		{name: "unknown falls back to text", format: "logfmt", want: []string{"level=INFO"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger.NewWithWriter(&buf, "info", tt.format).Info("polling", "handle", "r-1")

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     string
		emit      slog.Level
		wantWrite bool
	}{
		{level: "debug", emit: slog.LevelDebug, wantWrite: true},
		{level: "info", emit: slog.LevelDebug, wantWrite: false},
		{level: "info", emit: slog.LevelInfo, wantWrite: true},
		{level: "warn", emit: slog.LevelInfo, wantWrite: false},
		{level: "error", emit: slog.LevelWarn, wantWrite: false},
		{level: "error", emit: slog.LevelError, wantWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.emit.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := logger.NewWithWriter(&buf, tt.level, "text")
			l.Log(t.Context(), tt.emit, "fetch")

			assert.Equal(t, tt.wantWrite, buf.Len() > 0)
		})
	}
}

func TestNewWithWriter_RedactsSecrets(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := logger.NewWithWriter(&buf, "info", format)
			l.With("service", "tinker").Info("key set",
				"api_key", "tk-live-123",
				"Authorization", "Bearer tk-live-123",
				"xi-api-key", "el-456",
			)

			out := buf.String()
			assert.NotContains(t, out, "tk-live-123")
			assert.NotContains(t, out, "el-456")
			assert.Contains(t, out, logger.Redacted)
			assert.Contains(t, out, "tinker")
		})
	}
}
