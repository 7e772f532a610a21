package openapi_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/api/openapi"
)

func TestDocument_Paths(t *testing.T) {
	t.Parallel()

	doc := openapi.Document("1.2.3")
	assert.Equal(t, "tinker-voice", doc.Info.Title)
	assert.Equal(t, "1.2.3", doc.Info.Version)

	for _, path := range []string{
		"/api/v1/keys",
		"/api/v1/voice/transcribe",
		"/api/v1/agents/chat",
		"/api/v1/data/generate",
		"/api/v1/datasets/parse",
		"/api/v1/research/jobs/{id}",
		"/api/v1/training/runs/{run_id}/wait",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		wantErr  bool
		contains string
	}{
		{name: "json", format: "json", contains: `"openapi": "3.1`},
		{name: "yaml", format: "yaml", contains: "openapi: 3.1"},
		{name: "unknown", format: "toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			err := openapi.Write(&buf, "dev", tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.contains)
			if tt.format == "json" {
				assert.True(t, json.Valid(buf.Bytes()))
			}
		})
	}
}
