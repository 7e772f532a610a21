package handlers_test

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/api/handlers"
	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/tonic"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

func newDataAPI(t *testing.T, g *mockGenerator, u *mockUploader) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterDataRoutes(api, handlers.NewDataHandler(g, u))
	return api
}

func TestDataHandler_Generate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       map[string]any
		setupMock  func(*mockGenerator)
		wantStatus int
		wantBody   []string
	}{
		{
			name: "returns examples",
			body: map[string]any{"task": "support replies", "domain": "saas", "num_examples": 2},
			setupMock: func(m *mockGenerator) {
				m.On("GenerateTrainingData", mock.Anything, tonic.TrainingDataRequest{
					Task:        "support replies",
					Domain:      "saas",
					NumExamples: 2,
				}).Return([]domain.TrainingExample{
					{Input: "q1", Output: "a1"},
					{Input: "q2", Output: "a2"},
				}, tonic.GenerationMetadata{GenerationID: "g1", DurationMs: 1200}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"source":"tonic"`, `"duration_ms":1200`, `"input":"q2"`},
		},
		{
			name: "rate limited",
			body: map[string]any{"task": "support replies", "num_examples": 5},
			setupMock: func(m *mockGenerator) {
				m.On("GenerateTrainingData", mock.Anything, mock.Anything).
					Return([]domain.TrainingExample(nil), tonic.GenerationMetadata{}, &remote.Error{
						Service: domain.ServiceTonic,
						Kind:    remote.ErrRateLimited,
						Status:  http.StatusTooManyRequests,
					}).Once()
			},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   []string{`generating data`},
		},
		{
			name:       "missing task",
			body:       map[string]any{"num_examples": 5},
			setupMock:  func(*mockGenerator) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{`task`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mg := &mockGenerator{}
			tt.setupMock(mg)
			api := newDataAPI(t, mg, &mockUploader{})

			resp := api.Post("/api/v1/data/generate", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), want)
			}
			mg.AssertExpectations(t)
		})
	}
}

func TestDataHandler_PreviewGeneration(t *testing.T) {
	t.Parallel()

	mg := &mockGenerator{}
	mg.On("Preview", mock.Anything, "faq pairs", 100).
		Return(tonic.GenerationPreview{EstimatedTokens: 5000, EstimatedCost: 0.25}, nil).Once()
	api := newDataAPI(t, mg, &mockUploader{})

	resp := api.Post("/api/v1/data/generate/preview", map[string]any{"prompt": "faq pairs", "num_records": 100})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"estimated_tokens":5000`)
	mg.AssertExpectations(t)
}

func TestDataHandler_ParseDataset(t *testing.T) {
	t.Parallel()

	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantBody   []string
	}{
		{
			name: "jsonl by extension",
			body: map[string]any{
				"filename":       "train.jsonl",
				"content_base64": b64("{\"prompt\":\"hi\",\"completion\":\"hello\"}\n"),
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"input":"hi"`, `"row_count":1`, `"format":"jsonl"`},
		},
		{
			name: "explicit csv format",
			body: map[string]any{
				"filename":       "data.txt",
				"format":         "csv",
				"content_base64": b64("input,output\nq,a\n"),
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"output":"a"`},
		},
		{
			name: "bad base64",
			body: map[string]any{
				"filename":       "train.jsonl",
				"content_base64": "***",
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{`not valid base64`},
		},
		{
			name: "missing column",
			body: map[string]any{
				"filename":       "data.csv",
				"content_base64": b64("question,answer\nq,a\n"),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{`parsing dataset`},
		},
		{
			name: "unsupported extension",
			body: map[string]any{
				"filename":       "data.parquet",
				"content_base64": b64("x"),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{`parsing dataset`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newDataAPI(t, &mockGenerator{}, &mockUploader{})

			resp := api.Post("/api/v1/datasets/parse", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), want)
			}
		})
	}
}

func TestDataHandler_PreviewAndStats(t *testing.T) {
	t.Parallel()

	examples := []map[string]any{
		{"input": "one two", "output": "three"},
		{"input": "four", "output": "five six", "system": "be brief"},
		{"input": "seven", "output": "eight"},
	}
	api := newDataAPI(t, &mockGenerator{}, &mockUploader{})

	resp := api.Post("/api/v1/datasets/preview", map[string]any{"examples": examples, "limit": 2})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_count":3`)
	assert.NotContains(t, resp.Body.String(), `seven`)

	resp = api.Post("/api/v1/datasets/stats", map[string]any{"examples": examples})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"num_samples":3`)
	assert.Contains(t, resp.Body.String(), `"has_system_prompts":true`)

	resp = api.Post("/api/v1/datasets/stats", map[string]any{"examples": []any{}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestDataHandler_UploadDataset(t *testing.T) {
	t.Parallel()

	t.Run("uploads jsonl", func(t *testing.T) {
		t.Parallel()

		mu := &mockUploader{}
		mu.On("UploadDataset", mock.Anything, []byte("{\"input\":\"q\",\"output\":\"a\"}\n"), "train.jsonl").
			Return(tinker.DatasetUpload{DatasetID: "ds-1", Path: "datasets/ds-1.jsonl", RowCount: 1}, nil).Once()
		api := newDataAPI(t, &mockGenerator{}, mu)

		resp := api.Post("/api/v1/datasets/upload", map[string]any{
			"filename": "train.jsonl",
			"examples": []map[string]any{{"input": "q", "output": "a"}},
		})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"dataset_id":"ds-1"`)
		mu.AssertExpectations(t)
	})

	t.Run("rejects empty output before upload", func(t *testing.T) {
		t.Parallel()

		mu := &mockUploader{}
		api := newDataAPI(t, &mockGenerator{}, mu)

		resp := api.Post("/api/v1/datasets/upload", map[string]any{
			"filename": "train.jsonl",
			"examples": []map[string]any{{"input": "q", "output": ""}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), `example 0: empty output`)
		mu.AssertNotCalled(t, "UploadDataset", mock.Anything, mock.Anything, mock.Anything)
	})
}
