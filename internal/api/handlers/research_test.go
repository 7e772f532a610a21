package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/api/handlers"
	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/yutori"
)

func newResearchAPI(t *testing.T, r *mockResearcher) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterResearchRoutes(api, handlers.NewResearchHandler(r))
	return api
}

func TestResearchHandler_Research(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setupMock  func(*mockResearcher)
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns result",
			setupMock: func(m *mockResearcher) {
				m.On("Research", mock.Anything, yutori.ResearchRequest{Query: "lora ranks", Depth: 2}).
					Return(yutori.ResearchResult{Summary: "use rank 16", Insights: []string{"rank 16"}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"summary":"use rank 16"`,
		},
		{
			name: "job timed out",
			setupMock: func(m *mockResearcher) {
				m.On("Research", mock.Anything, mock.Anything).
					Return(yutori.ResearchResult{}, fmt.Errorf("research r-1: %w", poll.ErrTimedOut)).Once()
			},
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   `researching`,
		},
		{
			name: "job failed",
			setupMock: func(m *mockResearcher) {
				m.On("Research", mock.Anything, mock.Anything).
					Return(yutori.ResearchResult{}, fmt.Errorf("%w: quota exhausted", poll.ErrRemoteFailed)).Once()
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `quota exhausted`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mr := &mockResearcher{}
			tt.setupMock(mr)
			api := newResearchAPI(t, mr)

			resp := api.Post("/api/v1/research", map[string]any{"query": "lora ranks", "depth": 2})
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
			mr.AssertExpectations(t)
		})
	}
}

func TestResearchHandler_Jobs(t *testing.T) {
	t.Parallel()

	mr := &mockResearcher{}
	mr.On("Start", mock.Anything, yutori.ResearchRequest{Query: "lora ranks"}).
		Return(poll.Handle("r-7"), nil).Once()
	mr.On("Fetch", mock.Anything, poll.Handle("r-7")).
		Return(poll.Snapshot[yutori.ResearchResult]{Status: poll.StatusInProgress}, nil).Once()
	mr.On("Fetch", mock.Anything, poll.Handle("r-7")).
		Return(poll.Snapshot[yutori.ResearchResult]{
			Status: poll.StatusCompleted,
			Result: yutori.ResearchResult{Summary: "done"},
		}, nil).Once()
	api := newResearchAPI(t, mr)

	resp := api.Post("/api/v1/research/jobs", map[string]any{"query": "lora ranks"})
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":"r-7"`)
	assert.Contains(t, resp.Body.String(), `"status":"pending"`)

	resp = api.Get("/api/v1/research/jobs/r-7")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"in_progress"`)
	assert.NotContains(t, resp.Body.String(), `"result"`)

	resp = api.Get("/api/v1/research/jobs/r-7")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"summary":"done"`)
	mr.AssertExpectations(t)
}

func TestResearchHandler_ResearchMLTask(t *testing.T) {
	t.Parallel()

	mr := &mockResearcher{}
	mr.On("ResearchMLTask", mock.Anything, "classify tickets", "llama", "sft").
		Return(yutori.MLResearchResult{
			RecommendedParams: []yutori.ParameterRecommendation{{Name: "learning_rate", Value: "2e-4"}},
			Pitfalls:          []string{"overfitting on small data"},
		}, nil).Once()
	api := newResearchAPI(t, mr)

	resp := api.Post("/api/v1/research/ml", map[string]any{"task": "classify tickets"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"value":"2e-4"`)
	assert.Contains(t, resp.Body.String(), `overfitting`)
	mr.AssertExpectations(t)
}
