package agents_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/agents"
	"github.com/bledden/tinker-voice/internal/llm"
	"github.com/bledden/tinker-voice/pkg/extract"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(llm.GenerateResponse), args.Error(1)
}

func (*mockBackend) Name() string { return "mock" }

func reply(content string) llm.GenerateResponse {
	return llm.GenerateResponse{Content: content, Model: "test"}
}

func withSystem(k agents.Kind) any {
	return mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return req.SystemMsg == k.SystemPrompt() && req.Temperature == 0.3 && req.MaxTokens == 4096
	})
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want agents.Kind
	}{
		{"intent", agents.KindIntent},
		{"Validation", agents.KindValidation},
		{" config ", agents.KindConfig},
		{"general", agents.KindGeneral},
		{"", agents.KindGeneral},
		{"something", agents.KindGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, agents.ParseKind(tt.in))
		})
	}
}

func TestRunner_ParseIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    agents.ParsedIntent
		wantErr error
	}{
		{
			name: "fenced json with prose",
			content: "Sure!\n```json\n{\"intent\": \"generate_data\", \"entities\": " +
				"{\"domain\": \"customer support\", \"count\": 1000}, \"confidence\": 0.92}\n```",
			want: agents.ParsedIntent{
				Intent:     agents.IntentGenerateData,
				Entities:   map[string]any{"domain": "customer support", "count": float64(1000)},
				Confidence: 0.92,
			},
		},
		{
			name:    "bare object and default entities",
			content: `{"intent": "check_status", "confidence": 0.8, "clarification_needed": "Which run?"}`,
			want: agents.ParsedIntent{
				Intent:              agents.IntentCheckStatus,
				Entities:            map[string]any{},
				Confidence:          0.8,
				ClarificationNeeded: "Which run?",
			},
		},
		{
			name:    "no json",
			content: "I am not sure what you mean.",
			wantErr: extract.ErrNoJSONFound,
		},
		{
			name:    "missing confidence",
			content: `{"intent": "help"}`,
			wantErr: extract.ErrSchemaMismatch,
		},
		{
			name:    "malformed",
			content: `{"intent": "help",}`,
			wantErr: extract.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := &mockBackend{}
			b.On("Generate", mock.Anything, withSystem(agents.KindIntent)).Return(reply(tt.content), nil)

			got, err := agents.NewRunner(b).ParseIntent(context.Background(), "make 1000 support examples")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			b.AssertExpectations(t)
		})
	}
}

func TestRunner_ValidateData(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	b.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return req.SystemMsg == agents.KindValidation.SystemPrompt() &&
			req.Prompt == "Please validate the following data samples:\n\n```\n{\"input\":\"a\"}\n```"
	})).Return(reply(`Report:
{"valid": false, "issues": [{"severity": "error", "message": "missing output", "location": "line 1"}],
 "recommendations": ["add outputs"]}`), nil)

	got, err := agents.NewRunner(b).ValidateData(context.Background(), `{"input":"a"}`)
	require.NoError(t, err)

	assert.False(t, got.Valid)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, agents.ValidationIssue{Severity: "error", Message: "missing output", Location: "line 1"}, got.Issues[0])
	assert.Equal(t, map[string]any{}, got.Stats)
	assert.Equal(t, []string{"add outputs"}, got.Recommendations)
	b.AssertExpectations(t)
}

func TestRunner_RecommendConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		datasetInfo string
		wantPrompt  string
	}{
		{
			name:        "with dataset info",
			datasetInfo: "1200 samples",
			wantPrompt:  "Requirements: support bot\n\nDataset information:\n1200 samples",
		},
		{
			name:       "requirements only",
			wantPrompt: "Requirements: support bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := &mockBackend{}
			b.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
				return req.Prompt == tt.wantPrompt
			})).Return(reply(`{"recommended_config": {"base_model": "llama-3-8b"}, "reasoning": "small data"}`), nil)

			got, err := agents.NewRunner(b).RecommendConfig(context.Background(), "support bot", tt.datasetInfo)
			require.NoError(t, err)
			assert.Equal(t, "llama-3-8b", got.RecommendedConfig["base_model"])
			assert.Equal(t, "small data", got.Reasoning)
			assert.Empty(t, got.Alternatives)
			assert.Empty(t, got.Warnings)
		})
	}
}

func TestRunner_RecommendConfig_MissingReasoning(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	b.On("Generate", mock.Anything, mock.Anything).Return(reply(`{"recommended_config": {}}`), nil)

	_, err := agents.NewRunner(b).RecommendConfig(context.Background(), "x", "")
	require.ErrorIs(t, err, extract.ErrSchemaMismatch)

	var de *extract.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "reasoning", de.Field)
}

func TestRunner_Chat(t *testing.T) {
	t.Parallel()

	msgs := []llm.Message{{Role: llm.RoleUser, Content: "what can you do?"}}

	b := &mockBackend{}
	b.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return req.SystemMsg == agents.KindGeneral.SystemPrompt() && len(req.Messages) == 1
	})).Return(reply("I can help you fine-tune models."), nil)

	got, err := agents.NewRunner(b).Chat(context.Background(), agents.KindGeneral, msgs)
	require.NoError(t, err)
	assert.Equal(t, "I can help you fine-tune models.", got.Message)
	assert.True(t, got.ShouldSpeak)
}

func TestRunner_Chat_NoMessages(t *testing.T) {
	t.Parallel()

	b := &mockBackend{}
	_, err := agents.NewRunner(b).Chat(context.Background(), agents.KindGeneral, nil)
	require.Error(t, err)
	b.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRunner_BackendError(t *testing.T) {
	t.Parallel()

	errDown := errors.New("backend down")
	b := &mockBackend{}
	b.On("Generate", mock.Anything, mock.Anything).Return(llm.GenerateResponse{}, errDown)

	_, err := agents.NewRunner(b, agents.WithTemperature(0.7)).ParseIntent(context.Background(), "hi")
	require.ErrorIs(t, err, errDown)
	assert.Contains(t, err.Error(), "intent agent")
}
