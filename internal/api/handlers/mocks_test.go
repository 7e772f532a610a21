package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bledden/tinker-voice/internal/agents"
	"github.com/bledden/tinker-voice/internal/elevenlabs"
	"github.com/bledden/tinker-voice/internal/llm"
	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/tonic"
	"github.com/bledden/tinker-voice/internal/yutori"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

type mockKeys struct{ mock.Mock }

func (m *mockKeys) Status() []domain.KeyStatus {
	args := m.Called()
	return args.Get(0).([]domain.KeyStatus)
}

func (m *mockKeys) Set(s domain.Service, key string) error {
	return m.Called(s, key).Error(0)
}

func (m *mockKeys) Test(ctx context.Context, s domain.Service) (domain.KeyStatus, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.KeyStatus), args.Error(1)
}

type mockSpeech struct{ mock.Mock }

func (m *mockSpeech) Transcribe(ctx context.Context, audio string) (elevenlabs.Transcription, error) {
	args := m.Called(ctx, audio)
	return args.Get(0).(elevenlabs.Transcription), args.Error(1)
}

func (m *mockSpeech) TextToSpeech(ctx context.Context, req elevenlabs.SpeechRequest) (elevenlabs.Speech, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(elevenlabs.Speech), args.Error(1)
}

func (m *mockSpeech) ListVoices(ctx context.Context) ([]elevenlabs.Voice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]elevenlabs.Voice), args.Error(1)
}

type mockAgents struct{ mock.Mock }

func (m *mockAgents) ParseIntent(ctx context.Context, input string) (agents.ParsedIntent, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(agents.ParsedIntent), args.Error(1)
}

func (m *mockAgents) ValidateData(ctx context.Context, samples string) (agents.ValidationResult, error) {
	args := m.Called(ctx, samples)
	return args.Get(0).(agents.ValidationResult), args.Error(1)
}

func (m *mockAgents) RecommendConfig(
	ctx context.Context,
	requirements, datasetInfo string,
) (agents.ConfigRecommendation, error) {
	args := m.Called(ctx, requirements, datasetInfo)
	return args.Get(0).(agents.ConfigRecommendation), args.Error(1)
}

func (m *mockAgents) Chat(ctx context.Context, k agents.Kind, msgs []llm.Message) (agents.ChatResponse, error) {
	args := m.Called(ctx, k, msgs)
	return args.Get(0).(agents.ChatResponse), args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) GenerateTrainingData(
	ctx context.Context,
	req tonic.TrainingDataRequest,
) ([]domain.TrainingExample, tonic.GenerationMetadata, error) {
	args := m.Called(ctx, req)
	return args.Get(0).([]domain.TrainingExample), args.Get(1).(tonic.GenerationMetadata), args.Error(2)
}

func (m *mockGenerator) Preview(ctx context.Context, prompt string, n int) (tonic.GenerationPreview, error) {
	args := m.Called(ctx, prompt, n)
	return args.Get(0).(tonic.GenerationPreview), args.Error(1)
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) UploadDataset(ctx context.Context, data []byte, filename string) (tinker.DatasetUpload, error) {
	args := m.Called(ctx, data, filename)
	return args.Get(0).(tinker.DatasetUpload), args.Error(1)
}

type mockResearcher struct{ mock.Mock }

func (m *mockResearcher) Start(ctx context.Context, req yutori.ResearchRequest) (poll.Handle, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(poll.Handle), args.Error(1)
}

func (m *mockResearcher) Fetch(ctx context.Context, h poll.Handle) (poll.Snapshot[yutori.ResearchResult], error) {
	args := m.Called(ctx, h)
	return args.Get(0).(poll.Snapshot[yutori.ResearchResult]), args.Error(1)
}

func (m *mockResearcher) Research(ctx context.Context, req yutori.ResearchRequest) (yutori.ResearchResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(yutori.ResearchResult), args.Error(1)
}

func (m *mockResearcher) ResearchMLTask(
	ctx context.Context,
	task, modelType, trainingType string,
) (yutori.MLResearchResult, error) {
	args := m.Called(ctx, task, modelType, trainingType)
	return args.Get(0).(yutori.MLResearchResult), args.Error(1)
}

type mockTrainer struct{ mock.Mock }

func (m *mockTrainer) CreateRun(ctx context.Context, cfg tinker.TrainingConfig) (tinker.TrainingRun, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(tinker.TrainingRun), args.Error(1)
}

func (m *mockTrainer) GetRun(ctx context.Context, id string) (tinker.TrainingRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(tinker.TrainingRun), args.Error(1)
}

func (m *mockTrainer) ListRuns(ctx context.Context, page, perPage int) (tinker.ListRunsResponse, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).(tinker.ListRunsResponse), args.Error(1)
}

func (m *mockTrainer) CancelRun(ctx context.Context, id string) (tinker.TrainingRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(tinker.TrainingRun), args.Error(1)
}

func (m *mockTrainer) WaitForRun(ctx context.Context, id string) (tinker.TrainingRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(tinker.TrainingRun), args.Error(1)
}

func (m *mockTrainer) ListCheckpoints(
	ctx context.Context,
	runID string,
	page, perPage int,
) (tinker.ListCheckpointsResponse, error) {
	args := m.Called(ctx, runID, page, perPage)
	return args.Get(0).(tinker.ListCheckpointsResponse), args.Error(1)
}

func (m *mockTrainer) GetCheckpoint(ctx context.Context, runID, checkpointID string) (tinker.Checkpoint, error) {
	args := m.Called(ctx, runID, checkpointID)
	return args.Get(0).(tinker.Checkpoint), args.Error(1)
}

func (m *mockTrainer) ListModels(ctx context.Context) ([]tinker.ModelInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]tinker.ModelInfo), args.Error(1)
}
