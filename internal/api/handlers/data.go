package handlers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/bledden/tinker-voice/internal/dataset"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/tonic"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// DataGenerator produces synthetic training data.
type DataGenerator interface {
	GenerateTrainingData(
		ctx context.Context,
		req tonic.TrainingDataRequest,
	) ([]domain.TrainingExample, tonic.GenerationMetadata, error)
	Preview(ctx context.Context, prompt string, numRecords int) (tonic.GenerationPreview, error)
}

// DatasetUploader stores a dataset file with the training service.
type DatasetUploader interface {
	UploadDataset(ctx context.Context, data []byte, filename string) (tinker.DatasetUpload, error)
}

// DataHandler handles synthetic data and dataset file requests.
type DataHandler struct {
	generator DataGenerator
	uploader  DatasetUploader
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(g DataGenerator, u DatasetUploader) *DataHandler {
	return &DataHandler{generator: g, uploader: u}
}

// GenerateDataInput is the request body for synthetic data generation.
type GenerateDataInput struct {
	Body struct {
		Task            string `json:"task"                       minLength:"1" doc:"What the fine-tuned model should do"`
		Domain          string `json:"domain,omitempty"           doc:"Subject area of the examples"`
		NumExamples     int    `json:"num_examples,omitempty"     minimum:"1" maximum:"10000" default:"50"`
		ResearchContext string `json:"research_context,omitempty" doc:"Optional findings to guide tone and content"`
	}
}

// GenerationInfo describes how a dataset was produced.
type GenerationInfo struct {
	Source     string `json:"source" enum:"tonic,uploaded"`
	PromptUsed string `json:"prompt_used,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// GenerateDataOutput is a generated dataset.
type GenerateDataOutput struct {
	Body struct {
		ID                 string                   `json:"id"`
		Examples           []domain.TrainingExample `json:"examples"`
		GenerationMetadata GenerationInfo           `json:"generation_metadata"`
	}
}

// Generate creates synthetic training examples.
func (h *DataHandler) Generate(ctx context.Context, input *GenerateDataInput) (*GenerateDataOutput, error) {
	examples, meta, err := h.generator.GenerateTrainingData(ctx, tonic.TrainingDataRequest{
		Task:        input.Body.Task,
		Domain:      input.Body.Domain,
		NumExamples: input.Body.NumExamples,
		Style:       input.Body.ResearchContext,
	})
	if err != nil {
		return nil, apiError("generating data", err)
	}

	resp := &GenerateDataOutput{}
	resp.Body.ID = uuid.NewString()
	resp.Body.Examples = examples
	resp.Body.GenerationMetadata = GenerationInfo{
		Source:     "tonic",
		PromptUsed: input.Body.Task,
		DurationMs: meta.DurationMs,
	}
	return resp, nil
}

// PreviewGenerationInput is the request body for a generation estimate.
type PreviewGenerationInput struct {
	Body struct {
		Prompt     string `json:"prompt"      minLength:"1"`
		NumRecords int    `json:"num_records" minimum:"1"`
	}
}

// PreviewGenerationOutput is a generation estimate.
type PreviewGenerationOutput struct {
	Body tonic.GenerationPreview
}

// PreviewGeneration estimates a generation without running it.
func (h *DataHandler) PreviewGeneration(
	ctx context.Context,
	input *PreviewGenerationInput,
) (*PreviewGenerationOutput, error) {
	p, err := h.generator.Preview(ctx, input.Body.Prompt, input.Body.NumRecords)
	if err != nil {
		return nil, apiError("previewing generation", err)
	}
	return &PreviewGenerationOutput{Body: p}, nil
}

// ParseDatasetInput is the request body for parsing an uploaded file.
type ParseDatasetInput struct {
	Body struct {
		Filename      string `json:"filename"         minLength:"1" example:"train.jsonl"`
		Format        string `json:"format,omitempty" enum:"jsonl,json,csv,xlsx" doc:"Overrides detection from the filename"`
		ContentBase64 string `json:"content_base64"   minLength:"1" doc:"File content, base64-encoded"`
	}
}

// ParseDatasetOutput is a parsed dataset.
type ParseDatasetOutput struct {
	Body dataset.Dataset
}

// ParseDataset decodes an uploaded dataset file.
func (*DataHandler) ParseDataset(_ context.Context, input *ParseDatasetInput) (*ParseDatasetOutput, error) {
	data, err := base64.StdEncoding.DecodeString(input.Body.ContentBase64)
	if err != nil {
		return nil, huma.Error400BadRequest("content_base64 is not valid base64")
	}
	ds, err := dataset.Load(input.Body.Filename, data, input.Body.Format)
	if err != nil {
		return nil, apiError("parsing dataset", err)
	}
	return &ParseDatasetOutput{Body: ds}, nil
}

// PreviewDatasetInput is the request body for a dataset preview.
type PreviewDatasetInput struct {
	Body struct {
		Examples []domain.TrainingExample `json:"examples"`
		Limit    int                      `json:"limit,omitempty" minimum:"0" doc:"Number of samples; defaults to 10"`
	}
}

// PreviewDatasetOutput is the head of a dataset.
type PreviewDatasetOutput struct {
	Body dataset.Preview
}

// PreviewDataset returns the first examples of a dataset.
func (*DataHandler) PreviewDataset(_ context.Context, input *PreviewDatasetInput) (*PreviewDatasetOutput, error) {
	return &PreviewDatasetOutput{Body: dataset.PreviewOf(input.Body.Examples, input.Body.Limit)}, nil
}

// DatasetStatsInput is the request body for dataset statistics.
type DatasetStatsInput struct {
	Body struct {
		Examples []domain.TrainingExample `json:"examples"`
	}
}

// DatasetStatsOutput is dataset statistics.
type DatasetStatsOutput struct {
	Body dataset.Stats
}

// DatasetStats summarizes token lengths across a dataset.
func (*DataHandler) DatasetStats(_ context.Context, input *DatasetStatsInput) (*DatasetStatsOutput, error) {
	st, err := dataset.ComputeStats(input.Body.Examples)
	if err != nil {
		return nil, apiError("computing stats", err)
	}
	return &DatasetStatsOutput{Body: st}, nil
}

// UploadDatasetInput is the request body for uploading examples.
type UploadDatasetInput struct {
	Body struct {
		Filename string                   `json:"filename" minLength:"1" example:"train.jsonl"`
		Examples []domain.TrainingExample `json:"examples" minItems:"1"`
	}
}

// UploadDatasetOutput is the stored dataset.
type UploadDatasetOutput struct {
	Body tinker.DatasetUpload
}

// UploadDataset validates examples and uploads them as JSONL.
func (h *DataHandler) UploadDataset(ctx context.Context, input *UploadDatasetInput) (*UploadDatasetOutput, error) {
	if err := dataset.Validate(input.Body.Examples); err != nil {
		return nil, apiError("validating dataset", err)
	}
	data, err := dataset.EncodeJSONL(input.Body.Examples)
	if err != nil {
		return nil, apiError("encoding dataset", err)
	}
	up, err := h.uploader.UploadDataset(ctx, data, input.Body.Filename)
	if err != nil {
		return nil, apiError("uploading dataset", err)
	}
	return &UploadDatasetOutput{Body: up}, nil
}

// RegisterDataRoutes registers data endpoints with the Huma API.
func RegisterDataRoutes(api huma.API, h *DataHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-data",
		Method:      http.MethodPost,
		Path:        "/api/v1/data/generate",
		Summary:     "Generate synthetic training data",
		Tags:        []string{"data"},
		Errors:      vendorErrors,
	}, h.Generate)

	huma.Register(api, huma.Operation{
		OperationID: "preview-generation",
		Method:      http.MethodPost,
		Path:        "/api/v1/data/generate/preview",
		Summary:     "Estimate a synthetic data generation",
		Tags:        []string{"data"},
		Errors:      vendorErrors,
	}, h.PreviewGeneration)

	huma.Register(api, huma.Operation{
		OperationID: "parse-dataset",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/parse",
		Summary:     "Parse a dataset file",
		Description: "Accepts JSONL, JSON, CSV, or XLSX content and returns training examples.",
		Tags:        []string{"datasets"},
		Errors:      []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, h.ParseDataset)

	huma.Register(api, huma.Operation{
		OperationID: "preview-dataset",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/preview",
		Summary:     "Preview the first examples of a dataset",
		Tags:        []string{"datasets"},
	}, h.PreviewDataset)

	huma.Register(api, huma.Operation{
		OperationID: "dataset-stats",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/stats",
		Summary:     "Compute dataset statistics",
		Tags:        []string{"datasets"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.DatasetStats)

	huma.Register(api, huma.Operation{
		OperationID: "upload-dataset",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/upload",
		Summary:     "Upload examples to the training service",
		Tags:        []string{"datasets"},
		Errors:      vendorErrors,
	}, h.UploadDataset)
}
