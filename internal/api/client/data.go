package client

import (
	"context"
	"encoding/base64"
	"path/filepath"

	"github.com/bledden/tinker-voice/internal/dataset"
	"github.com/bledden/tinker-voice/internal/tinker"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// GenerateRequest asks for synthetic training data.
type GenerateRequest struct {
	Task            string `json:"task"`
	Domain          string `json:"domain,omitempty"`
	NumExamples     int    `json:"num_examples,omitempty"`
	ResearchContext string `json:"research_context,omitempty"`
}

// GeneratedDataset is synthetic training data.
type GeneratedDataset struct {
	ID                 string                   `json:"id"`
	Examples           []domain.TrainingExample `json:"examples"`
	GenerationMetadata struct {
		Source     string `json:"source"`
		PromptUsed string `json:"prompt_used,omitempty"`
		DurationMs int64  `json:"duration_ms"`
	} `json:"generation_metadata"`
}

// GenerateData creates synthetic training examples.
func (c *Client) GenerateData(ctx context.Context, req GenerateRequest) (GeneratedDataset, error) {
	var out GeneratedDataset
	err := c.post(ctx, "/api/v1/data/generate", req, &out)
	return out, err
}

// ParseDataset uploads file content for parsing. An empty format is detected
// from the filename.
func (c *Client) ParseDataset(ctx context.Context, filename string, data []byte, format string) (dataset.Dataset, error) {
	body := map[string]string{
		"filename":       filepath.Base(filename),
		"content_base64": base64.StdEncoding.EncodeToString(data),
	}
	if format != "" {
		body["format"] = format
	}
	var out dataset.Dataset
	err := c.post(ctx, "/api/v1/datasets/parse", body, &out)
	return out, err
}

// PreviewDataset returns the first limit examples.
func (c *Client) PreviewDataset(
	ctx context.Context,
	examples []domain.TrainingExample,
	limit int,
) (dataset.Preview, error) {
	var out dataset.Preview
	err := c.post(ctx, "/api/v1/datasets/preview", map[string]any{"examples": examples, "limit": limit}, &out)
	return out, err
}

// DatasetStats computes statistics for examples.
func (c *Client) DatasetStats(ctx context.Context, examples []domain.TrainingExample) (dataset.Stats, error) {
	var out dataset.Stats
	err := c.post(ctx, "/api/v1/datasets/stats", map[string]any{"examples": examples}, &out)
	return out, err
}

// UploadDataset stores examples with the training service.
func (c *Client) UploadDataset(
	ctx context.Context,
	filename string,
	examples []domain.TrainingExample,
) (tinker.DatasetUpload, error) {
	var out tinker.DatasetUpload
	err := c.post(ctx, "/api/v1/datasets/upload", map[string]any{"filename": filename, "examples": examples}, &out)
	return out, err
}
