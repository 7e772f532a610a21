// Package dataset parses training datasets from uploaded files and reports
// previews and statistics over them.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bledden/tinker-voice/internal/metrics"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// Format is a dataset file format.
type Format string

// Supported formats.
const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmpty             = errors.New("dataset is empty")
	ErrMissingColumn     = errors.New("missing required column")
	ErrInvalidRecord     = errors.New("invalid training record")
)

// Column aliases accepted for each training example field.
var (
	inputKeys  = []string{"input", "prompt"}
	outputKeys = []string{"output", "completion", "response"}
	systemKeys = []string{"system"}
)

// FileMetadata describes an uploaded dataset file.
type FileMetadata struct {
	Filename  string `json:"filename"`
	Format    Format `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	RowCount  int    `json:"row_count"`
}

// Dataset is a parsed dataset file.
type Dataset struct {
	ID       string                   `json:"id"`
	Examples []domain.TrainingExample `json:"examples"`
	File     FileMetadata             `json:"file_metadata"`
}

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatJSONL, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat infers the format from a filename extension.
func DetectFormat(filename string) (Format, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
	}
	return ParseFormat(ext)
}

// Load parses data read from filename. An empty format is detected from
// the filename.
func Load(filename string, data []byte, format string) (Dataset, error) {
	var (
		f   Format
		err error
	)
	if format != "" {
		f, err = ParseFormat(format)
	} else {
		f, err = DetectFormat(filename)
	}
	if err != nil {
		return Dataset{}, err
	}

	examples, err := Parse(data, f)
	if err != nil {
		return Dataset{}, fmt.Errorf("parsing %s: %w", filepath.Base(filename), err)
	}
	return Dataset{
		ID:       uuid.New().String(),
		Examples: examples,
		File: FileMetadata{
			Filename:  filepath.Base(filename),
			Format:    f,
			SizeBytes: int64(len(data)),
			RowCount:  len(examples),
		},
	}, nil
}

// Parse decodes data in the given format into training examples.
func Parse(data []byte, f Format) ([]domain.TrainingExample, error) {
	var (
		examples []domain.TrainingExample
		err      error
	)
	switch f {
	case FormatJSONL:
		examples, err = parseJSONL(data)
	case FormatJSON:
		examples, err = parseJSON(data)
	case FormatCSV:
		examples, err = parseCSV(data)
	case FormatXLSX:
		examples, err = parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, err
	}
	metrics.DatasetRecordsTotal.WithLabelValues(string(f)).Add(float64(len(examples)))
	return examples, nil
}

// EncodeJSONL renders examples one JSON object per line, the format the
// training service accepts for uploads.
func EncodeJSONL(examples []domain.TrainingExample) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return nil, fmt.Errorf("encoding example %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func parseJSONL(data []byte) ([]domain.TrainingExample, error) {
	var examples []domain.TrainingExample
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec any
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ex, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading jsonl: %w", err)
	}
	return examples, nil
}

func parseJSON(data []byte) ([]domain.TrainingExample, error) {
	var recs []any
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding json array: %w", err)
	}
	examples := make([]domain.TrainingExample, 0, len(recs))
	for i, rec := range recs {
		ex, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// fromRecord validates a decoded JSON record and maps its aliased keys.
func fromRecord(rec any) (domain.TrainingExample, error) {
	if err := validateRecord(rec); err != nil {
		return domain.TrainingExample{}, err
	}
	m, _ := rec.(map[string]any)
	return domain.TrainingExample{
		Input:  firstString(m, inputKeys),
		Output: firstString(m, outputKeys),
		System: firstString(m, systemKeys),
	}, nil
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}
