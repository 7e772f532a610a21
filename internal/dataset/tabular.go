package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

func parseCSV(data []byte) ([]domain.TrainingExample, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, row)
	}
	return fromRows(rows)
}

func parseXLSX(data []byte) ([]domain.TrainingExample, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: %w", ErrEmpty)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// fromRows maps a header row plus data rows onto training examples. Rows
// too short to hold both the input and output columns are skipped.
func fromRows(rows [][]string) ([]domain.TrainingExample, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row: %w", ErrEmpty)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	in := columnIndex(header, inputKeys)
	if in < 0 {
		return nil, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(inputKeys, ", "))
	}
	out := columnIndex(header, outputKeys)
	if out < 0 {
		return nil, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(outputKeys, ", "))
	}
	sys := columnIndex(header, systemKeys)

	examples := make([]domain.TrainingExample, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) || len(row) <= max(in, out) {
			continue
		}
		ex := domain.TrainingExample{Input: row[in], Output: row[out]}
		if sys >= 0 && sys < len(row) {
			ex.System = row[sys]
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

func columnIndex(header, names []string) int {
	for _, n := range names {
		if i := slices.Index(header, n); i >= 0 {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
