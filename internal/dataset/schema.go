package dataset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

const recordSchemaURL = "training_example.json"

// recordSchema accepts any of the input and output aliases.
const recordSchema = `{
  "type": "object",
  "properties": {
    "input":      {"type": "string"},
    "prompt":     {"type": "string"},
    "output":     {"type": "string"},
    "completion": {"type": "string"},
    "response":   {"type": "string"},
    "system":     {"type": ["string", "null"]}
  },
  "allOf": [
    {"anyOf": [{"required": ["input"]}, {"required": ["prompt"]}]},
    {"anyOf": [{"required": ["output"]}, {"required": ["completion"]}, {"required": ["response"]}]}
  ]
}`

var compiledRecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
})

func validateRecord(rec any) error {
	s, err := compiledRecordSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Validate checks parsed examples for empty inputs or outputs. It reports
// every offending index.
func Validate(examples []domain.TrainingExample) error {
	if len(examples) == 0 {
		return ErrEmpty
	}
	var problems []string
	for i, ex := range examples {
		if strings.TrimSpace(ex.Input) == "" {
			problems = append(problems, fmt.Sprintf("example %d: empty input", i))
		}
		if strings.TrimSpace(ex.Output) == "" {
			problems = append(problems, fmt.Sprintf("example %d: empty output", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
	}
	return nil
}
