package dataset

import (
	"strings"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

// DefaultPreviewLimit is the number of samples a preview returns when no
// limit is given.
const DefaultPreviewLimit = 10

// tokensPerWord approximates tokenizer output from whitespace-separated
// words.
const tokensPerWord = 1.3

// Preview is the head of a dataset.
type Preview struct {
	Samples    []domain.TrainingExample `json:"samples"`
	TotalCount int                      `json:"total_count"`
}

// PreviewOf returns the first limit examples. A non-positive limit uses
// DefaultPreviewLimit.
func PreviewOf(examples []domain.TrainingExample, limit int) Preview {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	n := min(limit, len(examples))
	samples := make([]domain.TrainingExample, n)
	copy(samples, examples[:n])
	return Preview{Samples: samples, TotalCount: len(examples)}
}

// Stats summarizes token lengths across a dataset. Lengths are estimated
// token counts; averages are truncated.
type Stats struct {
	NumSamples          int  `json:"num_samples"`
	AvgInputLength      int  `json:"avg_input_length"`
	AvgOutputLength     int  `json:"avg_output_length"`
	AvgTokensPerSample  int  `json:"avg_tokens_per_sample"`
	MaxTokens           int  `json:"max_tokens"`
	MinTokens           int  `json:"min_tokens"`
	HasSystemPrompts    bool `json:"has_system_prompts"`
	UniqueSystemPrompts int  `json:"unique_system_prompts"`
}

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	return int(float64(len(strings.Fields(s))) * tokensPerWord)
}

// ComputeStats returns statistics over examples. It fails on an empty
// dataset.
func ComputeStats(examples []domain.TrainingExample) (Stats, error) {
	if len(examples) == 0 {
		return Stats{}, ErrEmpty
	}

	var (
		sumIn, sumOut int
		systems       = map[string]struct{}{}
		st            = Stats{NumSamples: len(examples)}
	)
	for i, ex := range examples {
		in, out := EstimateTokens(ex.Input), EstimateTokens(ex.Output)
		total := in + out
		sumIn += in
		sumOut += out
		if i == 0 || total > st.MaxTokens {
			st.MaxTokens = total
		}
		if i == 0 || total < st.MinTokens {
			st.MinTokens = total
		}
		if ex.System != "" {
			systems[ex.System] = struct{}{}
		}
	}

	n := len(examples)
	st.AvgInputLength = sumIn / n
	st.AvgOutputLength = sumOut / n
	st.AvgTokensPerSample = (sumIn + sumOut) / n
	st.HasSystemPrompts = len(systems) > 0
	st.UniqueSystemPrompts = len(systems)
	return st, nil
}
