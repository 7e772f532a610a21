package yutori

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const (
	mlResearchDepth      = 4
	mlResearchDomain     = "machine learning fine-tuning"
	mlResearchMaxSources = 20
	maxParamRecs         = 5
)

// ParameterRecommendation is a hyperparameter suggestion pulled from a
// research insight.
type ParameterRecommendation struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Rationale string `json:"rationale"`
}

// MLResearchResult groups research insights for a fine-tuning task.
type MLResearchResult struct {
	RecommendedParams []ParameterRecommendation `json:"recommended_params"`
	BestPractices     []string                  `json:"best_practices"`
	DataPatterns      []string                  `json:"data_patterns"`
	Pitfalls          []string                  `json:"pitfalls"`
}

// MLQuery builds the research query for a fine-tuning task.
func MLQuery(task, modelType, trainingType string) string {
	return fmt.Sprintf(
		"Best practices and recommended hyperparameters for %s fine-tuning %s models. "+
			"Task: %s. "+
			"Include: learning rates, batch sizes, LoRA configurations, common pitfalls, "+
			"data formatting patterns, and evaluation strategies.",
		trainingType, modelType, task,
	)
}

// ResearchMLTask researches fine-tuning guidance for a task and classifies
// the returned insights.
func (c *Client) ResearchMLTask(
	ctx context.Context,
	task, modelType, trainingType string,
) (MLResearchResult, error) {
	res, err := c.Research(ctx, ResearchRequest{
		Query:      MLQuery(task, modelType, trainingType),
		Depth:      mlResearchDepth,
		Domain:     mlResearchDomain,
		MaxSources: mlResearchMaxSources,
	})
	if err != nil {
		return MLResearchResult{}, fmt.Errorf("researching ML task: %w", err)
	}
	return ClassifyInsights(res.Insights), nil
}

// ClassifyInsights sorts insights by keyword. An insight can land in more
// than one group; at most five become parameter recommendations.
func ClassifyInsights(insights []string) MLResearchResult {
	out := MLResearchResult{
		RecommendedParams: []ParameterRecommendation{},
		BestPractices:     []string{},
		DataPatterns:      []string{},
		Pitfalls:          []string{},
	}
	for _, in := range insights {
		lower := strings.ToLower(in)
		if containsAny(lower, "rate", "batch", "rank") && len(out.RecommendedParams) < maxParamRecs {
			out.RecommendedParams = append(out.RecommendedParams, ParameterRecommendation{
				Name:      ParamName(in),
				Value:     ParamValue(in),
				Rationale: in,
			})
		}
		if containsAny(lower, "should", "best", "recommend") {
			out.BestPractices = append(out.BestPractices, in)
		}
		if containsAny(lower, "format", "data", "example") {
			out.DataPatterns = append(out.DataPatterns, in)
		}
		if containsAny(lower, "avoid", "don't", "warning") {
			out.Pitfalls = append(out.Pitfalls, in)
		}
	}
	return out
}

// ParamName guesses the hyperparameter an insight is about.
func ParamName(insight string) string {
	lower := strings.ToLower(insight)
	switch {
	case strings.Contains(lower, "learning rate"):
		return "learning_rate"
	case strings.Contains(lower, "batch size"):
		return "batch_size"
	case strings.Contains(lower, "rank"):
		return "lora_rank"
	case strings.Contains(lower, "epoch"):
		return "num_epochs"
	default:
		return "parameter"
	}
}

// ParamValue returns the first numeric-looking word of insight, or
// "unknown".
func ParamValue(insight string) string {
	for _, word := range strings.Fields(insight) {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsDigit(r) && r != '.' && r != '-' && r != 'e'
		})
		if cleaned != "" && unicode.IsDigit(rune(cleaned[0])) {
			return cleaned
		}
	}
	return "unknown"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
