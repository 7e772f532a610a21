package agents

import (
	"bytes"
	"fmt"
	"text/template"
)

const intentSystemPrompt = `You are the intent parser for TinkerVoice, a voice-driven assistant for fine-tuning language models.

Read the user's request and classify it. Respond ONLY with a JSON object of this shape:
{
  "intent": "generate_data" | "start_training" | "check_status" | "configure" | "research" | "help" | "unknown",
  "entities": {
    "domain": "topic or domain, if given",
    "count": "number of samples, if given",
    "model": "model name, if given",
    "dataset": "dataset reference, if given"
  },
  "confidence": number between 0 and 1,
  "clarification_needed": "a question to ask when the request is ambiguous (optional)"
}

Examples:
- "Make 500 examples of polite refund replies" -> generate_data, entities {"domain": "refund replies", "count": 500}
- "Fine-tune on the dataset I uploaded" -> start_training
- "Is my run done yet?" -> check_status`

const validationSystemPrompt = `You review training datasets for fine-tuning language models.

Check the samples for:
1. Consistent structure across records
2. Required fields present and non-empty
3. Reasonable content lengths and quality
4. Duplicates, encoding problems, or personal data

Respond ONLY with a JSON object of this shape:
{
  "valid": true | false,
  "issues": [
    {"severity": "error" | "warning" | "info", "message": "what is wrong", "location": "where (optional)"}
  ],
  "stats": {"total_samples": number, "valid_samples": number, "fields_found": ["field"]},
  "recommendations": ["how to improve the data"]
}`

const configSystemPrompt = `You recommend fine-tuning configurations for TinkerVoice.

Weigh dataset size and domain, the base model, LoRA settings (rank, target modules),
hyperparameters (learning rate, batch size, steps), and the training type (SFT, DPO, RL).

Respond ONLY with a JSON object of this shape:
{
  "recommended_config": {
    "base_model": "model id",
    "training_type": "sft" | "dpo" | "rl",
    "lora": {"rank": number, "train_mlp": boolean, "train_attn": boolean},
    "hyperparameters": {"learning_rate": number, "batch_size": number, "steps": number}
  },
  "reasoning": "why these values",
  "alternatives": [{"config": {}, "tradeoff": "what changes"}],
  "warnings": ["concerns or limitations"]
}`

const generalSystemPrompt = `You are TinkerVoice, a voice assistant that helps people fine-tune language models.

You can help generate synthetic training data, configure and start training runs,
monitor training progress, and research a domain before generating data.

Answers are spoken aloud, so keep them short and conversational.`

const validateTmpl = "Please validate the following data samples:\n\n```\n{{.Samples}}\n```"

const configTmpl = `Requirements: {{.Requirements}}{{if .DatasetInfo}}

Dataset information:
{{.DatasetInfo}}{{end}}`

var (
	validateTemplate = template.Must(template.New("validate").Parse(validateTmpl))
	configTemplate   = template.Must(template.New("config").Parse(configTmpl))
)

// RenderValidatePrompt renders the user prompt for a validation request.
func RenderValidatePrompt(samples string) (string, error) {
	return render(validateTemplate, struct{ Samples string }{samples})
}

// RenderConfigPrompt renders the user prompt for a config recommendation.
// datasetInfo is omitted when empty.
func RenderConfigPrompt(requirements, datasetInfo string) (string, error) {
	return render(configTemplate, struct {
		Requirements string
		DatasetInfo  string
	}{requirements, datasetInfo})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
