package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/tinker"
)

func TestCreateOptions_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
model: llama-3-8b
training_type: dpo
dataset_path: datasets/ds-1.jsonl
hyperparameters:
  learning_rate: 0.0002
  batch_size: 8
  num_epochs: 2
lora_config:
  rank: 8
  alpha: 16
`), 0o600))

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg tinker.TrainingConfig)
	}{
		{
			name: "defaults without file",
			args: []string{"--model", "llama-3-8b"},
			check: func(t *testing.T, cfg tinker.TrainingConfig) {
				assert.Equal(t, "llama-3-8b", cfg.Model)
				assert.Equal(t, tinker.TrainingSFT, cfg.TrainingType)
				assert.Equal(t, tinker.DefaultHyperparameters(), cfg.Hyperparameters)
				assert.Nil(t, cfg.LoraConfig)
			},
		},
		{
			name: "file values",
			args: []string{"-f", file},
			check: func(t *testing.T, cfg tinker.TrainingConfig) {
				assert.Equal(t, tinker.TrainingType("dpo"), cfg.TrainingType)
				assert.Equal(t, "datasets/ds-1.jsonl", cfg.DatasetPath)
				assert.InDelta(t, 0.0002, cfg.Hyperparameters.LearningRate, 1e-12)
				assert.Equal(t, 8, cfg.Hyperparameters.BatchSize)
				require.NotNil(t, cfg.LoraConfig)
				assert.Equal(t, 8, cfg.LoraConfig.Rank)
			},
		},
		{
			name: "flags override file",
			args: []string{"-f", file, "--epochs", "5", "--lora-rank", "32"},
			check: func(t *testing.T, cfg tinker.TrainingConfig) {
				assert.Equal(t, 5, cfg.Hyperparameters.NumEpochs)
				assert.Equal(t, 8, cfg.Hyperparameters.BatchSize)
				require.NotNil(t, cfg.LoraConfig)
				assert.Equal(t, 32, cfg.LoraConfig.Rank)
				assert.InDelta(t, 16.0, cfg.LoraConfig.Alpha, 0)
			},
		},
		{
			name: "lora rank without file sets alpha",
			args: []string{"--lora-rank", "16"},
			check: func(t *testing.T, cfg tinker.TrainingConfig) {
				require.NotNil(t, cfg.LoraConfig)
				assert.Equal(t, 16, cfg.LoraConfig.Rank)
				assert.InDelta(t, 32.0, cfg.LoraConfig.Alpha, 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := &createOptions{}
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			opts.register(fs)
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := opts.config(fs)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestCreateOptions_Config_BadFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model: [unclosed"), 0o600))

	opts := &createOptions{file: file}
	_, err := opts.config(pflag.NewFlagSet("create", pflag.ContinueOnError))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing "+file)
}
