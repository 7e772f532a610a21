package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bledden/tinker-voice/internal/tinker"
)

func trainingCmd() *cobra.Command {
	trainingRoot := &cobra.Command{
		Use:     "training",
		Aliases: []string{"train"},
		Short:   "Manage fine-tuning runs",
		Long: "Create, inspect, cancel, and wait on fine-tuning runs, browse their\n" +
			"checkpoints, and list the base models the training service offers.",
	}

	trainingRoot.AddCommand(
		trainingListCmd(),
		trainingGetCmd(),
		trainingCreateCmd(),
		trainingCancelCmd(),
		trainingWaitCmd(),
		trainingCheckpointsCmd(),
		trainingModelsCmd(),
		trainingRecommendCmd(),
	)

	return trainingRoot
}

func trainingListCmd() *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List training runs",
		Example: `  tinker-voice training list
  tinker-voice training list --page 2 --per-page 20 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := newClient().ListRuns(cmd.Context(), page, perPage)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Runs) == 0 {
				fmt.Println("No training runs found.")
				return nil
			}
			if err := printRunsTable(os.Stdout, resp.Runs); err != nil {
				return err
			}
			fmt.Printf("\nPage %d, %d of %d runs\n", resp.Page, len(resp.Runs), resp.Total)
			return nil
		},
	}

	addPageFlags(cmd.Flags(), &page, &perPage)

	return cmd
}

func trainingGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run_id>",
		Short: "Show a training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := newClient().GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			return printRunDetail(os.Stdout, &run)
		},
	}
}

// createOptions holds the flags of training create. Flags that were set
// override values read from --file.
type createOptions struct {
	file         string
	model        string
	trainingType string
	datasetPath  string
	name         string
	learningRate float64
	batchSize    int
	epochs       int
	loraRank     int
}

func (o *createOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.file, "file", "f", "", "training config file (YAML or JSON)")
	fs.StringVar(&o.model, "model", "", "base model ID")
	fs.StringVar(&o.trainingType, "type", "", "training type (sft, rl, grpo, ppo, dpo, gkd)")
	fs.StringVar(&o.datasetPath, "dataset", "", "dataset path returned by dataset upload")
	fs.StringVar(&o.name, "name", "", "run name")
	fs.Float64Var(&o.learningRate, "learning-rate", 0, "learning rate")
	fs.IntVar(&o.batchSize, "batch-size", 0, "batch size")
	fs.IntVar(&o.epochs, "epochs", 0, "number of epochs")
	fs.IntVar(&o.loraRank, "lora-rank", 0, "LoRA rank; enables LoRA when set")
}

// config builds the training config from the file and any set flags.
func (o *createOptions) config(fs *pflag.FlagSet) (tinker.TrainingConfig, error) {
	cfg := tinker.TrainingConfig{
		TrainingType:    tinker.TrainingSFT,
		Hyperparameters: tinker.DefaultHyperparameters(),
	}
	if o.file != "" {
		data, err := readInput(o.file)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", o.file, err)
		}
	}

	if fs.Changed("model") {
		cfg.Model = o.model
	}
	if fs.Changed("type") {
		cfg.TrainingType = tinker.TrainingType(o.trainingType)
	}
	if fs.Changed("dataset") {
		cfg.DatasetPath = o.datasetPath
	}
	if fs.Changed("name") {
		cfg.Name = o.name
	}
	if fs.Changed("learning-rate") {
		cfg.Hyperparameters.LearningRate = o.learningRate
	}
	if fs.Changed("batch-size") {
		cfg.Hyperparameters.BatchSize = o.batchSize
	}
	if fs.Changed("epochs") {
		cfg.Hyperparameters.NumEpochs = o.epochs
	}
	if fs.Changed("lora-rank") {
		if cfg.LoraConfig == nil {
			cfg.LoraConfig = &tinker.LoraConfig{Alpha: float64(2 * o.loraRank)}
		}
		cfg.LoraConfig.Rank = o.loraRank
	}

	return cfg, nil
}

func trainingCreateCmd() *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a training run",
		Example: `  tinker-voice training create --model llama-3-8b --dataset datasets/ds-1.jsonl
  tinker-voice training create -f run.yaml --epochs 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd.Flags())
			if err != nil {
				return err
			}
			run, err := newClient().CreateRun(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			fmt.Printf("Training run %s created (%s).\n", run.ID, run.Status)
			return nil
		},
	}

	opts.register(cmd.Flags())

	return cmd
}

func trainingCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run_id>",
		Short: "Cancel a training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := newClient().CancelRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			fmt.Printf("Training run %s is %s.\n", run.ID, run.Status)
			return nil
		},
	}
}

func trainingWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <run_id>",
		Short: "Block until a training run finishes",
		Long: "Block until a training run completes, fails, or is cancelled. The server\n" +
			"polls the training service with backoff and gives up after its configured limit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := newClient().WaitForRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			return printRunDetail(os.Stdout, &run)
		},
	}
}

func trainingCheckpointsCmd() *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "checkpoints <run_id> [checkpoint_id]",
		Short: "List a run's checkpoints, or show one",
		Args:  cobra.RangeArgs(1, 2),
		Example: `  tinker-voice training checkpoints run-1
  tinker-voice training checkpoints run-1 ck-500 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if len(args) == 2 {
				ck, err := c.GetCheckpoint(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(ck)
				}
				return printCheckpointsTable(os.Stdout, []tinker.Checkpoint{ck})
			}
			resp, err := c.ListCheckpoints(cmd.Context(), args[0], page, perPage)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Checkpoints) == 0 {
				fmt.Printf("No checkpoints for run %q.\n", args[0])
				return nil
			}
			return printCheckpointsTable(os.Stdout, resp.Checkpoints)
		},
	}

	addPageFlags(cmd.Flags(), &page, &perPage)

	return cmd
}

func trainingModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List base models available for fine-tuning",
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := newClient().ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(models)
			}
			return printModelsTable(os.Stdout, models)
		},
	}
}

func trainingRecommendCmd() *cobra.Command {
	var datasetInfo string

	cmd := &cobra.Command{
		Use:   "recommend <requirements>",
		Short: "Ask the config agent for a training setup",
		Args:  cobra.ExactArgs(1),
		Example: `  tinker-voice training recommend "classify support tickets into 8 queues" \
    --dataset-info "2,400 examples, avg 180 tokens"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newClient().RecommendConfig(cmd.Context(), args[0], datasetInfo)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(rec)
			}
			out, err := yaml.Marshal(rec.RecommendedConfig)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			fmt.Printf("\n%s\n", rec.Reasoning)
			for _, w := range rec.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetInfo, "dataset-info", "", "description of the training data")

	return cmd
}

func addPageFlags(fs *pflag.FlagSet, page, perPage *int) {
	fs.IntVar(page, "page", 0, "page number (server default 1)")
	fs.IntVar(perPage, "per-page", 0, "results per page (server default 10)")
}
