package tinker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bledden/tinker-voice/internal/poll"
)

// ErrInvalidConfig is returned when a training config fails validation.
var ErrInvalidConfig = errors.New("invalid training config")

// TrainingType is a fine-tuning method.
type TrainingType string

// Training types.
const (
	TrainingSFT  TrainingType = "sft"
	TrainingRL   TrainingType = "rl"
	TrainingGRPO TrainingType = "grpo"
	TrainingPPO  TrainingType = "ppo"
	TrainingDPO  TrainingType = "dpo"
	TrainingGKD  TrainingType = "gkd"
)

// TrainingTypes lists every supported training type.
var TrainingTypes = []TrainingType{
	TrainingSFT, TrainingRL, TrainingGRPO, TrainingPPO, TrainingDPO, TrainingGKD,
}

// RunStatus is the lifecycle status of a training run.
type RunStatus string

// Run statuses.
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// PollStatus maps a run status to the poller's vocabulary. Cancelled runs
// are failed.
func (s RunStatus) PollStatus() poll.Status {
	switch s {
	case RunPending:
		return poll.StatusPending
	case RunRunning:
		return poll.StatusInProgress
	case RunCompleted:
		return poll.StatusCompleted
	case RunFailed, RunCancelled:
		return poll.StatusFailed
	default:
		return poll.Status(s)
	}
}

// Hyperparameters are the optimizer settings of a run.
type Hyperparameters struct {
	LearningRate              float64  `json:"learning_rate"                         yaml:"learning_rate"`
	BatchSize                 int      `json:"batch_size"                            yaml:"batch_size"`
	NumEpochs                 int      `json:"num_epochs"                            yaml:"num_epochs"`
	MaxSteps                  *int     `json:"max_steps,omitempty"                   yaml:"max_steps,omitempty"`
	WarmupSteps               *int     `json:"warmup_steps,omitempty"                yaml:"warmup_steps,omitempty"`
	WeightDecay               *float64 `json:"weight_decay,omitempty"                yaml:"weight_decay,omitempty"`
	GradientAccumulationSteps *int     `json:"gradient_accumulation_steps,omitempty" yaml:"gradient_accumulation_steps,omitempty"`
}

// DefaultHyperparameters returns the settings used when none are given.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate: 1e-4,
		BatchSize:    4,
		NumEpochs:    3,
	}
}

// DefaultTargetModules are the layers adapted when a LoraConfig names none.
var DefaultTargetModules = []string{"q_proj", "v_proj"}

// LoraConfig configures low-rank adaptation.
type LoraConfig struct {
	Rank          int      `json:"rank"           yaml:"rank"`
	Alpha         float64  `json:"alpha"          yaml:"alpha"`
	Dropout       float64  `json:"dropout"        yaml:"dropout"`
	TargetModules []string `json:"target_modules" yaml:"target_modules"`
}

// TrainingConfig is the input to CreateRun.
type TrainingConfig struct {
	Model           string          `json:"model"                 yaml:"model"`
	TrainingType    TrainingType    `json:"training_type"         yaml:"training_type"`
	DatasetPath     string          `json:"dataset_path"          yaml:"dataset_path"`
	Hyperparameters Hyperparameters `json:"hyperparameters"       yaml:"hyperparameters"`
	LoraConfig      *LoraConfig     `json:"lora_config,omitempty" yaml:"lora_config,omitempty"`
	Name            string          `json:"name,omitempty"        yaml:"name,omitempty"`
	Description     string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// WithDefaults fills the LoRA target modules when they are unset.
func (c TrainingConfig) WithDefaults() TrainingConfig {
	if c.LoraConfig != nil && len(c.LoraConfig.TargetModules) == 0 {
		lc := *c.LoraConfig
		lc.TargetModules = slices.Clone(DefaultTargetModules)
		c.LoraConfig = &lc
	}
	return c
}

// Validate checks required fields and value ranges.
func (c TrainingConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		errs = append(errs, errors.New("dataset_path is required"))
	}
	if !slices.Contains(TrainingTypes, c.TrainingType) {
		errs = append(errs, fmt.Errorf("unknown training_type %q", c.TrainingType))
	}
	hp := c.Hyperparameters
	if hp.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be > 0 (got %g)", hp.LearningRate))
	}
	if hp.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be > 0 (got %d)", hp.BatchSize))
	}
	if hp.NumEpochs <= 0 {
		errs = append(errs, fmt.Errorf("num_epochs must be > 0 (got %d)", hp.NumEpochs))
	}
	if c.LoraConfig != nil && c.LoraConfig.Rank <= 0 {
		errs = append(errs, fmt.Errorf("lora_config.rank must be > 0 (got %d)", c.LoraConfig.Rank))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TrainingProgress reports how far a run has advanced.
type TrainingProgress struct {
	CurrentStep  int      `json:"current_step"`
	TotalSteps   int      `json:"total_steps"`
	CurrentEpoch int      `json:"current_epoch"`
	TotalEpochs  int      `json:"total_epochs"`
	Loss         *float64 `json:"loss,omitempty"`
	ETASeconds   *int64   `json:"eta_seconds,omitempty"`
}

// PercentComplete returns the share of steps done, from 0 to 100.
func (p TrainingProgress) PercentComplete() float64 {
	if p.TotalSteps <= 0 {
		return 0
	}
	return float64(p.CurrentStep) / float64(p.TotalSteps) * 100
}

// TrainingRun is a fine-tuning job.
type TrainingRun struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Status       RunStatus         `json:"status"`
	Model        string            `json:"model"`
	TrainingType TrainingType      `json:"training_type"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Progress     *TrainingProgress `json:"progress,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ListRunsResponse is one page of training runs.
type ListRunsResponse struct {
	Runs    []TrainingRun `json:"runs"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

// CheckpointMetrics are evaluation results captured with a checkpoint.
type CheckpointMetrics struct {
	Loss     float64  `json:"loss"`
	EvalLoss *float64 `json:"eval_loss,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Checkpoint is a saved model state of a run.
type Checkpoint struct {
	ID        string             `json:"id"`
	RunID     string             `json:"run_id"`
	Step      int                `json:"step"`
	Path      string             `json:"path"`
	SizeBytes int64              `json:"size_bytes"`
	CreatedAt time.Time          `json:"created_at"`
	Metrics   *CheckpointMetrics `json:"metrics,omitempty"`
}

// ListCheckpointsResponse is one page of checkpoints.
type ListCheckpointsResponse struct {
	Checkpoints []Checkpoint `json:"checkpoints"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	PerPage     int          `json:"per_page"`
}

// ModelInfo describes a base model available for fine-tuning.
type ModelInfo struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Parameters             string         `json:"parameters"`
	SupportedTrainingTypes []TrainingType `json:"supported_training_types"`
	MaxLoraRank            int            `json:"max_lora_rank"`
	PricePerMillionTokens  float64        `json:"price_per_million_tokens"`
}

// DatasetUpload is the result of uploading a dataset file.
type DatasetUpload struct {
	DatasetID string `json:"dataset_id"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	RowCount  int    `json:"row_count"`
}
