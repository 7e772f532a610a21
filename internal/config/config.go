// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bledden/tinker-voice/internal/poll"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Services ServicesConfig `yaml:"services"`
	LLM      LLMConfig      `yaml:"llm"`
	Polling  PollingConfig  `yaml:"polling"`
	Health   HealthConfig   `yaml:"health"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ServicesConfig holds one section per vendor integration.
type ServicesConfig struct {
	// Timeout bounds each vendor call.
	Timeout    time.Duration    `yaml:"timeout"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Tonic      VendorConfig     `yaml:"tonic"`
	Yutori     VendorConfig     `yaml:"yutori"`
	Tinker     VendorConfig     `yaml:"tinker"`
}

// VendorConfig defines the settings every vendor integration shares. An
// empty APIKey falls back to the service's environment variable.
type VendorConfig struct {
	APIKey    string          `yaml:"api_key"`
	BaseURL   string          `yaml:"base_url"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ElevenLabsConfig defines speech settings.
type ElevenLabsConfig struct {
	VendorConfig `yaml:",inline"`
	VoiceID      string `yaml:"voice_id"`
	TTSModel     string `yaml:"tts_model"`
	STTModel     string `yaml:"stt_model"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	VendorConfig `yaml:",inline"`
	Model        string `yaml:"model"`
}

// RateLimitConfig paces calls to a vendor. Zero PerSecond disables pacing
// and zero DailyLimit disables the daily budget.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// LLMConfig selects the backend the reasoning agents run on.
type LLMConfig struct {
	Backend      string             `yaml:"backend"` // anthropic, ollama, openai_compat
	Ollama       OllamaConfig       `yaml:"ollama"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
	Temperature  float64            `yaml:"temperature"`
	MaxTokens    int                `yaml:"max_tokens"`
}

// OllamaConfig defines Ollama-specific settings.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// OpenAICompatConfig defines OpenAI-compatible endpoint settings.
type OpenAICompatConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// PollingConfig holds the poll policy for each asynchronous job kind.
type PollingConfig struct {
	Research poll.Policy `yaml:"research"`
	Training poll.Policy `yaml:"training"`
}

// HealthConfig controls the periodic vendor connection check.
type HealthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given. API keys
// come from the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Vendor returns the shared settings for a service.
func (c *Config) Vendor(s domain.Service) VendorConfig {
	switch s {
	case domain.ServiceElevenLabs:
		return c.Services.ElevenLabs.VendorConfig
	case domain.ServiceAnthropic:
		return c.Services.Anthropic.VendorConfig
	case domain.ServiceTonic:
		return c.Services.Tonic
	case domain.ServiceYutori:
		return c.Services.Yutori
	case domain.ServiceTinker:
		return c.Services.Tinker
	default:
		return VendorConfig{}
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyServicesDefaults(&cfg.Services)
	applyLLMDefaults(&cfg.LLM)
	applyPollingDefaults(&cfg.Polling)
	applyHealthDefaults(&cfg.Health)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8787
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 10 * time.Minute
	}
}

func applyServicesDefaults(s *ServicesConfig) {
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	applyVendorDefaults(&s.ElevenLabs.VendorConfig, domain.ServiceElevenLabs)
	applyVendorDefaults(&s.Anthropic.VendorConfig, domain.ServiceAnthropic)
	applyVendorDefaults(&s.Tonic, domain.ServiceTonic)
	applyVendorDefaults(&s.Yutori, domain.ServiceYutori)
	applyVendorDefaults(&s.Tinker, domain.ServiceTinker)
}

func applyVendorDefaults(v *VendorConfig, s domain.Service) {
	if v.APIKey == "" {
		v.APIKey = os.Getenv(s.EnvKey())
	}
	if v.RateLimit.Burst == 0 {
		v.RateLimit.Burst = 1
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Backend == "" {
		l.Backend = "anthropic"
	}
	if l.Temperature == 0 {
		l.Temperature = 0.3
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 4096
	}
}

func applyPollingDefaults(p *PollingConfig) {
	if p.Research == (poll.Policy{}) {
		p.Research = poll.DefaultPolicy()
	}
	if p.Training == (poll.Policy{}) {
		p.Training = poll.Policy{
			InitialDelay: 5 * time.Second,
			MaxDelay:     time.Minute,
			Multiplier:   2,
			MaxElapsed:   12 * time.Hour,
		}
	}
}

func applyHealthDefaults(h *HealthConfig) {
	if h.Interval == 0 {
		h.Interval = 15 * time.Minute
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 0..65535 (got %d)", cfg.Server.Port))
	}

	switch cfg.LLM.Backend {
	case "anthropic":
		// API key comes from services.anthropic or the environment.
	case "ollama":
		if cfg.LLM.Ollama.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.ollama.endpoint is required when backend is ollama"),
			)
		}
	case "openai_compat":
		if cfg.LLM.OpenAICompat.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.openai_compat.endpoint is required when backend is openai_compat"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"llm.backend must be one of: anthropic, ollama, openai_compat (got %q)",
				cfg.LLM.Backend,
			),
		)
	}

	for _, pc := range []struct {
		name   string
		policy poll.Policy
	}{
		{"research", cfg.Polling.Research},
		{"training", cfg.Polling.Training},
	} {
		if err := pc.policy.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("polling.%s: %w", pc.name, err))
			continue
		}
		// Waiting routes answer only after the poll loop ends.
		if pc.policy.MaxAttempts == 0 {
			continue
		}
		if budget := pc.policy.Budget(0); cfg.Server.WriteTimeout < budget {
			errs = append(errs, fmt.Errorf(
				"server.write_timeout (%s) must cover the polling.%s budget (%s)",
				cfg.Server.WriteTimeout, pc.name, budget,
			))
		}
	}

	if cfg.Health.Enabled && cfg.Health.Interval < time.Minute {
		errs = append(errs, fmt.Errorf("health.interval must be >= 1m (got %s)", cfg.Health.Interval))
	}

	return errors.Join(errs...)
}
