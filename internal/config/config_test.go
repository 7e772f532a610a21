package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/poll"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file uses defaults",
			yaml: ``,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 8787, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 10*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 30*time.Second, cfg.Services.Timeout)
				assert.Equal(t, 1, cfg.Services.Tinker.RateLimit.Burst)
				assert.Equal(t, "anthropic", cfg.LLM.Backend)
				assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0)
				assert.Equal(t, 4096, cfg.LLM.MaxTokens)
				assert.Equal(t, poll.DefaultPolicy(), cfg.Polling.Research)
				assert.Equal(t, 5*time.Second, cfg.Polling.Training.InitialDelay)
				assert.Equal(t, 12*time.Hour, cfg.Polling.Training.MaxElapsed)
				assert.False(t, cfg.Health.Enabled)
				assert.Equal(t, 15*time.Minute, cfg.Health.Interval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
services:
  yutori:
    api_key: "${TEST_YUTORI_KEY}"
`,
			envVars: map[string]string{
				"TEST_YUTORI_KEY": "yk-123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "yk-123", cfg.Services.Yutori.APIKey)
			},
		},
		{
			name: "api keys fall back to service env vars",
			yaml: `
services:
  tonic:
    api_key: from-file
`,
			envVars: map[string]string{
				"ELEVENLABS_API_KEY": "el-env",
				"TONIC_API_KEY":      "tonic-env",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "el-env", cfg.Services.ElevenLabs.APIKey)
				assert.Equal(t, "from-file", cfg.Services.Tonic.APIKey)
			},
		},
		{
			name: "invalid llm backend",
			yaml: `
llm:
  backend: invalid_backend
`,
			wantErr: `llm.backend must be one of: anthropic, ollama, openai_compat (got "invalid_backend")`,
		},
		{
			name: "ollama backend missing endpoint",
			yaml: `
llm:
  backend: ollama
`,
			wantErr: "llm.ollama.endpoint is required when backend is ollama",
		},
		{
			name: "openai_compat backend missing endpoint",
			yaml: `
llm:
  backend: openai_compat
`,
			wantErr: "llm.openai_compat.endpoint is required when backend is openai_compat",
		},
		{
			name: "unbounded research policy",
			yaml: `
polling:
  research:
    initial_delay: 1s
    max_delay: 10s
    multiplier: 2
`,
			wantErr: "polling.research",
		},
		{
			name: "shrinking training multiplier",
			yaml: `
polling:
  training:
    initial_delay: 1s
    max_delay: 10s
    multiplier: 0.5
    max_attempts: 10
`,
			wantErr: "multiplier must be >= 1",
		},
		{
			name: "write timeout shorter than research budget",
			yaml: `
server:
  write_timeout: 2m
`,
			wantErr: "server.write_timeout (2m0s) must cover the polling.research budget (9m25s)",
		},
		{
			name: "write timeout shorter than attempt-bounded training budget",
			yaml: `
server:
  write_timeout: 1m
polling:
  research:
    initial_delay: 1s
    max_delay: 1s
    multiplier: 1
    max_attempts: 10
  training:
    initial_delay: 10s
    max_delay: 10s
    multiplier: 1
    max_attempts: 10
`,
			wantErr: "polling.training budget (1m30s)",
		},
		{
			name: "elapsed-bounded training ignores write timeout",
			yaml: `
server:
  write_timeout: 1m
polling:
  research:
    initial_delay: 1s
    max_delay: 1s
    multiplier: 1
    max_attempts: 10
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 12*time.Hour, cfg.Polling.Training.MaxElapsed)
			},
		},
		{
			name: "zero initial delay with max delay",
			yaml: `
polling:
  research:
    initial_delay: 0s
    max_delay: 10s
    multiplier: 2
    max_attempts: 5
`,
			wantErr: "initial_delay must be > 0 when max_delay is set",
		},
		{
			name: "health interval too short",
			yaml: `
health:
  enabled: true
  interval: 10s
`,
			wantErr: "health.interval must be >= 1m",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "0.0.0.0"
  port: 9090
  read_timeout: 60s
  write_timeout: 5m
services:
  timeout: 45s
  elevenlabs:
    api_key: el
    voice_id: custom-voice
    tts_model: eleven_turbo_v2
  anthropic:
    api_key: an
    base_url: http://localhost:9000
    model: claude-haiku-4-20250514
    rate_limit:
      per_second: 2
      burst: 4
      daily_limit: 1000
  tinker:
    api_key: tk
    base_url: http://localhost:9001
llm:
  backend: ollama
  ollama:
    endpoint: http://ollama:11434
    model: mistral:7b
  temperature: 0.7
  max_tokens: 1024
polling:
  research:
    initial_delay: 500ms
    max_delay: 5s
    multiplier: 1.5
    max_attempts: 20
    fetch_timeout: 10s
health:
  enabled: true
  interval: 5m
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 45*time.Second, cfg.Services.Timeout)
				assert.Equal(t, "el", cfg.Services.ElevenLabs.APIKey)
				assert.Equal(t, "custom-voice", cfg.Services.ElevenLabs.VoiceID)
				assert.Equal(t, "eleven_turbo_v2", cfg.Services.ElevenLabs.TTSModel)
				assert.Equal(t, "claude-haiku-4-20250514", cfg.Services.Anthropic.Model)
				assert.Equal(t, "http://localhost:9000", cfg.Services.Anthropic.BaseURL)
				assert.Equal(t, RateLimitConfig{PerSecond: 2, Burst: 4, DailyLimit: 1000},
					cfg.Services.Anthropic.RateLimit)
				assert.Equal(t, "http://localhost:9001", cfg.Services.Tinker.BaseURL)
				assert.Equal(t, "ollama", cfg.LLM.Backend)
				assert.Equal(t, "mistral:7b", cfg.LLM.Ollama.Model)
				assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0)
				assert.Equal(t, 1024, cfg.LLM.MaxTokens)
				assert.Equal(t, poll.Policy{
					InitialDelay: 500 * time.Millisecond,
					MaxDelay:     5 * time.Second,
					Multiplier:   1.5,
					MaxAttempts:  20,
					FetchTimeout: 10 * time.Second,
				}, cfg.Polling.Research)
				assert.True(t, cfg.Health.Enabled)
				assert.Equal(t, 5*time.Minute, cfg.Health.Interval)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDefault(t *testing.T) {
	t.Setenv("TINKER_API_KEY", "tk-env")

	cfg := Default()
	require.NoError(t, validate(cfg))
	assert.Equal(t, "tk-env", cfg.Services.Tinker.APIKey)
}

func TestConfig_Vendor(t *testing.T) {
	t.Parallel()

	cfg := &Config{Services: ServicesConfig{
		ElevenLabs: ElevenLabsConfig{VendorConfig: VendorConfig{APIKey: "el"}},
		Anthropic:  AnthropicConfig{VendorConfig: VendorConfig{APIKey: "an"}},
		Tonic:      VendorConfig{APIKey: "to"},
		Yutori:     VendorConfig{APIKey: "yu"},
		Tinker:     VendorConfig{APIKey: "ti"},
	}}

	tests := []struct {
		service domain.Service
		want    string
	}{
		{domain.ServiceElevenLabs, "el"},
		{domain.ServiceAnthropic, "an"},
		{domain.ServiceTonic, "to"},
		{domain.ServiceYutori, "yu"},
		{domain.ServiceTinker, "ti"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cfg.Vendor(tt.service).APIKey)
		})
	}
}
