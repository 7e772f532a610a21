// Package app assembles the vendor integrations, reasoning agents, and key
// management from configuration.
package app

import (
	"fmt"
	"log/slog"

	"github.com/bledden/tinker-voice/internal/agents"
	"github.com/bledden/tinker-voice/internal/config"
	"github.com/bledden/tinker-voice/internal/elevenlabs"
	"github.com/bledden/tinker-voice/internal/llm"
	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/tonic"
	"github.com/bledden/tinker-voice/internal/yutori"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// Services holds every wired integration. One credential per vendor is
// shared by that vendor's client and the key manager.
type Services struct {
	Speech    *elevenlabs.Client
	Anthropic *llm.AnthropicBackend
	Agents    *agents.Runner
	Data      *tonic.Client
	Research  *yutori.Client
	Training  *tinker.Client
	Keys      *Keys
}

// Option configures New.
type Option func(*options)

type options struct {
	remote []remote.Option
	poll   []poll.Option
}

// WithRemoteOptions passes options to every vendor's request client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *options) {
		o.remote = append(o.remote, opts...)
	}
}

// WithPollOptions passes options to the research and training pollers.
func WithPollOptions(opts ...poll.Option) Option {
	return func(o *options) {
		o.poll = append(o.poll, opts...)
	}
}

// New builds the services described by cfg.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*Services, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	creds := make(map[domain.Service]*remote.Credential, len(domain.Services))
	for _, s := range domain.Services {
		creds[s] = remote.NewCredential(cfg.Vendor(s).APIKey)
	}
	vendorOpts := func(s domain.Service) []remote.Option {
		rl := cfg.Vendor(s).RateLimit
		out := []remote.Option{
			remote.WithTimeout(cfg.Services.Timeout),
			remote.WithLogger(log.With("service", string(s))),
		}
		if rl.PerSecond > 0 || rl.DailyLimit > 0 {
			out = append(out, remote.WithRateLimiter(
				remote.NewRateLimiter(rl.PerSecond, rl.Burst, rl.DailyLimit),
			))
		}
		return append(out, o.remote...)
	}
	poller := func(name string) *poll.Poller {
		popts := []poll.Option{
			poll.WithName(name),
			poll.WithRetryable(remote.IsRetryable),
			poll.WithLogger(log),
		}
		return poll.New(append(popts, o.poll...)...)
	}

	el := cfg.Services.ElevenLabs
	speech := elevenlabs.New(creds[domain.ServiceElevenLabs],
		elevenlabs.WithBaseURL(el.BaseURL),
		elevenlabs.WithDefaultVoice(el.VoiceID),
		elevenlabs.WithTTSModel(el.TTSModel),
		elevenlabs.WithSTTModel(el.STTModel),
		elevenlabs.WithClientOptions(vendorOpts(domain.ServiceElevenLabs)...),
	)

	an := cfg.Services.Anthropic
	anthropic := llm.NewAnthropicBackend(creds[domain.ServiceAnthropic],
		llm.WithAnthropicBaseURL(an.BaseURL),
		llm.WithAnthropicModel(an.Model),
		llm.WithAnthropicClientOptions(vendorOpts(domain.ServiceAnthropic)...),
	)

	backend, err := agentBackend(cfg, anthropic, o.remote)
	if err != nil {
		return nil, err
	}

	svc := &Services{
		Speech:    speech,
		Anthropic: anthropic,
		Agents: agents.NewRunner(backend,
			agents.WithTemperature(cfg.LLM.Temperature),
			agents.WithMaxTokens(cfg.LLM.MaxTokens),
			agents.WithLogger(log),
		),
		Data: tonic.New(creds[domain.ServiceTonic],
			tonic.WithBaseURL(cfg.Services.Tonic.BaseURL),
			tonic.WithClientOptions(vendorOpts(domain.ServiceTonic)...),
		),
		Research: yutori.New(creds[domain.ServiceYutori],
			yutori.WithBaseURL(cfg.Services.Yutori.BaseURL),
			yutori.WithClientOptions(vendorOpts(domain.ServiceYutori)...),
			yutori.WithPoller(poller("research")),
			yutori.WithPolicy(cfg.Polling.Research),
			yutori.WithLogger(log),
		),
		Training: tinker.New(creds[domain.ServiceTinker],
			tinker.WithBaseURL(cfg.Services.Tinker.BaseURL),
			tinker.WithClientOptions(vendorOpts(domain.ServiceTinker)...),
			tinker.WithPoller(poller("training")),
			tinker.WithPolicy(cfg.Polling.Training),
			tinker.WithLogger(log),
		),
	}

	svc.Keys = NewKeys(creds, map[domain.Service]Pinger{
		domain.ServiceElevenLabs: svc.Speech,
		domain.ServiceAnthropic:  svc.Anthropic,
		domain.ServiceTonic:      svc.Data,
		domain.ServiceYutori:     svc.Research,
		domain.ServiceTinker:     svc.Training,
	}, WithKeysLogger(log))

	return svc, nil
}

func agentBackend(
	cfg *config.Config,
	anthropic *llm.AnthropicBackend,
	extra []remote.Option,
) (llm.Backend, error) {
	base := append([]remote.Option{remote.WithTimeout(cfg.Services.Timeout)}, extra...)
	switch cfg.LLM.Backend {
	case "anthropic", "":
		return anthropic, nil
	case "ollama":
		return llm.NewOllamaBackend(cfg.LLM.Ollama.Endpoint, cfg.LLM.Ollama.Model, base...), nil
	case "openai_compat":
		c := cfg.LLM.OpenAICompat
		return llm.NewOpenAICompatBackend(c.Endpoint, c.Model, remote.NewCredential(c.APIKey), base...), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.LLM.Backend)
	}
}
