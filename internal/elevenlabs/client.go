// Package elevenlabs wraps the ElevenLabs speech-to-text and text-to-speech
// APIs.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

const (
	// DefaultBaseURL is the ElevenLabs API base URL.
	DefaultBaseURL = "https://api.elevenlabs.io"
	// DefaultVoiceID is the voice used when a request names none.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

	defaultSTTModel = "scribe_v1"
	defaultTTSModel = "eleven_multilingual_v2"
	defaultAudioCT  = "audio/mpeg"
)

// Input errors.
var (
	ErrInvalidAudio = errors.New("invalid audio")
	ErrEmptyText    = errors.New("text is empty")
)

// Transcription is the result of speech-to-text.
type Transcription struct {
	Text         string   `json:"text"`
	Confidence   *float64 `json:"confidence,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
}

// Speech is synthesized audio.
type Speech struct {
	AudioBase64 string `json:"audio_base64"`
	ContentType string `json:"content_type"`
}

// VoiceSettings tunes synthesis.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings returns the settings used when a request has none.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		UseSpeakerBoost: true,
	}
}

// Voice is one available synthesis voice.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// SpeechRequest is the input to TextToSpeech. Empty VoiceID and nil
// Settings take the client defaults.
type SpeechRequest struct {
	Text     string
	VoiceID  string
	Settings *VoiceSettings
}

// Client calls the ElevenLabs API.
type Client struct {
	baseURL       string
	voiceID       string
	sttModel      string
	ttsModel      string
	clientOptions []remote.Option
	remote        *remote.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithDefaultVoice sets the voice used when a request names none.
func WithDefaultVoice(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.voiceID = id
		}
	}
}

// WithTTSModel overrides the synthesis model.
func WithTTSModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.ttsModel = model
		}
	}
}

// WithSTTModel overrides the transcription model.
func WithSTTModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.sttModel = model
		}
	}
}

// WithClientOptions passes options to the underlying remote client.
func WithClientOptions(opts ...remote.Option) Option {
	return func(c *Client) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

// New creates an ElevenLabs client authenticated by cred.
func New(cred *remote.Credential, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		voiceID:  DefaultVoiceID,
		sttModel: defaultSTTModel,
		ttsModel: defaultTTSModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remote = remote.New(remote.Integration{
		Service: domain.ServiceElevenLabs,
		BaseURL: c.baseURL,
		Auth:    remote.HeaderAuth{Name: "xi-api-key"},
	}, cred, c.clientOptions...)
	return c
}

// DefaultVoiceID returns the voice used when a request names none.
func (c *Client) DefaultVoiceID() string {
	return c.voiceID
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.remote.Credential().Configured()
}

var transcriptionSchema = extract.Schema{
	Name: "transcription",
	Fields: []extract.Field{
		{Name: "text", Kind: extract.KindString, Required: true},
		{Name: "confidence", Kind: extract.KindNumber},
		{Name: "language_code", Kind: extract.KindString},
	},
}

// Transcribe converts base64-encoded webm audio to text.
func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (Transcription, error) {
	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(audioBase64))
	if err != nil {
		return Transcription{}, fmt.Errorf("%w: decoding base64: %w", ErrInvalidAudio, err)
	}
	return c.TranscribeAudio(ctx, audio, "audio.webm", "audio/webm")
}

// TranscribeAudio uploads raw audio for transcription.
func (c *Client) TranscribeAudio(
	ctx context.Context,
	audio []byte,
	filename, contentType string,
) (Transcription, error) {
	if len(audio) == 0 {
		return Transcription{}, fmt.Errorf("%w: no audio data", ErrInvalidAudio)
	}

	return remote.Call[Transcription](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/speech-to-text",
		Form: &remote.Form{
			Fields: []remote.FormField{{Name: "model_id", Value: c.sttModel}},
			Files: []remote.FormFile{{
				Field:       "audio",
				Filename:    filename,
				ContentType: contentType,
				Data:        audio,
			}},
		},
	}, transcriptionSchema)
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// TextToSpeech synthesizes req.Text and returns base64-encoded audio.
func (c *Client) TextToSpeech(ctx context.Context, req SpeechRequest) (Speech, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Speech{}, ErrEmptyText
	}

	voice := req.VoiceID
	if voice == "" {
		voice = c.voiceID
	}
	settings := DefaultVoiceSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	resp, err := c.remote.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/text-to-speech/" + url.PathEscape(voice) + "/stream",
		Accept: defaultAudioCT,
		JSON: ttsRequest{
			Text:          req.Text,
			ModelID:       c.ttsModel,
			VoiceSettings: settings,
		},
		Resource: voice,
	})
	if err != nil {
		return Speech{}, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = defaultAudioCT
	}
	return Speech{
		AudioBase64: base64.StdEncoding.EncodeToString(resp.Body),
		ContentType: ct,
	}, nil
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

var voicesSchema = extract.Schema{
	Name: "voices",
	Fields: []extract.Field{
		{Name: "voices", Kind: extract.KindArray, Default: []any{}},
	},
}

// ListVoices returns the voices available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := remote.Call[voicesResponse](ctx, c.remote, remote.Request{
		Path: "/v1/voices",
	}, voicesSchema)
	if err != nil {
		return nil, err
	}
	return resp.Voices, nil
}

// Ping verifies the credential by fetching the account.
func (c *Client) Ping(ctx context.Context) error {
	return c.remote.Send(ctx, remote.Request{Path: "/v1/user"})
}
