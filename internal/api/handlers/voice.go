package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bledden/tinker-voice/internal/elevenlabs"
)

// Speech converts between audio and text.
type Speech interface {
	Transcribe(ctx context.Context, audioBase64 string) (elevenlabs.Transcription, error)
	TextToSpeech(ctx context.Context, req elevenlabs.SpeechRequest) (elevenlabs.Speech, error)
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
}

// VoiceHandler handles speech requests.
type VoiceHandler struct {
	speech Speech
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(speech Speech) *VoiceHandler {
	return &VoiceHandler{speech: speech}
}

// TranscribeInput is the request body for transcription.
type TranscribeInput struct {
	Body struct {
		AudioBase64 string `json:"audio_base64" minLength:"1" doc:"Base64-encoded audio (webm, mp3, wav)"`
	}
}

// TranscribeOutput is the transcription result.
type TranscribeOutput struct {
	Body elevenlabs.Transcription
}

// Transcribe converts speech to text.
func (h *VoiceHandler) Transcribe(ctx context.Context, input *TranscribeInput) (*TranscribeOutput, error) {
	tr, err := h.speech.Transcribe(ctx, input.Body.AudioBase64)
	if err != nil {
		return nil, apiError("transcribing audio", err)
	}
	return &TranscribeOutput{Body: tr}, nil
}

// SpeakInput is the request body for speech synthesis.
type SpeakInput struct {
	Body struct {
		Text     string                    `json:"text"               minLength:"1" doc:"Text to speak"`
		VoiceID  string                    `json:"voice_id,omitempty" doc:"Voice to use; defaults to the configured voice"`
		Settings *elevenlabs.VoiceSettings `json:"settings,omitempty" doc:"Voice tuning; defaults apply when omitted"`
	}
}

// SpeakOutput is synthesized audio.
type SpeakOutput struct {
	Body elevenlabs.Speech
}

// Speak converts text to speech.
func (h *VoiceHandler) Speak(ctx context.Context, input *SpeakInput) (*SpeakOutput, error) {
	sp, err := h.speech.TextToSpeech(ctx, elevenlabs.SpeechRequest{
		Text:     input.Body.Text,
		VoiceID:  input.Body.VoiceID,
		Settings: input.Body.Settings,
	})
	if err != nil {
		return nil, apiError("synthesizing speech", err)
	}
	return &SpeakOutput{Body: sp}, nil
}

// ListVoicesOutput lists synthesis voices.
type ListVoicesOutput struct {
	Body struct {
		Voices []elevenlabs.Voice `json:"voices"`
	}
}

// ListVoices returns the available voices.
func (h *VoiceHandler) ListVoices(ctx context.Context, _ *struct{}) (*ListVoicesOutput, error) {
	voices, err := h.speech.ListVoices(ctx)
	if err != nil {
		return nil, apiError("listing voices", err)
	}
	resp := &ListVoicesOutput{}
	resp.Body.Voices = voices
	return resp, nil
}

// RegisterVoiceRoutes registers speech endpoints with the Huma API.
func RegisterVoiceRoutes(api huma.API, h *VoiceHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "transcribe",
		Method:      http.MethodPost,
		Path:        "/api/v1/voice/transcribe",
		Summary:     "Transcribe speech to text",
		Tags:        []string{"voice"},
		Errors:      vendorErrors,
	}, h.Transcribe)

	huma.Register(api, huma.Operation{
		OperationID: "speak",
		Method:      http.MethodPost,
		Path:        "/api/v1/voice/speak",
		Summary:     "Synthesize speech from text",
		Tags:        []string{"voice"},
		Errors:      vendorErrors,
	}, h.Speak)

	huma.Register(api, huma.Operation{
		OperationID: "list-voices",
		Method:      http.MethodGet,
		Path:        "/api/v1/voice/voices",
		Summary:     "List synthesis voices",
		Tags:        []string{"voice"},
		Errors:      vendorErrors,
	}, h.ListVoices)
}
