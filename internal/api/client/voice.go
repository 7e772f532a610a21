package client

import (
	"context"

	"github.com/bledden/tinker-voice/internal/elevenlabs"
)

// Transcribe converts base64 audio to text.
func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (elevenlabs.Transcription, error) {
	var tr elevenlabs.Transcription
	err := c.post(ctx, "/api/v1/voice/transcribe", map[string]string{"audio_base64": audioBase64}, &tr)
	return tr, err
}

// Speak synthesizes text. An empty voiceID selects the server's default.
func (c *Client) Speak(ctx context.Context, text, voiceID string) (elevenlabs.Speech, error) {
	body := map[string]string{"text": text}
	if voiceID != "" {
		body["voice_id"] = voiceID
	}
	var sp elevenlabs.Speech
	err := c.post(ctx, "/api/v1/voice/speak", body, &sp)
	return sp, err
}

// ListVoices returns the available synthesis voices.
func (c *Client) ListVoices(ctx context.Context) ([]elevenlabs.Voice, error) {
	var resp struct {
		Voices []elevenlabs.Voice `json:"voices"`
	}
	if err := c.get(ctx, "/api/v1/voice/voices", &resp); err != nil {
		return nil, err
	}
	return resp.Voices, nil
}
