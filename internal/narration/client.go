package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrEmptyText     = errors.New("narration: text is required")
	ErrNotConfigured = errors.New("narration: no API key configured")
)

// APIError is a non-2xx reply from the TTS service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TTS API error (status %d): %s", e.Status, e.Body)
}

// VoiceSettings tunes the TTS voice. The defaults favour slow, calm
// scripture reading.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed"`
}

// DefaultVoiceSettings returns the settings used for devotional narration.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.7,
		SimilarityBoost: 0.75,
		Style:           0.3,
		UseSpeakerBoost: true,
		Speed:           0.85,
	}
}

type synthRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Client talks to an ElevenLabs-compatible text-to-speech API. Its output is
// returned to the caller as MP3 and never enters the ambient graph.
type Client struct {
	apiURL   string
	apiKey   string
	voice    string
	model    string
	settings VoiceSettings
	http     *http.Client
}

// NewClient creates a TTS client. An empty apiKey leaves narration disabled.
func NewClient(apiURL, apiKey, voice, model string) *Client {
	return &Client{
		apiURL:   strings.TrimRight(apiURL, "/"),
		apiKey:   apiKey,
		voice:    voice,
		model:    model,
		settings: DefaultVoiceSettings(),
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Synthesize renders text as MP3 (44.1 kHz, 128 kbit/s). An empty voiceID
// uses the client's default voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if voiceID == "" {
		voiceID = c.voice
	}

	body, err := json.Marshal(synthRequest{Text: text, ModelID: c.model, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.apiURL + "/v1/text-to-speech/" + url.PathEscape(voiceID) + "?output_format=mp3_44100_128"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	log.Printf("Narration request: %d chars, voice %s", len(text), voiceID)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	log.Printf("Narration audio: %d bytes", len(audio))
	return audio, nil
}
