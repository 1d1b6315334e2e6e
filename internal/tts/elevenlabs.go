package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"dialdesk/internal/config"
)

const elevenLabsAPIBase = "https://api.elevenlabs.io/v1"

// DefaultVoiceID is ElevenLabs' stock "Rachel" voice.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

const defaultModelID = "eleven_monolingual_v1"

// maxMessageChars keeps campaign messages inside the free-tier character
// quota.
const maxMessageChars = 500

var (
	ErrEmptyText   = errors.New("tts: text is required")
	ErrUnavailable = errors.New("tts: elevenlabs unavailable")
)

// Voice is one available synthesis voice.
type Voice struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

// ElevenLabsClient synthesizes speech for campaign voicemail drops.
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type ElevenLabsOption func(*ElevenLabsClient)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(base string) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.baseURL = base }
}

func NewElevenLabsClient(cfg config.ElevenLabsConfig, log *slog.Logger, opts ...ElevenLabsOption) *ElevenLabsClient {
	if log == nil {
		log = slog.Default()
	}
	c := &ElevenLabsClient{
		apiKey:  cfg.APIKey,
		baseURL: elevenLabsAPIBase,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Synthesize converts text to MP3 audio using the given voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": defaultModelID,
		"voice_settings": map[string]float64{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("elevenlabs request failed", "voice_id", voiceID, "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("elevenlabs request rejected", "voice_id", voiceID, "status", resp.StatusCode)
		return nil, ErrUnavailable
	}
	return io.ReadAll(resp.Body)
}

// CampaignMessage renders a message template for one contact and synthesizes
// it. The {name} placeholder is substituted; long messages are truncated.
func (c *ElevenLabsClient) CampaignMessage(ctx context.Context, template, contactName, voiceID string) ([]byte, error) {
	message := strings.ReplaceAll(template, "{name}", contactName)
	if len(message) > maxMessageChars {
		c.log.Warn("campaign message truncated", "length", len(message))
		message = message[:maxMessageChars]
	}
	return c.Synthesize(ctx, message, voiceID)
}

// Voices lists the synthesis voices available to the account.
func (c *ElevenLabsClient) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("elevenlabs voices request failed", "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnavailable
	}
	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ErrUnavailable
	}
	return out.Voices, nil
}
