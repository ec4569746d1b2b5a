package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsshorts/config"
	"newsshorts/retry"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabsNarrator calls the ElevenLabs streaming endpoint. Its
// multilingual model understands bracketed delivery cues.
type ElevenLabsNarrator struct {
	apiKey  string
	voiceID string
	model   string
	baseURL string
	client  *http.Client
}

func NewElevenLabsNarrator(apiKey, voiceID, model string) *ElevenLabsNarrator {
	if model == "" {
		model = config.DefaultElevenLabsModel
	}
	return &ElevenLabsNarrator{
		apiKey:  apiKey,
		voiceID: voiceID,
		model:   model,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (n *ElevenLabsNarrator) Expressive() bool { return true }

func (n *ElevenLabsNarrator) Narrate(ctx context.Context, text, _ string, outPath string) error {
	payload, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: n.model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", strings.TrimRight(n.baseURL, "/"), n.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		// rate limiting is the only client error worth retrying
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	return writeAudio(outPath, resp.Body)
}
