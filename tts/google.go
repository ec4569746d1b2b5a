package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
)

var googleLanguageCodes = map[string]string{
	"hi": "hi-IN",
	"bn": "bn-IN",
	"mr": "mr-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"gu": "gu-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"pa": "pa-IN",
	"ur": "ur-IN",
}

// GoogleNarrator uses Cloud Text-to-Speech with an API key.
type GoogleNarrator struct {
	service         *texttospeech.Service
	defaultLanguage string
}

func NewGoogleNarrator(ctx context.Context, apiKey, defaultLanguage string, opts ...option.ClientOption) (*GoogleNarrator, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create text-to-speech service: %w", err)
	}
	if defaultLanguage == "" {
		defaultLanguage = "en-US"
	}
	return &GoogleNarrator{service: service, defaultLanguage: defaultLanguage}, nil
}

func (n *GoogleNarrator) Expressive() bool { return false }

// languageCode maps a short pipeline language to a BCP-47 voice locale.
func (n *GoogleNarrator) languageCode(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" || language == "en" {
		return n.defaultLanguage
	}
	if strings.Contains(language, "-") {
		return language
	}
	if code, ok := googleLanguageCodes[language]; ok {
		return code
	}
	return language
}

func (n *GoogleNarrator) Narrate(ctx context.Context, text, language, outPath string) error {
	resp, err := n.service.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: n.languageCode(language),
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("google speech: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return fmt.Errorf("google speech: decode audio: %w", err)
	}
	return writeAudio(outPath, bytes.NewReader(audio))
}
