package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"newsshorts/config"
)

// Narrator turns one piece of narration text into an audio file.
type Narrator interface {
	Narrate(ctx context.Context, text, language, outPath string) error
	// Expressive reports whether bracketed delivery cues like [sigh] are
	// understood rather than read aloud.
	Expressive() bool
}

// New builds the narrator selected by cfg.Provider. Provider fallbacks are
// resolved by config.Load, so an unusable selection is an error here.
func New(ctx context.Context, cfg config.TTSConfig) (Narrator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, errors.New("openai narration requires OPENAI_API_KEY")
		}
		return NewOpenAINarrator(cfg.OpenAIKey, cfg.Model, cfg.Voice), nil
	case config.ProviderElevenLabs:
		if cfg.ElevenLabsKey == "" || cfg.ElevenLabsVoice == "" {
			return nil, errors.New("elevenlabs narration requires ELEVENLABS_API_KEY and ELEVENLABS_VOICE_ID")
		}
		return NewElevenLabsNarrator(cfg.ElevenLabsKey, cfg.ElevenLabsVoice, cfg.ElevenLabsModel), nil
	case config.ProviderGoogle:
		if cfg.GoogleKey == "" {
			return nil, errors.New("google narration requires GOOGLE_API_KEY")
		}
		return NewGoogleNarrator(ctx, cfg.GoogleKey, cfg.GoogleLanguage)
	default:
		return nil, fmt.Errorf("unknown narration provider %q", cfg.Provider)
	}
}

// writeAudio streams body into outPath, creating parent directories.
func writeAudio(outPath string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, body)
	if err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	if n == 0 {
		return errors.New("narration returned no audio")
	}
	return nil
}
