package tts

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"newsshorts/config"
)

// OpenAINarrator uses the OpenAI speech endpoint. It ignores the language
// argument; the voices are multilingual.
type OpenAINarrator struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAINarrator(apiKey, model, voice string, opts ...option.RequestOption) *OpenAINarrator {
	if model == "" {
		model = config.DefaultTTSModel
	}
	if voice == "" {
		voice = config.DefaultTTSVoice
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &OpenAINarrator{
		client: openai.NewClient(opts...),
		model:  model,
		voice:  voice,
	}
}

func (n *OpenAINarrator) Expressive() bool { return false }

func (n *OpenAINarrator) Narrate(ctx context.Context, text, _ string, outPath string) error {
	resp, err := n.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(n.model),
		Voice:          openai.AudioSpeechNewParamsVoice(n.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	return writeAudio(outPath, resp.Body)
}
