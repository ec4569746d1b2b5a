package llm

import (
	"context"
	"errors"
	"fmt"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatModel is the part of an eino chat model used here.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Eino implements Generator on any OpenAI-compatible endpoint through the
// eino chat model. Used for the Gemini OpenAI endpoint and self-hosted models.
type Eino struct {
	cm chatModel
}

// NewEino wraps an existing chat model.
func NewEino(cm chatModel) *Eino {
	return &Eino{cm: cm}
}

// NewEinoFromConfig creates the eino-ext OpenAI chat model for baseURL.
func NewEinoFromConfig(ctx context.Context, baseURL, apiKey, modelName string) (*Eino, error) {
	if baseURL == "" {
		return nil, errors.New("compatible chat provider requires a base URL")
	}
	if modelName == "" {
		return nil, errors.New("compatible chat provider requires a model")
	}

	cm, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("chat model init: %w", err)
	}
	return NewEino(cm), nil
}

func (e *Eino) Generate(ctx context.Context, req Request) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.User},
	}

	resp, err := e.cm.Generate(ctx, messages, model.WithTemperature(float32(req.Temperature)))
	if err != nil {
		return "", fmt.Errorf("chat generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}
