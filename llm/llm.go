package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"newsshorts/config"
)

// ErrEmptyResponse is returned when the provider answers without content.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one system instruction plus one user payload.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// Generator returns one text completion per request. The completion may be
// anything from strict JSON to prose.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the generator selected by cfg, rate limited when cfg.RPM > 0.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	var (
		gen Generator
		err error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, errors.New("openai chat requires OPENAI_API_KEY")
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		gen = NewOpenAI(cfg.Model, opts...)
	case config.ProviderGoogle:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultGoogleBaseURL
		}
		gen, err = NewEinoFromConfig(ctx, baseURL, cfg.GoogleKey, cfg.GoogleModel)
	case config.ProviderCompatible:
		gen, err = NewEinoFromConfig(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RPM > 0 {
		gen = NewRateLimited(gen, cfg.RPM)
	}
	return gen, nil
}

// OpenAI implements Generator using the official openai-go SDK (chat completions).
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the generator. SDK-level retries are disabled; callers
// wrap calls in their own retry policy.
func NewOpenAI(model string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = config.DefaultChatModel
	}
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// StripCodeFence removes a surrounding markdown code fence such as ```json.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		// drop the language tag line
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
