package embeddings

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"newsshorts/config"
)

// ErrCountMismatch is returned when a provider answers with a different
// number of vectors than texts sent.
var ErrCountMismatch = errors.New("embedding count mismatch")

// Provider abstracts a text->embedding generator
// Implementations should return one embedding vector per input text, in order.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// New returns the provider selected by cfg.
func New(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderCohere:
		if cfg.CohereKey == "" {
			return nil, errors.New("cohere embeddings require COHERE_API_KEY")
		}
		return NewCohere(cfg.CohereKey, cfg.Model), nil
	case config.ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, errors.New("openai embeddings require OPENAI_API_KEY")
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		return NewOpenAI(cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// OpenAI implements Provider using the official openai-go SDK.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the provider. SDK-level retries are disabled; callers wrap
// calls in their own retry policy.
func NewOpenAI(model string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = config.DefaultEmbeddingModel
	}
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAI) ModelName() string { return o.model }

func (o *OpenAI) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = toFloat32(d.Embedding)
	}
	return out, nil
}

// Cohere implements Provider using the Cohere Embed API (v2)
// Docs: https://docs.cohere.com/reference/embed
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere builds a Cohere provider on an HTTP/1.1 client to avoid HTTP/2
// stream resets from the embed endpoint.
func NewCohere(apiKey, model string) *Cohere {
	if model == "" || !strings.HasPrefix(model, "embed-") {
		model = config.DefaultCohereModel
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}

	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &Cohere{client: client, model: model}
}

func (c *Cohere) ModelName() string { return c.model }

func (c *Cohere) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          texts,
			Model:          c.model,
			InputType:      cohere.EmbedInputTypeSearchDocument,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(texts), len(floats))
	}

	out := make([][]float32, len(floats))
	for i, vec := range floats {
		out[i] = toFloat32(vec)
	}
	return out, nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
