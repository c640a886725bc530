package openai

import (
	"context"
	"fmt"

	"github.com/botirk38/semanticmap/tokenizer"
	"github.com/botirk38/semanticmap/types"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultOpenAIModel = openai.EmbeddingModelTextEmbedding3Small

	// DefaultBatchSize is the number of texts sent per embeddings request.
	DefaultBatchSize = 256

	defaultMaxTokens = 8191
)

// openAIModelLimits holds the maximum input tokens per embedding model.
var openAIModelLimits = map[string]int{
	openai.EmbeddingModelTextEmbedding3Small: 8191,
	openai.EmbeddingModelTextEmbedding3Large: 8191,
	openai.EmbeddingModelTextEmbeddingAda002: 8191,
}

// OpenAIProvider uses OpenAI's API to embed text.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	batchSize  int
	maxTokens  int
	dimensions int
	tokenizer  *tokenizer.OpenAITokenizer
}

// OpenAIConfig provides configuration options for OpenAI embedding provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	OrgID   string
	Model   string
	// BatchSize caps texts per request; 0 uses DefaultBatchSize.
	BatchSize int
	// MaxTokens overrides the model's token limit when > 0.
	MaxTokens int
	// Dimensions requests shortened embeddings when > 0 (text-embedding-3 models only).
	Dimensions int
}

// NewOpenAIProvider creates an embedding provider for OpenAI.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", types.ErrEmptyAPIKey)
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tok, err := tokenizer.NewOpenAITokenizer()
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client:     &client,
		model:      model,
		batchSize:  batchSize,
		maxTokens:  config.MaxTokens,
		dimensions: config.Dimensions,
		tokenizer:  tok,
	}, nil
}

// GetMaxTokens returns the input token limit for the configured model.
func (p *OpenAIProvider) GetMaxTokens() int {
	if p.maxTokens > 0 {
		return p.maxTokens
	}
	if limit, ok := openAIModelLimits[p.model]; ok {
		return limit
	}
	return defaultMaxTokens
}

// Name returns "openai:<model>".
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

// EmbedTexts sends the texts to OpenAI in batches and returns one vector per text.
func (p *OpenAIProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.checkLengths(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		batch, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("openai batch %d-%d: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (p *OpenAIProvider) checkLengths(texts []string) error {
	limit := p.GetMaxTokens()
	for i, text := range texts {
		n, err := p.tokenizer.CountTokens(text)
		if err != nil {
			return err
		}
		if n > limit {
			return fmt.Errorf("%w: text %d has %d tokens, limit %d", types.ErrTextTooLong, i, n, limit)
		}
	}
	return nil
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	if p.dimensions > 0 {
		params.Dimensions = openai.Int(int64(p.dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyResponse, len(resp.Data), len(texts))
	}

	// OpenAI returns []float64 tagged with the input index; convert to []float32 in input order
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(texts) || out[idx] != nil {
			return nil, fmt.Errorf("%w: unexpected embedding index %d", types.ErrEmptyResponse, idx)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}

func (p *OpenAIProvider) Close() {}
