package gemini

import (
	"context"
	"fmt"

	"github.com/botirk38/semanticmap/tokenizer"
	"github.com/botirk38/semanticmap/types"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "text-embedding-004"

	// DefaultBatchSize matches the batchEmbedContents request cap.
	DefaultBatchSize = 100

	// taskType tells Gemini the vectors are compared with each other.
	taskType = "SEMANTIC_SIMILARITY"
)

// GeminiConfig provides configuration options for the Gemini embedding provider
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
	// MaxTokens enables a count-tokens check per text when > 0.
	MaxTokens int
	// Dimensions requests truncated output vectors when > 0.
	Dimensions int
}

// GeminiProvider embeds text with Google's Gemini API.
type GeminiProvider struct {
	client     *genai.Client
	model      string
	batchSize  int
	maxTokens  int
	dimensions int
	tokenizer  *tokenizer.GeminiTokenizer
}

// NewGeminiProvider creates an embedding provider for Gemini.
func NewGeminiProvider(ctx context.Context, config GeminiConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", types.ErrEmptyAPIKey)
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		model:      model,
		batchSize:  batchSize,
		maxTokens:  config.MaxTokens,
		dimensions: config.Dimensions,
		tokenizer:  tokenizer.NewGeminiTokenizer(client, model),
	}, nil
}

// Name returns "gemini:<model>".
func (p *GeminiProvider) Name() string {
	return "gemini:" + p.model
}

// EmbedTexts sends the texts to Gemini in batches and returns one vector per text.
func (p *GeminiProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if p.maxTokens > 0 {
		if err := p.checkLengths(ctx, texts); err != nil {
			return nil, err
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		batch, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("gemini batch %d-%d: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (p *GeminiProvider) checkLengths(ctx context.Context, texts []string) error {
	for i, text := range texts {
		n, err := p.tokenizer.CountTokens(ctx, text)
		if err != nil {
			return err
		}
		if n > p.maxTokens {
			return fmt.Errorf("%w: text %d has %d tokens, limit %d", types.ErrTextTooLong, i, n, p.maxTokens)
		}
	}
	return nil
}

func (p *GeminiProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if p.dimensions > 0 {
		dims := int32(p.dimensions)
		cfg.OutputDimensionality = &dims
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyResponse, len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: text %d", types.ErrEmptyResponse, i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// Close is a no-op; the genai client holds no closable resources.
func (p *GeminiProvider) Close() {}
