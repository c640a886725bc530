package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/botirk38/semanticmap/types"
	medahttp "github.com/medatechnology/goutil/http"
)

const (
	OllamaDefaultURL   = "http://localhost:11434"
	OllamaDefaultModel = "nomic-embed-text"

	// DefaultBatchSize is the number of texts sent per /api/embed request.
	DefaultBatchSize = 64
)

// OllamaConfig holds configuration for a local Ollama server
type OllamaConfig struct {
	BaseURL   string
	Model     string
	BatchSize int
}

// OllamaProvider embeds text with Ollama's batch embedding API.
type OllamaProvider struct {
	config OllamaConfig
	client medahttp.HttpClient
}

// NewOllamaProvider creates an embedding provider for Ollama. No API key is needed.
func NewOllamaProvider(config OllamaConfig) (*OllamaProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = OllamaDefaultURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = OllamaDefaultModel
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	client := medahttp.NewHttp()
	client.SetHeader(map[string][]string{
		"Content-Type": {"application/json"},
	})

	return &OllamaProvider{config: config, client: client}, nil
}

// Name returns "ollama:<model>".
func (o *OllamaProvider) Name() string {
	return "ollama:" + o.config.Model
}

// EmbedTexts embeds texts in batches, preserving input order.
func (o *OllamaProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+o.config.BatchSize, len(texts))
		batch, err := o.embedBatch(texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("ollama batch %d-%d: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (o *OllamaProvider) embedBatch(texts []string) ([][]float32, error) {
	req := embedRequest{
		Model: o.config.Model,
		Input: texts,
	}

	var result embedResponse
	statusCode, err := o.client.Post(o.config.BaseURL+"/api/embed", req, &result, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed with status %d", statusCode)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyResponse, len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

func (o *OllamaProvider) Close() {}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}
