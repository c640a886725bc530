// Package tokenizer counts tokens in texts bound for embedding models, so that
// over-long inputs can be rejected before a request is sent.
package tokenizer

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// OpenAITokenizer counts tokens locally using tiktoken
type OpenAITokenizer struct {
	codec tokenizer.Codec
}

// NewOpenAITokenizer creates a tokenizer with the cl100k_base encoding used by
// OpenAI's text-embedding models.
func NewOpenAITokenizer() (*OpenAITokenizer, error) {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	return &OpenAITokenizer{codec: enc}, nil
}

// CountTokens counts tokens in text.
// This is a local, fast operation that doesn't require an API call
func (t *OpenAITokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("tokenization failed: %w", err)
	}
	return len(ids), nil
}
