package model

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vidrag/config"
)

// OpenAIEmbedder creates embeddings through any OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	cli     *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEmbedder(cfg config.Config) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.EmbeddingAPIKey)
	if cfg.EmbeddingURL != "" {
		clientConfig.BaseURL = cfg.EmbeddingURL
	}
	return &OpenAIEmbedder{
		cli:     openai.NewClientWithConfig(clientConfig),
		model:   cfg.EmbeddingModel,
		timeout: cfg.ModelTimeout,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.cli.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return normalize(resp.Data[0].Embedding), nil
}
