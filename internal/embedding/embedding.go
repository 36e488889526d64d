package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// NewEmbedder builds an embedder for the configured backend. The timeout is
// carried by the underlying HTTP client so a stuck backend fails the request
// instead of hanging it forever.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}

	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	default:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	}
}

// EmbedPassages embeds a whole ingestion batch. Any failure rejects the
// batch; no partial result is returned.
func EmbedPassages(ctx context.Context, embedder embeddings.Embedder, passages []models.Passage) ([]models.PassageEmbedding, error) {
	if len(passages) == 0 {
		log.Info().Msg("no passages to embed")
		return nil, nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("%w: got %d vectors for %d passages",
			models.ErrEmbeddingUnavailable, len(vectors), len(passages))
	}

	result := make([]models.PassageEmbedding, len(passages))
	for i, p := range passages {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: empty vector for passage %d", models.ErrEmbeddingUnavailable, p.ChunkID)
		}
		result[i] = models.PassageEmbedding{Passage: p, Embedding: vectors[i]}
	}
	return result, nil
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, embedder embeddings.Embedder, query string) ([]float32, error) {
	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", models.ErrEmbeddingUnavailable)
	}
	return vector, nil
}
