package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/uptrace/bun"

	"policy-rag/internal/db"
	"policy-rag/internal/embedding"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/models"
	"policy-rag/internal/vectorindex"
)

// Searcher is a corpus source: anything that can return the passages nearest
// a query embedding. The fixed corpus and per-session indexes implement it,
// which lets one engine serve both deployment profiles.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]models.Passage, error)
}

// Engine retrieves passages for a query and synthesizes an answer from them
// with a single model call.
type Engine struct {
	embedder embeddings.Embedder
	model    llms.Model
	topK     int
}

func NewEngine(embedder embeddings.Embedder, model llms.Model, topK int) *Engine {
	return &Engine{embedder: embedder, model: model, topK: topK}
}

func (e *Engine) retrieve(ctx context.Context, searcher Searcher, query string) ([]models.Passage, error) {
	queryEmbedding, err := embedding.EmbedQuery(ctx, e.embedder, query)
	if err != nil {
		return nil, err
	}
	passages, err := searcher.Search(ctx, queryEmbedding, e.topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("passages", len(passages)).Msg("retrieved context")
	return passages, nil
}

func contextBlock(passages []models.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	return strings.Join(texts, models.ContextSeparator)
}

// Answer runs the free-text variant: retrieved context and query rendered
// into the answer prompt, raw model text returned verbatim.
func (e *Engine) Answer(ctx context.Context, searcher Searcher, query string) (string, error) {
	passages, err := e.retrieve(ctx, searcher, query)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, contextBlock(passages), query)
	raw, err := llmservice.Generate(ctx, e.model, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return models.EmptyAnswer, nil
	}
	return raw, nil
}

// Evaluate runs the claim-evaluation variant: the model is instructed to
// emit a strict JSON verdict, which is extracted and parsed. A response
// without a parseable object fails with ErrMalformedModelOutput; there is
// no retry.
func (e *Engine) Evaluate(ctx context.Context, searcher Searcher, query string) (*models.Evaluation, error) {
	passages, err := e.retrieve(ctx, searcher, query)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(models.EvaluatePromptTemplate, contextBlock(passages), query)
	raw, err := llmservice.Generate(ctx, e.model, prompt)
	if err != nil {
		return nil, err
	}

	return ParseEvaluation(raw)
}

// ParseEvaluation extracts the first balanced JSON object from the raw model
// text and decodes it into an Evaluation.
func ParseEvaluation(raw string) (*models.Evaluation, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var eval models.Evaluation
	if err := json.Unmarshal([]byte(obj), &eval); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedModelOutput, err)
	}
	return &eval, nil
}

// ExtractJSON returns the first balanced {...} substring of raw. String
// literals are honored so braces inside values do not unbalance the scan.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", models.ErrMalformedModelOutput)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON object", models.ErrMalformedModelOutput)
}

// IndexSearcher adapts a vector index to the Searcher interface.
type IndexSearcher struct {
	Index *vectorindex.Index
}

func (s IndexSearcher) Search(ctx context.Context, queryEmbedding []float32, k int) ([]models.Passage, error) {
	results, err := s.Index.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexUnavailable, err)
	}
	passages := make([]models.Passage, len(results))
	for i, r := range results {
		passages[i] = r.Passage
	}
	return passages, nil
}

// DBSearcher adapts the pgvector corpus table to the Searcher interface.
type DBSearcher struct {
	DB *bun.DB
}

func (s DBSearcher) Search(ctx context.Context, queryEmbedding []float32, k int) ([]models.Passage, error) {
	docs, err := db.SearchDocuments(ctx, s.DB, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexUnavailable, err)
	}
	passages := make([]models.Passage, len(docs))
	for i, doc := range docs {
		passages[i] = models.Passage{
			Content:        doc.Content,
			SourceFilename: doc.SourceFilename,
			PageNumber:     doc.PageNumber,
			ChunkID:        doc.ChunkID,
		}
	}
	return passages, nil
}
