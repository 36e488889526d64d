package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/config"
	"policy-rag/internal/embedding"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
	"policy-rag/internal/vectorindex"
)

// BuildIndex embeds a batch of passages and builds a fresh in-memory index
// over them. Any embedding failure rejects the whole batch.
func BuildIndex(ctx context.Context, embedder embeddings.Embedder, collectionName string, passages []models.Passage) (*vectorindex.Index, error) {
	batch, err := embedding.EmbedPassages(ctx, embedder, passages)
	if err != nil {
		return nil, err
	}

	index, err := vectorindex.NewMemoryIndex(collectionName)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return index, nil
	}
	if err := index.Add(ctx, batch); err != nil {
		return nil, err
	}
	return index, nil
}

// ExtractPassages parses one document and chunks its pages into passages.
func ExtractPassages(filePath string, cfg *config.RAGConfig) ([]models.Passage, error) {
	pages, err := parser.ExtractPages(filePath)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(filePath)
	return parser.SplitPassages(filename, pages, cfg.ChunkSize, cfg.Overlap()), nil
}

// LoadCorpusDir builds the fixed corpus index from every supported file in
// the configured directory. With an index path set the corpus is persisted
// across restarts; otherwise it is rebuilt in memory on every start.
func LoadCorpusDir(ctx context.Context, embedder embeddings.Embedder, cfg *config.RAGConfig) (*vectorindex.Index, error) {
	entries, err := os.ReadDir(cfg.CorpusDir)
	if err != nil {
		return nil, err
	}

	var passages []models.Passage
	for _, entry := range entries {
		if entry.IsDir() || !parser.Supported(strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		filePassages, err := ExtractPassages(filepath.Join(cfg.CorpusDir, entry.Name()), cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", entry.Name()).Int("passages", len(filePassages)).Msg("parsed corpus file")
		passages = append(passages, filePassages...)
	}

	if cfg.IndexPath == "" {
		if len(passages) == 0 {
			return nil, fmt.Errorf("no supported documents in %s", cfg.CorpusDir)
		}
		return BuildIndex(ctx, embedder, "corpus", passages)
	}

	index, err := vectorindex.NewPersistentIndex(cfg.IndexPath, "corpus", cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	if index.Count() > 0 {
		log.Info().Int("passages", index.Count()).Msg("reusing persisted corpus index")
		return index, nil
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("no supported documents in %s", cfg.CorpusDir)
	}
	batch, err := embedding.EmbedPassages(ctx, embedder, passages)
	if err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		if err := index.Add(ctx, batch); err != nil {
			return nil, err
		}
	}
	return index, nil
}
