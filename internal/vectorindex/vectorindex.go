package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/models"
)

// Index is a similarity-searchable collection of embedded passages. Session
// indexes live purely in memory; the fixed corpus may be persisted to disk.
type Index struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	compress      bool
}

// Result is one retrieved passage with its similarity to the query.
type Result struct {
	Passage    models.Passage
	Similarity float32
}

const compress = false

// NewMemoryIndex creates an in-memory index with one collection.
func NewMemoryIndex(collectionName string) (*Index, error) {
	ix := &Index{db: chromem.NewDB(), compress: compress}
	if err := ix.openCollection(collectionName); err != nil {
		return nil, err
	}
	return ix, nil
}

// NewPersistentIndex creates or reopens an index backed by dbPath.
func NewPersistentIndex(dbPath, collectionName, encryptionKey string) (*Index, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	ix := &Index{db: db, dbPath: dbPath, encryptionKey: encryptionKey, compress: compress}
	if err := ix.openCollection(collectionName); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *Index) openCollection(name string) error {
	c, err := ix.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}
	ix.collection = c
	return nil
}

// Add stores an embedded ingestion batch. Embeddings are supplied up front,
// so chromem never calls out to an embedding function of its own.
func (ix *Index) Add(ctx context.Context, batch []models.PassageEmbedding) error {
	docs := make([]chromem.Document, 0, len(batch))
	for i, pe := range batch {
		// The batch ordinal keeps IDs unique when two files in one batch
		// share a filename; chromem would otherwise overwrite the earlier
		// document.
		docs = append(docs, chromem.Document{
			ID:        fmt.Sprintf("%s-%d-%d-%d", pe.SourceFilename, pe.PageNumber, pe.ChunkID, i),
			Content:   pe.Content,
			Metadata:  passageMetadata(pe.Passage),
			Embedding: pe.Embedding,
		})
	}
	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Count returns the number of indexed passages.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to k passages nearest the query embedding, nearest
// first. An index holding fewer than k passages returns all of them.
func (ix *Index) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if count := ix.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	hits, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Passage:    passageFromHit(hit),
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

// Export snapshots the collection to an encrypted file next to the database.
func (ix *Index) Export(ctx context.Context) error {
	if ix.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if ix.dbPath == "" {
		return fmt.Errorf("db path is required")
	}
	filePath := ix.dbPath + "/" + ix.collection.Name + ".chromem"

	log.Debug().Str("collection", ix.collection.Name).Str("file", filePath).Msg("exporting collection")
	if err := ix.db.ExportToFile(filePath, ix.compress, ix.encryptionKey, ix.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

func passageMetadata(p models.Passage) map[string]string {
	return map[string]string{
		"source": p.SourceFilename,
		"page":   strconv.Itoa(p.PageNumber),
		"chunk":  strconv.Itoa(p.ChunkID),
	}
}

func passageFromHit(hit chromem.Result) models.Passage {
	page, _ := strconv.Atoi(hit.Metadata["page"])
	chunk, _ := strconv.Atoi(hit.Metadata["chunk"])
	return models.Passage{
		Content:        hit.Content,
		SourceFilename: hit.Metadata["source"],
		PageNumber:     page,
		ChunkID:        chunk,
	}
}
