package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

func TestBuildIndexAndSearch(t *testing.T) {
	embedder := &fakeEmbedder{queryVec: []float32{1, 0}}
	passages := policyPassages()

	index, err := BuildIndex(context.Background(), embedder, "session", passages)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if index.Count() != len(passages) {
		t.Fatalf("index holds %d passages, want %d", index.Count(), len(passages))
	}

	searcher := IndexSearcher{Index: index}
	got, err := searcher.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(got))
	}
	// fakeEmbedder gives the first passage the embedding nearest [1, 0].
	if got[0].Content != "Coverage: $500 for dental" {
		t.Fatalf("unexpected nearest passage: %q", got[0].Content)
	}
}

func TestBuildIndexEmbeddingFailureRejectsBatch(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("backend down")}

	_, err := BuildIndex(context.Background(), embedder, "session", policyPassages())
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestBuildIndexEmptyBatch(t *testing.T) {
	index, err := BuildIndex(context.Background(), &fakeEmbedder{}, "session", nil)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if index.Count() != 0 {
		t.Fatalf("expected empty index, got %d passages", index.Count())
	}
}

func TestExtractPassagesChunksDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	content := "Dental coverage is limited to $500 per calendar year. "
	for i := 0; i < 5; i++ {
		content += content
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := &config.RAGConfig{ChunkSize: 200}
	passages, err := ExtractPassages(path, cfg)
	if err != nil {
		t.Fatalf("ExtractPassages: %v", err)
	}
	if len(passages) < 2 {
		t.Fatalf("expected multiple passages, got %d", len(passages))
	}
	for i, p := range passages {
		if p.SourceFilename != "policy.txt" {
			t.Fatalf("passage %d source = %q", i, p.SourceFilename)
		}
		if len(p.Content) > 200 {
			t.Fatalf("passage %d exceeds chunk size: %d", i, len(p.Content))
		}
	}
}

func TestLoadCorpusDirSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "policy.txt"), []byte("Dental: $500"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := &config.RAGConfig{ChunkSize: 1000, CorpusDir: dir}
	index, err := LoadCorpusDir(context.Background(), &fakeEmbedder{}, cfg)
	if err != nil {
		t.Fatalf("LoadCorpusDir: %v", err)
	}
	if index.Count() != 1 {
		t.Fatalf("expected 1 passage from the text file, got %d", index.Count())
	}
}

func TestLoadCorpusDirNoSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := &config.RAGConfig{ChunkSize: 1000, CorpusDir: dir}
	if _, err := LoadCorpusDir(context.Background(), &fakeEmbedder{}, cfg); err == nil {
		t.Fatal("expected error for a corpus directory without supported documents")
	}
}
