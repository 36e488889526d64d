package config

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFromYAML(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.Overlap() != 100 || cfg.RAG.TopK != 4 {
		t.Fatalf("unexpected RAG defaults: size=%d overlap=%d top_k=%d",
			cfg.RAG.ChunkSize, cfg.RAG.Overlap(), cfg.RAG.TopK)
	}
	if cfg.EmbedLLM.TimeoutSecs != 60 {
		t.Fatalf("timeout = %d", cfg.EmbedLLM.TimeoutSecs)
	}
}

func TestOverlapDefaultsWhenAbsent(t *testing.T) {
	cfg := loadFromYAML(t, "rag:\n  chunk_size: 500\n")
	if cfg.RAG.Overlap() != 100 {
		t.Fatalf("overlap = %d, want default 100", cfg.RAG.Overlap())
	}
}

func TestOverlapExplicitZeroIsKept(t *testing.T) {
	cfg := loadFromYAML(t, "rag:\n  chunk_size: 500\n  chunk_overlap: 0\n")
	if cfg.RAG.Overlap() != 0 {
		t.Fatalf("overlap = %d, want explicit 0", cfg.RAG.Overlap())
	}
}

func TestOverlapExplicitValue(t *testing.T) {
	cfg := loadFromYAML(t, "rag:\n  chunk_overlap: 25\n")
	if cfg.RAG.Overlap() != 25 {
		t.Fatalf("overlap = %d, want 25", cfg.RAG.Overlap())
	}
}
