package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes one OpenAI-compatible or Ollama endpoint.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "openai" or "ollama"
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`

	// Key is resolved from the environment at load time, never from yaml.
	Key string `yaml:"-"`
}

type RAGConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit 0 (overlap disabled) is
	// distinguishable from an absent key; read it through Overlap().
	ChunkOverlap  *int   `yaml:"chunk_overlap"`
	TopK          int    `yaml:"top_k"`
	CorpusDir     string `yaml:"corpus_dir"`
	IndexPath     string `yaml:"index_path"` // empty = in-memory fixed corpus
	EncryptionKey string `yaml:"encryption_key"`
	MaxSessions   int    `yaml:"max_sessions"` // 0 = unbounded
}

// Overlap returns the chunk overlap in characters, falling back to the
// default when the key is absent.
func (c *RAGConfig) Overlap() int {
	if c.ChunkOverlap == nil {
		return defaultChunkOverlap
	}
	return *c.ChunkOverlap
}

type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	EmbedLLM LLMConfig    `yaml:"embedding"`
	InferLLM LLMConfig    `yaml:"inference"`
	RAG      RAGConfig    `yaml:"rag"`
	Database DBConfig     `yaml:"database"`
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
	defaultTopK         = 4
	defaultTimeoutSecs  = 60
	defaultAPIKeyEnv    = "LLM_API_KEY"
	defaultAddr         = ":8080"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	resolveKeys(&cfg)
	return &cfg, nil
}

// Default returns a config usable without a file on disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	resolveKeys(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	for _, llm := range []*LLMConfig{&cfg.EmbedLLM, &cfg.InferLLM} {
		if llm.Provider == "" {
			llm.Provider = "openai"
		}
		if llm.APIKeyEnv == "" {
			llm.APIKeyEnv = defaultAPIKeyEnv
		}
		if llm.TimeoutSecs == 0 {
			llm.TimeoutSecs = defaultTimeoutSecs
		}
	}
}

func resolveKeys(cfg *Config) {
	cfg.EmbedLLM.Key = os.Getenv(cfg.EmbedLLM.APIKeyEnv)
	cfg.InferLLM.Key = os.Getenv(cfg.InferLLM.APIKeyEnv)
}
