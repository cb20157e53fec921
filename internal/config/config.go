package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the assistant. Everything in
// here describes external collaborators (corpus location, model endpoints,
// store backend); the pipeline packages take plain values.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Store     StoreConfig     `yaml:"store"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding LLMConfig       `yaml:"embedding"`
	Inference LLMConfig       `yaml:"inference"`
}

// CorpusConfig points at the infrastructure code to ingest: either a local
// directory or a remote git repository, never both.
type CorpusConfig struct {
	Path       string   `yaml:"path"`
	RepoURL    string   `yaml:"repo_url"`
	RepoRef    string   `yaml:"repo_ref"`
	Extensions []string `yaml:"extensions"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "chromem" or "postgres"
	Path       string `yaml:"path"`    // chromem persistence directory
	Collection string `yaml:"collection"`
	DSN        string `yaml:"dsn"` // postgres only
	Password   string `yaml:"password"`
	Debug      bool   `yaml:"debug"`
}

// ChunkingConfig sizes the split windows. Overlap is a pointer so that an
// explicit `overlap: 0` is distinguishable from an absent key.
type ChunkingConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap"`
}

type RetrievalConfig struct {
	DefaultMode   string `yaml:"default_mode"`
	ArchitectK    int    `yaml:"architect_k"`
	AuditorK      int    `yaml:"auditor_k"`
	HistoryWindow int    `yaml:"history_window"`
}

// LLMConfig describes one consumed model capability (embedding or inference).
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "ollama" or "openai"
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured call timeout for this capability.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

const (
	StoreChromem  = "chromem"
	StorePostgres = "postgres"
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
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Corpus.Extensions) == 0 {
		c.Corpus.Extensions = []string{".tf", ".tfvars", ".hcl"}
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreChromem
	}
	if c.Store.Path == "" {
		c.Store.Path = "./vector_db"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "infra"
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 1000
	}
	if c.Chunking.Overlap == nil {
		overlap := 100
		c.Chunking.Overlap = &overlap
	}
	if c.Retrieval.DefaultMode == "" {
		c.Retrieval.DefaultMode = "architect"
	}
	if c.Retrieval.ArchitectK == 0 {
		c.Retrieval.ArchitectK = 3
	}
	if c.Retrieval.AuditorK == 0 {
		c.Retrieval.AuditorK = 7
	}
	if c.Retrieval.HistoryWindow == 0 {
		c.Retrieval.HistoryWindow = 4
	}
	if c.Embedding.TimeoutSeconds == 0 {
		c.Embedding.TimeoutSeconds = 60
	}
	if c.Inference.TimeoutSeconds == 0 {
		c.Inference.TimeoutSeconds = 120
	}
	// Secrets usually come from the environment, not the config file, so
	// key values may reference variables like ${OPENROUTER_KEY}.
	c.Embedding.Key = os.ExpandEnv(c.Embedding.Key)
	c.Inference.Key = os.ExpandEnv(c.Inference.Key)
}

func (c *Config) Validate() error {
	if c.Corpus.Path != "" && c.Corpus.RepoURL != "" {
		return fmt.Errorf("corpus: path and repo_url are mutually exclusive")
	}
	if c.Store.Backend != StoreChromem && c.Store.Backend != StorePostgres {
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StorePostgres && c.Store.DSN == "" {
		return fmt.Errorf("store: postgres backend requires dsn")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking: size must be positive")
	}
	if *c.Chunking.Overlap < 0 || *c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking: overlap must be in [0, size)")
	}
	if c.Retrieval.ArchitectK < 1 {
		return fmt.Errorf("retrieval: architect_k must be at least 1")
	}
	if c.Retrieval.AuditorK <= c.Retrieval.ArchitectK {
		return fmt.Errorf("retrieval: auditor_k must exceed architect_k")
	}
	return nil
}
