// Package config provides configuration loading and structs for kura.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kura/internal/indexer"
	"github.com/hyperjump/kura/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Documents DocumentsConfig `yaml:"documents"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the index directory.
type StorageConfig struct {
	IndexDir string `yaml:"index_dir"`
}

// DocumentsConfig holds the document source directory.
type DocumentsConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// ChunkingConfig holds chunk size and overlap, both in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Embedding providers.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
)

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Dimensions  int           `yaml:"dimensions"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheSize   int           `yaml:"cache_size"`
	MaxRetries  int           `yaml:"max_retries"`
	ModelPath   string        `yaml:"model_path"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// SearchConfig holds query defaults and answer policy.
type SearchConfig struct {
	DefaultK           int     `yaml:"default_k"`
	MaxK               int     `yaml:"max_k"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	MaxAdditional      int     `yaml:"max_additional"`
}

// WatchConfig holds document directory watch settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, loads a .env file next to it if
// present, expands paths and environment references, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	resolve(&cfg, configDir)
	return &cfg, nil
}

// Default returns the default configuration with paths relative to the working directory.
func Default() *Config {
	cfg := &Config{}
	_ = loadDotEnv(".env")
	ApplyDefaults(cfg)
	resolve(cfg, ".")
	return cfg
}

func loadDotEnv(path string) error {
	// Existing environment variables win over the file.
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func resolve(cfg *Config, configDir string) {
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	cfg.Documents.Directory = expandPath(cfg.Documents.Directory, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	cfg.Embedding.APIKey = os.ExpandEnv(cfg.Embedding.APIKey)
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == ProviderOpenAI {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting as an ErrConfig error.
func (c *Config) Validate() error {
	if err := indexer.ValidateChunking(c.Chunking.Size, c.Chunking.Overlap); err != nil {
		return err
	}
	switch c.Embedding.Provider {
	case ProviderMock:
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("%w: mock provider needs positive embedding.dimensions", models.ErrConfig)
		}
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: openai provider needs embedding.api_key or OPENAI_API_KEY", models.ErrConfig)
		}
		if c.Embedding.Model == "" {
			return fmt.Errorf("%w: openai provider needs embedding.model", models.ErrConfig)
		}
	case ProviderONNX:
		if c.Embedding.ModelPath == "" {
			return fmt.Errorf("%w: onnx provider needs embedding.model_path", models.ErrConfig)
		}
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("%w: onnx provider needs positive embedding.dimensions", models.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q (supported: mock, openai, onnx)",
			models.ErrConfig, c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 || c.Embedding.Concurrency <= 0 {
		return fmt.Errorf("%w: embedding batch_size and concurrency must be positive", models.ErrConfig)
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("%w: embedding.max_retries must not be negative", models.ErrConfig)
	}
	if c.Search.DefaultK <= 0 || c.Search.MaxK < c.Search.DefaultK {
		return fmt.Errorf("%w: need 0 < search.default_k <= search.max_k, got %d and %d",
			models.ErrConfig, c.Search.DefaultK, c.Search.MaxK)
	}
	if c.Search.RelevanceThreshold < 0 || c.Search.RelevanceThreshold > 1 {
		return fmt.Errorf("%w: search.relevance_threshold must be within [0, 1]", models.ErrConfig)
	}
	if c.Search.MaxAdditional < 0 {
		return fmt.Errorf("%w: search.max_additional must not be negative", models.ErrConfig)
	}
	if c.Storage.IndexDir == "" || c.Documents.Directory == "" {
		return fmt.Errorf("%w: storage.index_dir and documents.directory are required", models.ErrConfig)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is relative to the home directory;
// any other relative path is relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	joined := filepath.Join(configDir, path)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}
