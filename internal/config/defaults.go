package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "./data/index"
	}
	if cfg.Documents.Directory == "" {
		cfg.Documents.Directory = "./docs"
	}
	if cfg.Documents.Extensions == nil {
		cfg.Documents.Extensions = []string{".txt", ".md"}
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 500
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = min(50, cfg.Chunking.Size/10)
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderMock
	}
	switch cfg.Embedding.Provider {
	case ProviderOpenAI:
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
	case ProviderMock, ProviderONNX:
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = cfg.Embedding.Provider
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}

	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 5
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 50
	}
	if cfg.Search.RelevanceThreshold == 0 {
		cfg.Search.RelevanceThreshold = 0.5
	}
	if cfg.Search.MaxAdditional == 0 {
		cfg.Search.MaxAdditional = 2
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
