package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/config"
	"github.com/hyperjump/kura/internal/models"
)

const (
	providerMock = "mock"
	providerONNX = "onnx"
)

// NewClient builds the configured provider, wrapped in a retry decorator when
// max_retries > 0 and in an LRU cache when cache_size > 0.
func NewClient(cfg config.EmbeddingConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var client Client
	switch cfg.Provider {
	case config.ProviderMock, "":
		client = NewMockClient(cfg.Dimensions)
	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Dimensions:  cfg.Dimensions,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		client = c
	case config.ProviderONNX:
		c, err := NewONNXClient(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfig, cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		client = NewRetryClient(client, cfg.MaxRetries, WithRetryLogger(logger))
	}
	if cfg.CacheSize > 0 {
		client = NewCachedClient(client, cfg.CacheSize)
	}
	logger.Debug("embedding client ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("cache_size", cfg.CacheSize),
		zap.Int("max_retries", cfg.MaxRetries))
	return client, nil
}
