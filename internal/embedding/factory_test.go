package embedding

import (
	"context"
	"testing"

	"github.com/hyperjump/kura/internal/config"
	"github.com/hyperjump/kura/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient(config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	c, err = NewClient(config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8, CacheSize: 10, MaxRetries: 2}, nil)
	require.NoError(t, err)
	cached, ok := c.(*CachedClient)
	require.True(t, ok)
	assert.IsType(t, &RetryClient{}, cached.inner)

	v, err := c.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 8)
	assert.NoError(t, Close(c))

	_, err = NewClient(config.EmbeddingConfig{Provider: "bogus"}, nil)
	assert.ErrorIs(t, err, models.ErrConfig)

	_, err = NewClient(config.EmbeddingConfig{Provider: config.ProviderOpenAI}, nil)
	assert.ErrorIs(t, err, models.ErrConfig)
}
