package embedding

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kura/internal/models"
)

// EmbeddingCache is an LRU cache for embeddings keyed by text.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// CachedClient memoizes embeddings of an inner client. Documents and queries share
// one cache but use separate key spaces, since providers may embed them differently.
type CachedClient struct {
	inner Client
	cache *EmbeddingCache
}

// NewCachedClient wraps inner with an LRU cache of the given capacity.
func NewCachedClient(inner Client, capacity int) *CachedClient {
	return &CachedClient{inner: inner, cache: NewEmbeddingCache(capacity)}
}

// EmbedDocuments serves cached texts from memory and sends only the misses to the
// inner client, in one call.
func (c *CachedClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if v, ok := c.cache.Get("d:" + text); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	vecs, err := c.inner.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, models.NewProviderError("cache", false,
			fmt.Errorf("inner client returned %d vectors for %d texts", len(vecs), len(missTexts)))
	}
	for j, v := range vecs {
		out[missIdx[j]] = v
		c.cache.Set("d:"+missTexts[j], v)
	}
	return out, nil
}

// EmbedQuery returns the cached query vector or asks the inner client.
func (c *CachedClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get("q:" + text); ok {
		return v, nil
	}
	v, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set("q:"+text, v)
	return v, nil
}

// Close closes the inner client.
func (c *CachedClient) Close() error {
	return Close(c.inner)
}
