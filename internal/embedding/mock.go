package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kura/internal/models"
)

// MockClient is a deterministic offline provider. Each word is hashed into one of
// Dimensions buckets and the counts are L2-normalized, so texts sharing words end up
// close together and identical texts get identical vectors.
type MockClient struct {
	dimensions int
}

// NewMockClient returns a mock provider producing vectors of the given dimension.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockClient{dimensions: dimensions}
}

// Dimensions returns the embedding dimension.
func (m *MockClient) Dimensions() int {
	return m.dimensions
}

// EmbedDocuments embeds each text.
func (m *MockClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.embed(text)
	}
	return out, nil
}

// EmbedQuery embeds a single query.
func (m *MockClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, models.NewProviderError(providerMock, false, fmt.Errorf("cannot embed empty text"))
	}
	return m.embed(text), nil
}

func (m *MockClient) embed(text string) []float32 {
	vec := make([]float32, m.dimensions)
	for _, word := range SplitWords(text) {
		if w := normalizeWord(word); w != "" {
			vec[HashString(w)%m.dimensions]++
		}
	}
	NormalizeL2Slice(vec)
	return vec
}
