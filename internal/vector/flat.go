package vector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/kura/internal/models"
)

// TypeFlat identifies the exhaustive exact index.
const TypeFlat = "flat"

var _ VectorIndex = (*FlatIndex)(nil)

// FlatIndex is an exhaustive exact index. Search cost is O(n*d).
type FlatIndex struct {
	dimension int
	vectors   [][]float32
	mu        sync.RWMutex
}

// NewFlatIndex returns an index with no established dimension. Add fails on it
// with ErrEmptyIndex; use Build or UnmarshalBinary to populate it.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Build creates an index from a non-empty set of equal-length vectors.
// The input is copied.
func Build(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to index", models.ErrDimensionMismatch)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", models.ErrDimensionMismatch)
	}
	if err := checkDimensions(vectors, dim); err != nil {
		return nil, err
	}
	idx := &FlatIndex{dimension: dim}
	idx.vectors = copyVectors(vectors)
	return idx, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return TypeFlat
}

// Dimension returns the vector dimension, or 0 for an index that was never built.
func (f *FlatIndex) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimension
}

// Size returns the number of indexed vectors.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Add appends vectors after the existing ones. Either all vectors are added or none.
func (f *FlatIndex) Add(vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dimension == 0 {
		return models.ErrEmptyIndex
	}
	if err := checkDimensions(vectors, f.dimension); err != nil {
		return err
	}
	f.vectors = append(f.vectors, copyVectors(vectors)...)
	return nil
}

// Search returns the min(k, Size()) nearest vectors by ascending squared L2 distance.
// Equal distances keep insertion order.
func (f *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			models.ErrDimensionMismatch, len(query), f.dimension)
	}
	neighbors := make([]Neighbor, len(f.vectors))
	for i, vec := range f.vectors {
		neighbors[i] = Neighbor{Position: i, Distance: SquaredL2(query, vec)}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

// Vectors returns a copy of the indexed vectors in position order.
func (f *FlatIndex) Vectors() [][]float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyVectors(f.vectors)
}

func checkDimensions(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				models.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

func copyVectors(vectors [][]float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		out[i] = vec
	}
	return out
}
