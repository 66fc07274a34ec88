package vector

import (
	"sync"
	"testing"

	"github.com/hyperjump/kura/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SearchNearest(t *testing.T) {
	idx, err := Build([][]float32{{0, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, 3, idx.Size())

	got, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Neighbor{Position: 1, Distance: 0}, got[0])
	// (0,0) is at distance 1 and (0,1) at distance 2.
	assert.Equal(t, Neighbor{Position: 0, Distance: 1}, got[1])
}

func TestSearch_SelfMatch(t *testing.T) {
	vecs := [][]float32{{0.1, 0.9, 0.3}, {0.5, 0.5, 0.5}, {-1, 2, 0.25}, {3, 3, 3}}
	idx, err := Build(vecs)
	require.NoError(t, err)
	for i, v := range vecs {
		got, err := idx.Search(v, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, i, got[0].Position)
		assert.Zero(t, got[0].Distance)
	}
}

func TestSearch_SortedAndTiesByPosition(t *testing.T) {
	idx, err := Build([][]float32{{2, 0}, {0, 1}, {1, 0}, {0, -1}, {-1, 0}})
	require.NoError(t, err)
	got, err := idx.Search([]float32{0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
	// Four vectors tie at distance 1; they must come back in insertion order.
	assert.Equal(t, []int{1, 2, 3, 4, 0}, positions(got))
}

func TestSearch_KLargerThanSize(t *testing.T) {
	idx, err := Build([][]float32{{1}, {2}})
	require.NoError(t, err)
	got, err := idx.Search([]float32{0}, 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch_Errors(t *testing.T) {
	idx, err := Build([][]float32{{1, 2, 3}})
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 2, 3}, 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.ErrorIs(t, err, models.ErrConfig)

	_, err = idx.Search([]float32{1, 2}, 1)
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)

	_, err = Build([][]float32{{}})
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)

	_, err = Build([][]float32{{1, 2}, {1, 2, 3}})
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestBuild_CopiesInput(t *testing.T) {
	in := [][]float32{{1, 1}}
	idx, err := Build(in)
	require.NoError(t, err)
	in[0][0] = 99
	assert.Equal(t, [][]float32{{1, 1}}, idx.Vectors())
}

func TestAdd(t *testing.T) {
	idx, err := Build([][]float32{{0, 0}})
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{{1, 1}, {2, 2}}))
	assert.Equal(t, 3, idx.Size())

	got, err := idx.Search([]float32{2, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got[0].Position)

	// All-or-nothing: a bad vector in the batch adds nothing.
	err = idx.Add([][]float32{{3, 3}, {1}})
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
	assert.Equal(t, 3, idx.Size())
}

func TestAdd_BeforeBuild(t *testing.T) {
	idx := NewFlatIndex()
	err := idx.Add([][]float32{{1, 2}})
	assert.ErrorIs(t, err, models.ErrEmptyIndex)
	assert.Equal(t, 0, idx.Size())
	assert.Equal(t, 0, idx.Dimension())
}

func TestSearch_ConcurrentReaders(t *testing.T) {
	idx, err := Build([][]float32{{0, 0}, {1, 1}, {2, 2}})
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := idx.Search([]float32{1, 1}, 1)
			assert.NoError(t, err)
			assert.Equal(t, 1, got[0].Position)
		}()
	}
	wg.Wait()
}

func TestFlatIndex_AsVectorIndex(t *testing.T) {
	var idx VectorIndex = NewFlatIndex()
	assert.Equal(t, TypeFlat, idx.Type())
	assert.Equal(t, 0, idx.Size())
	assert.Equal(t, 0, idx.Dimension())
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, 25.0, SquaredL2([]float32{0, 0}, []float32{3, 4}))
	assert.InDelta(t, 5.0, L2Norm([]float32{3, 4}), 1e-9)
}

func positions(ns []Neighbor) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Position
	}
	return out
}
