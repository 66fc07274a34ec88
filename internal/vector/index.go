// Package vector provides exact nearest-neighbour search over dense embeddings.
package vector

// VectorIndex is a searchable set of fixed-dimension vectors addressed by position.
type VectorIndex interface {
	Add(vectors [][]float32) error
	Search(query []float32, k int) ([]Neighbor, error)
	Dimension() int
	Size() int
	Type() string
}

// Neighbor is a single search hit. Position is the insertion order of the vector
// and Distance its squared L2 distance to the query.
type Neighbor struct {
	Position int
	Distance float64
}
