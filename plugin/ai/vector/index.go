// Package vector provides an exact inner-product similarity index for
// retrieval-augmented generation.
package vector

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// ErrDimensionMismatch is returned when a vector's length does not match the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is a single search result: the position of the vector in insertion
// order and its inner-product score against the query.
type Hit struct {
	Position int     `json:"position"`
	Score    float32 `json:"score"`
}

// FlatIndex is an exact (brute force) inner-product index. Vectors are stored
// in insertion order and every search scans all of them. With unit-normalized
// vectors the inner product equals cosine similarity.
//
// FlatIndex is not safe for concurrent use; callers serialize access.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
}

// NewFlatIndex creates an empty index that accepts vectors of the given
// dimension.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension}
}

// Dimension returns the vector dimension the index accepts.
func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Size returns the number of stored vectors.
func (idx *FlatIndex) Size() int {
	return len(idx.vectors)
}

// Add appends vectors to the index in the given order. If any vector has the
// wrong dimension, nothing is added.
func (idx *FlatIndex) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != idx.dimension {
			return errors.Wrapf(ErrDimensionMismatch, "expected %d, got %d", idx.dimension, len(v))
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Search returns up to k hits ordered by score descending. Ties keep
// insertion order. An empty index returns no hits.
func (idx *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "expected %d, got %d", idx.dimension, len(query))
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Position: i, Score: dot(query, v)}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Clear removes all vectors, keeping the dimension.
func (idx *FlatIndex) Clear() {
	idx.vectors = nil
}

type indexState struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

// MarshalJSON serializes the index for snapshots.
func (idx *FlatIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(indexState{Dimension: idx.dimension, Vectors: idx.vectors})
}

// UnmarshalJSON restores the index from a snapshot.
func (idx *FlatIndex) UnmarshalJSON(data []byte) error {
	var state indexState
	if err := json.Unmarshal(data, &state); err != nil {
		return errors.Wrap(err, "unmarshal index state")
	}
	for _, v := range state.Vectors {
		if len(v) != state.Dimension {
			return errors.Wrapf(ErrDimensionMismatch, "expected %d, got %d", state.Dimension, len(v))
		}
	}
	idx.dimension = state.Dimension
	idx.vectors = state.Vectors
	return nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
