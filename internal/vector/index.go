// Package vector provides an exact in-memory vector index for similarity search.
package vector

import "context"

// VectorIndex defines vector storage and similarity search.
type VectorIndex interface {
	// Add stores a vector under id. Adding an existing id replaces the
	// previous vector (last write wins) while keeping its insertion position.
	Add(ctx context.Context, id string, vec []float32) error
	// AddBatch stores ids[i] -> vecs[i] with Add semantics per entry.
	AddBatch(ctx context.Context, ids []string, vecs [][]float32) error
	// Search returns up to k hits ordered by descending similarity,
	// ties broken by insertion order. An empty index yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID    string
	Score float64 // Inner product; cosine similarity for normalized vectors
}
