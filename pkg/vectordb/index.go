package vectordb

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by Query when the named collection does
// not exist on the backend. Callers decide whether that is fatal; the
// per-user search path swallows it.
var ErrCollectionNotFound = errors.New("vectordb: collection not found")

// QueryResult holds the nearest-neighbor hits for a single query embedding,
// aligned by index. Distances are similarity distances (lower = closer).
type QueryResult struct {
	Documents []string
	Distances []float32
	Metadatas []map[string]interface{}
}

// Index is the contract with the remote similarity-search backend. Each
// collection is one namespace. Implementations must be safe for concurrent
// use; the backends themselves own write/read consistency.
type Index interface {
	// EnsureCollection creates the collection if it does not exist yet.
	EnsureCollection(ctx context.Context, name string) error

	// Add stores documents with their precomputed embeddings. All slices
	// must have the same length.
	Add(ctx context.Context, collection string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error

	// Query returns the k nearest neighbors of the embedding, closest first.
	Query(ctx context.Context, collection string, embedding []float32, k int) (*QueryResult, error)

	// Delete removes documents by id.
	Delete(ctx context.Context, collection string, ids []string) error
}
