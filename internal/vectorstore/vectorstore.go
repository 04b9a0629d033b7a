// Package vectorstore provides the dense nearest-neighbor index contract and
// its implementations. Scores returned from Search are similarities derived
// as 1 - distance, so higher is always better regardless of the backing
// store's distance metric.
package vectorstore

import (
	"context"

	"github.com/policyhub/retrieval/internal/schema"
)

// DenseIndex is the narrow contract the retrieval core consumes. Building is
// a one-time, non-incremental operation: re-indexing means re-running Build
// over the full chunk set. A built index is read-only and safe for
// concurrent searches.
type DenseIndex interface {
	// Build replaces the index contents with the given chunks and their
	// embedding vectors. Embeddings must be aligned to chunks.
	Build(ctx context.Context, chunks []schema.Chunk, embeddings [][]float32) error

	// Search returns the topK nearest chunks for the query embedding,
	// tagged with the dense source.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]schema.RetrievalResult, error)
}
