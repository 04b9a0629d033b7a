package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/policyhub/retrieval/internal/schema"
)

// cosineEpsilon clamps near-zero norms so zero vectors score 0 instead of
// dividing by zero.
const cosineEpsilon = 1e-12

// MemoryIndex is an in-process DenseIndex using exact cosine similarity.
// It backs offline evaluation runs and tests where no external store is
// available. Cosine similarity already equals 1 - cosine distance, so scores
// follow the higher-is-better convention directly.
type MemoryIndex struct {
	chunkIDs []string
	texts    []string
	vectors  [][]float32
	norms    []float64
}

// NewMemoryIndex creates an empty in-memory dense index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Build replaces the index contents with the given chunks and embeddings.
func (m *MemoryIndex) Build(_ context.Context, chunks []schema.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings))
	}

	m.chunkIDs = make([]string, len(chunks))
	m.texts = make([]string, len(chunks))
	m.vectors = make([][]float32, len(chunks))
	m.norms = make([]float64, len(chunks))

	for i, chunk := range chunks {
		m.chunkIDs[i] = chunk.ChunkID
		m.texts[i] = chunk.Text
		m.vectors[i] = embeddings[i]
		m.norms[i] = norm(embeddings[i])
	}
	return nil
}

// Search scores every indexed vector against the query embedding and returns
// the topK most similar chunks.
func (m *MemoryIndex) Search(_ context.Context, queryEmbedding []float32, topK int) ([]schema.RetrievalResult, error) {
	if len(m.chunkIDs) == 0 || topK <= 0 {
		return nil, nil
	}

	queryNorm := norm(queryEmbedding)
	scores := make([]float64, len(m.vectors))
	for i, vec := range m.vectors {
		scores[i] = dot(queryEmbedding, vec) / math.Max(queryNorm*m.norms[i], cosineEpsilon)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	results := make([]schema.RetrievalResult, 0, topK)
	for _, i := range order[:topK] {
		results = append(results, schema.RetrievalResult{
			ChunkID: m.chunkIDs[i],
			Score:   scores[i],
			Source:  schema.SourceDense,
			Text:    m.texts[i],
		})
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// Ensure MemoryIndex implements DenseIndex.
var _ DenseIndex = (*MemoryIndex)(nil)
