// Package reranker provides the optional second retrieval pass: a pairwise
// cross-encoder model re-scores (query, passage) candidates from any
// first-pass source.
//
// # Trade-offs
//
//   - Latency: adds one scoring-model call per query
//   - Quality: better precision when first-pass scores bunch together
//
// Enable reranking where accuracy matters more than speed.
package reranker

import (
	"context"
	"fmt"
	"sort"

	"github.com/policyhub/retrieval/internal/schema"
)

// Pair is one (query, passage) input to the cross-encoder.
type Pair struct {
	Query   string
	Passage string
}

// CrossEncoder scores (query, passage) pairs jointly. Implementations must
// return exactly one score per input pair, in input order.
type CrossEncoder interface {
	Predict(ctx context.Context, pairs []Pair) ([]float64, error)
}

// CrossEncoderReranker reorders first-pass candidates by pairwise relevance.
type CrossEncoderReranker struct {
	model CrossEncoder
}

// New creates a reranker backed by the given cross-encoder.
func New(model CrossEncoder) *CrossEncoderReranker {
	return &CrossEncoderReranker{model: model}
}

// Rerank re-scores the candidates against the query and returns the topK by
// cross-encoder score descending. Chunk ids and texts pass through unchanged;
// only the score is replaced and the source re-tagged. An empty candidate
// list returns empty without invoking the model, avoiding a zero-length
// batch call.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, results []schema.RetrievalResult, topK int) ([]schema.RetrievalResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	pairs := make([]Pair, len(results))
	for i, result := range results {
		pairs[i] = Pair{Query: query, Passage: result.Text}
	}

	scores, err := r.model.Predict(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder predict failed: %w", err)
	}
	if len(scores) != len(results) {
		return nil, fmt.Errorf("cross-encoder returned %d scores for %d pairs", len(scores), len(results))
	}

	reranked := make([]schema.RetrievalResult, len(results))
	for i, result := range results {
		reranked[i] = schema.RetrievalResult{
			ChunkID: result.ChunkID,
			Score:   scores[i],
			Source:  schema.SourceReranked,
			Text:    result.Text,
		}
	}

	sort.SliceStable(reranked, func(a, b int) bool {
		return reranked[a].Score > reranked[b].Score
	})

	if topK > 0 && len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked, nil
}
