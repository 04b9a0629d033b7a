// Package retrieval composes the index primitives into concrete retrievers:
// keyword-only, dense-only, and the hybrid dense+keyword path fused with RRF
// and optionally reranked by a cross-encoder.
package retrieval

import (
	"context"
	"fmt"

	"github.com/policyhub/retrieval/internal/embedder"
	"github.com/policyhub/retrieval/internal/eval"
	"github.com/policyhub/retrieval/internal/fusion"
	"github.com/policyhub/retrieval/internal/keyword"
	"github.com/policyhub/retrieval/internal/reranker"
	"github.com/policyhub/retrieval/internal/schema"
	"github.com/policyhub/retrieval/internal/vectorstore"
)

// KeywordRetriever serves queries from a pre-built BM25 index.
type KeywordRetriever struct {
	index *keyword.Index
}

// NewKeywordRetriever wraps a BM25 index.
func NewKeywordRetriever(index *keyword.Index) *KeywordRetriever {
	return &KeywordRetriever{index: index}
}

// Retrieve runs BM25 search over the indexed chunks.
func (r *KeywordRetriever) Retrieve(_ context.Context, question string, topK int) ([]schema.RetrievalResult, error) {
	return r.index.Search(question, topK), nil
}

// DenseRetriever embeds the question and searches a dense index.
type DenseRetriever struct {
	embedder embedder.Embedder
	index    vectorstore.DenseIndex
}

// NewDenseRetriever combines an embedding provider with a dense index.
func NewDenseRetriever(emb embedder.Embedder, index vectorstore.DenseIndex) *DenseRetriever {
	return &DenseRetriever{embedder: emb, index: index}
}

// Retrieve embeds the question and returns the nearest chunks.
func (r *DenseRetriever) Retrieve(ctx context.Context, question string, topK int) ([]schema.RetrievalResult, error) {
	queryVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := r.index.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	return results, nil
}

// HybridRetriever runs dense and keyword retrieval, fuses the rankings with
// RRF, optionally reranks the fused candidates, and clips to topK.
type HybridRetriever struct {
	dense    eval.Retriever
	keyword  eval.Retriever
	rrfK     int
	reranker *reranker.CrossEncoderReranker // optional second pass
}

// HybridOption is a functional option for configuring HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithRRFK overrides the RRF smoothing constant.
func WithRRFK(k int) HybridOption {
	return func(h *HybridRetriever) {
		if k > 0 {
			h.rrfK = k
		}
	}
}

// WithReranker enables the cross-encoder second pass on the fused ranking.
func WithReranker(r *reranker.CrossEncoderReranker) HybridOption {
	return func(h *HybridRetriever) {
		h.reranker = r
	}
}

// NewHybridRetriever composes dense and keyword retrievers.
func NewHybridRetriever(dense, kw eval.Retriever, opts ...HybridOption) *HybridRetriever {
	h := &HybridRetriever{
		dense:   dense,
		keyword: kw,
		rrfK:    fusion.DefaultK,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Retrieve returns the fused (and possibly reranked) top topK results.
func (h *HybridRetriever) Retrieve(ctx context.Context, question string, topK int) ([]schema.RetrievalResult, error) {
	denseResults, err := h.dense.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("dense retrieval: %w", err)
	}
	keywordResults, err := h.keyword.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword retrieval: %w", err)
	}

	fused := fusion.ReciprocalRankFusion(denseResults, keywordResults, h.rrfK)

	if h.reranker != nil {
		reranked, err := h.reranker.Rerank(ctx, question, fused, topK)
		if err != nil {
			return nil, fmt.Errorf("reranking: %w", err)
		}
		return reranked, nil
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

// Compile-time retriever checks.
var (
	_ eval.Retriever = (*KeywordRetriever)(nil)
	_ eval.Retriever = (*DenseRetriever)(nil)
	_ eval.Retriever = (*HybridRetriever)(nil)
)
