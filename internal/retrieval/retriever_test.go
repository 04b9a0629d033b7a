package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/policyhub/retrieval/internal/keyword"
	"github.com/policyhub/retrieval/internal/reranker"
	"github.com/policyhub/retrieval/internal/schema"
	"github.com/policyhub/retrieval/internal/vectorstore"
)

// stubEmbedder maps known texts to fixed two-dimensional vectors so dense
// rankings are predictable without a live provider.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := s.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return 2 }
func (s *stubEmbedder) ModelName() string { return "stub" }

type fixedScores struct {
	scores map[string]float64
}

func (f *fixedScores) Predict(_ context.Context, pairs []reranker.Pair) ([]float64, error) {
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = f.scores[p.Passage]
	}
	return out, nil
}

func corpusChunks() []schema.Chunk {
	return []schema.Chunk{
		{ChunkID: "sec-001-FIX-00", DocID: "sec-001", Section: "Security", Text: "lost devices reported within one hour"},
		{ChunkID: "hr-002-FIX-00", DocID: "hr-002", Section: "Leave", Text: "annual leave accrues monthly"},
		{ChunkID: "it-003-FIX-00", DocID: "it-003", Section: "IT", Text: "software installs require approval"},
	}
}

func buildDense(t *testing.T, emb *stubEmbedder) *vectorstore.MemoryIndex {
	t.Helper()
	chunks := corpusChunks()
	vectors, err := emb.EmbedBatch(context.Background(), []string{
		chunks[0].Text, chunks[1].Text, chunks[2].Text,
	})
	require.NoError(t, err)
	idx := vectorstore.NewMemoryIndex()
	require.NoError(t, idx.Build(context.Background(), chunks, vectors))
	return idx
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"lost devices reported within one hour": {1, 0},
		"annual leave accrues monthly":          {0, 1},
		"software installs require approval":    {0.5, 0.5},
		"lost devices reported":                 {1, 0},
		"how does leave accrue?":                {0, 1},
	}}
}

func TestKeywordRetriever(t *testing.T) {
	r := NewKeywordRetriever(keyword.Build(corpusChunks()))

	results, err := r.Retrieve(context.Background(), "lost devices reported", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "sec-001-FIX-00", results[0].ChunkID)
	require.Equal(t, schema.SourceKeyword, results[0].Source)
}

func TestDenseRetriever(t *testing.T) {
	emb := newStubEmbedder()
	r := NewDenseRetriever(emb, buildDense(t, emb))

	results, err := r.Retrieve(context.Background(), "how does leave accrue?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "hr-002-FIX-00", results[0].ChunkID)
	require.Equal(t, schema.SourceDense, results[0].Source)
}

func TestHybridRetriever_FusesBothSignals(t *testing.T) {
	emb := newStubEmbedder()
	dense := NewDenseRetriever(emb, buildDense(t, emb))
	kw := NewKeywordRetriever(keyword.Build(corpusChunks()))

	h := NewHybridRetriever(dense, kw)
	results, err := h.Retrieve(context.Background(), "lost devices reported", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The security chunk tops both lists, so agreement puts it first.
	require.Equal(t, "sec-001-FIX-00", results[0].ChunkID)
	for _, r := range results {
		require.Equal(t, schema.SourceHybrid, r.Source)
	}
}

func TestHybridRetriever_ClipsToTopK(t *testing.T) {
	emb := newStubEmbedder()
	dense := NewDenseRetriever(emb, buildDense(t, emb))
	kw := NewKeywordRetriever(keyword.Build(corpusChunks()))

	h := NewHybridRetriever(dense, kw)
	results, err := h.Retrieve(context.Background(), "lost devices reported", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestHybridRetriever_WithReranker(t *testing.T) {
	emb := newStubEmbedder()
	dense := NewDenseRetriever(emb, buildDense(t, emb))
	kw := NewKeywordRetriever(keyword.Build(corpusChunks()))

	// The cross-encoder disagrees with fusion and promotes the IT chunk.
	encoder := &fixedScores{scores: map[string]float64{
		"lost devices reported within one hour": 0.2,
		"annual leave accrues monthly":          0.1,
		"software installs require approval":    0.9,
	}}
	h := NewHybridRetriever(dense, kw, WithReranker(reranker.New(encoder)))

	results, err := h.Retrieve(context.Background(), "lost devices reported", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "it-003-FIX-00", results[0].ChunkID)
	require.Equal(t, schema.SourceReranked, results[0].Source)
}
