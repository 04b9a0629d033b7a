// Package fusion combines ranked result lists into a single ranking with
// Reciprocal Rank Fusion. RRF only looks at rank positions, so it can merge
// rankings whose raw scores live on incomparable scales (BM25 vs cosine).
package fusion

import (
	"sort"

	"github.com/policyhub/retrieval/internal/schema"
)

// DefaultK is the conventional RRF smoothing constant.
const DefaultK = 60

// ReciprocalRankFusion fuses two best-first result lists. Every chunk
// contributes 1/(k+rank) per list it appears in (ranks are 1-indexed), so a
// chunk present in both lists accumulates both contributions and outranks
// single-list hits of comparable rank. With k=60 a chunk ranked first in both
// lists scores exactly 2/61.
//
// The output contains every distinct chunk id from the union of both inputs,
// sorted by fused score descending and tagged with the hybrid source. Ties
// keep first-seen order (dense list first, then keyword). Truncation to a
// final top-k is the caller's job.
func ReciprocalRankFusion(denseResults, keywordResults []schema.RetrievalResult, k int) []schema.RetrievalResult {
	if k <= 0 {
		k = DefaultK
	}

	scores := make(map[string]float64)
	texts := make(map[string]string)
	var order []string

	accumulate := func(results []schema.RetrievalResult) {
		for rank, result := range results {
			if _, seen := scores[result.ChunkID]; !seen {
				order = append(order, result.ChunkID)
			}
			scores[result.ChunkID] += 1.0 / float64(k+rank+1)
			// Last write wins; both lists normally carry the same text
			// for a given chunk id.
			texts[result.ChunkID] = result.Text
		}
	}
	accumulate(denseResults)
	accumulate(keywordResults)

	fused := make([]schema.RetrievalResult, 0, len(order))
	for _, chunkID := range order {
		fused = append(fused, schema.RetrievalResult{
			ChunkID: chunkID,
			Score:   scores[chunkID],
			Source:  schema.SourceHybrid,
			Text:    texts[chunkID],
		})
	}
	sort.SliceStable(fused, func(a, b int) bool {
		return fused[a].Score > fused[b].Score
	})
	return fused
}
