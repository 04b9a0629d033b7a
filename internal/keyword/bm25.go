// Package keyword provides an in-memory Okapi BM25 index over chunk texts.
//
// Tokenization is deliberately minimal: lowercase, split on whitespace, no
// stemming and no stopword removal. The index is built once over the full
// chunk set and is read-only afterwards, so it may be shared across
// concurrent queries.
package keyword

import (
	"math"
	"sort"
	"strings"

	"github.com/policyhub/retrieval/internal/schema"
)

const (
	// Okapi BM25 parameters at their conventional defaults.
	defaultK1      = 1.5
	defaultB       = 0.75
	defaultEpsilon = 0.25
)

// Index is a BM25 index with aligned chunk-id and text lookup arrays.
type Index struct {
	k1      float64
	b       float64
	epsilon float64

	chunkIDs  []string
	texts     []string
	docFreqs  []map[string]int // term -> frequency within one chunk
	docLens   []float64
	avgDocLen float64
	idf       map[string]float64
}

// Tokenize lowercases text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Build constructs a BM25 index over the given chunks. An empty or nil chunk
// set produces a valid index whose searches return no results.
func Build(chunks []schema.Chunk) *Index {
	idx := &Index{
		k1:      defaultK1,
		b:       defaultB,
		epsilon: defaultEpsilon,
		idf:     make(map[string]float64),
	}

	termDocCount := make(map[string]int)
	totalLen := 0.0

	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Text)
		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		for term := range freqs {
			termDocCount[term]++
		}

		idx.chunkIDs = append(idx.chunkIDs, chunk.ChunkID)
		idx.texts = append(idx.texts, chunk.Text)
		idx.docFreqs = append(idx.docFreqs, freqs)
		idx.docLens = append(idx.docLens, float64(len(tokens)))
		totalLen += float64(len(tokens))
	}

	n := len(idx.chunkIDs)
	if n == 0 {
		return idx
	}
	idx.avgDocLen = totalLen / float64(n)

	// Okapi IDF can go negative for terms appearing in more than half the
	// corpus; those are floored at epsilon times the average IDF, matching
	// the standard epsilon-adjusted formulation.
	idfSum := 0.0
	var negative []string
	for term, df := range termDocCount {
		idf := math.Log(float64(n)-float64(df)+0.5) - math.Log(float64(df)+0.5)
		idx.idf[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	averageIDF := idfSum / float64(len(idx.idf))
	for _, term := range negative {
		idx.idf[term] = idx.epsilon * averageIDF
	}

	return idx
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunkIDs)
}

// Scores computes the BM25 score of every indexed chunk for the query tokens.
// Unknown terms contribute nothing; an empty query yields all-zero scores.
func (idx *Index) Scores(queryTokens []string) []float64 {
	scores := make([]float64, len(idx.chunkIDs))
	for _, term := range queryTokens {
		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		for i, freqs := range idx.docFreqs {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			norm := idx.k1 * (1 - idx.b + idx.b*idx.docLens[i]/idx.avgDocLen)
			scores[i] += idf * tf * (idx.k1 + 1) / (tf + norm)
		}
	}
	return scores
}

// Search tokenizes the query, scores every indexed chunk, and returns the top
// topK results ordered by score descending. Ties keep the original index
// order.
func (idx *Index) Search(query string, topK int) []schema.RetrievalResult {
	if idx.Len() == 0 || topK <= 0 {
		return nil
	}

	scores := idx.Scores(Tokenize(query))

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
			ChunkID: idx.chunkIDs[i],
			Score:   scores[i],
			Source:  schema.SourceKeyword,
			Text:    idx.texts[i],
		})
	}
	return results
}
