// Package eval computes retrieval-quality metrics (Recall@k, reciprocal
// rank, groundedness) and orchestrates per-query evaluation runs.
package eval

import (
	"regexp"
	"strings"

	"github.com/policyhub/retrieval/internal/schema"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9-]+`)

// RecallAtK is binary: 1.0 if the query's target document appears within the
// top k results, else 0.0. Chunk ids embed their owning doc id, so target
// matching is a substring check against the chunk id.
func RecallAtK(results []schema.RetrievalResult, query schema.QueryExample, k int) float64 {
	if k < 0 {
		k = 0
	}
	if k > len(results) {
		k = len(results)
	}
	for _, result := range results[:k] {
		if strings.Contains(result.ChunkID, query.TargetDocID) {
			return 1.0
		}
	}
	return 0.0
}

// ReciprocalRank returns 1/rank of the first hit for the query's target
// document, scanning the entire list rather than a top-k window. No hit
// yields 0.0.
func ReciprocalRank(results []schema.RetrievalResult, query schema.QueryExample) float64 {
	for i, result := range results {
		if strings.Contains(result.ChunkID, query.TargetDocID) {
			return 1.0 / float64(i+1)
		}
	}
	return 0.0
}

// Groundedness estimates how well an answer is supported by the retrieved
// contexts as the fraction of answer tokens also present in the contexts.
// This is a lexical-overlap proxy, not a semantic-entailment check: an answer
// can reuse context vocabulary while contradicting it. An answer with no
// tokens scores 0.0.
func Groundedness(answer string, contexts []string) float64 {
	answerTokens := normalize(answer)
	if len(answerTokens) == 0 {
		return 0.0
	}

	contextTokens := make(map[string]struct{})
	for _, context := range contexts {
		for token := range normalize(context) {
			contextTokens[token] = struct{}{}
		}
	}

	overlap := 0
	for token := range answerTokens {
		if _, ok := contextTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(answerTokens))
}

// normalize lowercases text and extracts its alphanumeric-plus-hyphen token
// set.
func normalize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[token] = struct{}{}
	}
	return tokens
}
