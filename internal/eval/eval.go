package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/policyhub/retrieval/internal/schema"
)

// Retriever is the single fixed retrieval contract. Every retriever accepts
// the question and a top-k; there is no legacy single-argument fallback.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]schema.RetrievalResult, error)
}

// Answerer generates an answer for a question from retrieved context texts.
type Answerer interface {
	Answer(ctx context.Context, question string, contexts []string) (string, error)
}

// Summary aggregates per-query metric rows by arithmetic mean.
type Summary struct {
	RecallAtK    float64 `json:"recall_at_k"`
	MRR          float64 `json:"mrr"`
	LatencyMS    float64 `json:"latency_ms"`
	Groundedness float64 `json:"groundedness"`
}

// EvaluateSingle runs retrieval and generation for one labeled query and
// computes all four metrics into an EvalRow. Latency covers the whole
// retrieve + answer sequence. Retrieval and generation errors propagate to
// the caller; nothing is swallowed.
func EvaluateSingle(ctx context.Context, query schema.QueryExample, retriever Retriever, answerer Answerer, topK int) (schema.EvalRow, error) {
	started := time.Now()

	retrieved, err := retriever.Retrieve(ctx, query.Question, topK)
	if err != nil {
		return schema.EvalRow{}, fmt.Errorf("retrieval failed for query %s: %w", query.QueryID, err)
	}

	clipped := retrieved
	if len(clipped) > topK {
		clipped = clipped[:topK]
	}
	contexts := make([]string, len(clipped))
	for i, result := range clipped {
		contexts[i] = result.Text
	}

	answer, err := answerer.Answer(ctx, query.Question, contexts)
	if err != nil {
		return schema.EvalRow{}, fmt.Errorf("generation failed for query %s: %w", query.QueryID, err)
	}

	elapsed := time.Since(started)

	return schema.EvalRow{
		QueryID:      query.QueryID,
		RecallAtK:    RecallAtK(retrieved, query, topK),
		MRR:          ReciprocalRank(retrieved, query),
		LatencyMS:    float64(elapsed.Microseconds()) / 1000.0,
		Groundedness: Groundedness(answer, contexts),
	}, nil
}

// Summarize computes the mean of each metric across rows. An empty input
// yields an all-zero summary.
func Summarize(rows []schema.EvalRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	var sum Summary
	for _, row := range rows {
		sum.RecallAtK += row.RecallAtK
		sum.MRR += row.MRR
		sum.LatencyMS += row.LatencyMS
		sum.Groundedness += row.Groundedness
	}

	n := float64(len(rows))
	return Summary{
		RecallAtK:    sum.RecallAtK / n,
		MRR:          sum.MRR / n,
		LatencyMS:    sum.LatencyMS / n,
		Groundedness: sum.Groundedness / n,
	}
}
