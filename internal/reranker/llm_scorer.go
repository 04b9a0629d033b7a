package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/policyhub/retrieval/internal/llm"
)

// LLMCrossEncoder approximates a cross-encoder with a single LLM call that
// scores every (query, passage) pair in one structured-output prompt.
type LLMCrossEncoder struct {
	llmClient llm.LLM
	model     string
}

// LLMCrossEncoderOption is a functional option for configuring LLMCrossEncoder.
type LLMCrossEncoderOption func(*LLMCrossEncoder)

// WithModel sets the model used for pairwise scoring.
func WithModel(model string) LLMCrossEncoderOption {
	return func(e *LLMCrossEncoder) {
		e.model = model
	}
}

// NewLLMCrossEncoder creates an LLM-backed pairwise scorer.
func NewLLMCrossEncoder(llmClient llm.LLM, opts ...LLMCrossEncoderOption) *LLMCrossEncoder {
	e := &LLMCrossEncoder{
		llmClient: llmClient,
		model:     "llama3.2",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pairScore is the structured output expected from the LLM.
type pairScore struct {
	PairIndex int     `json:"pair_index"`
	Score     float64 `json:"score"`
}

type predictResponse struct {
	Scores []pairScore `json:"scores"`
}

// Predict scores each pair from 0.0 to 1.0, one score per pair in input order.
func (e *LLMCrossEncoder) Predict(ctx context.Context, pairs []Pair) ([]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	prompt := e.buildPrompt(pairs)

	response, err := e.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		Model:       e.model,
		Temperature: 0.0, // Deterministic scoring
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM pairwise scoring failed: %w", err)
	}

	return parsePredictResponse(response, len(pairs))
}

func (e *LLMCrossEncoder) buildPrompt(pairs []Pair) string {
	var sb strings.Builder

	sb.WriteString("You are a relevance scoring system. Score how relevant each passage is to its query.\n\n")
	for i, pair := range pairs {
		passage := pair.Passage
		if len(passage) > 500 {
			passage = passage[:500] + "..."
		}
		sb.WriteString(fmt.Sprintf("[Pair %d]\nQuery: %s\nPassage: %s\n\n", i, pair.Query, passage))
	}

	sb.WriteString(`Score each pair from 0.0 to 1.0.
Output ONLY valid JSON in this exact format:
{"scores": [{"pair_index": 0, "score": 0.9}, {"pair_index": 1, "score": 0.3}, ...]}

Be strict: irrelevant passages should score below 0.3, somewhat relevant 0.3-0.7, highly relevant above 0.7.
Output only JSON, no explanation:`)

	return sb.String()
}

// parsePredictResponse extracts scores from the LLM response, tolerating
// markdown code fences around the JSON.
func parsePredictResponse(response string, numPairs int) ([]float64, error) {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}
	response = strings.TrimSpace(response)

	var parsed predictResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	scores := make([]float64, numPairs)
	for i := range scores {
		scores[i] = 0.5 // Default for entries the model skipped
	}
	for _, s := range parsed.Scores {
		if s.PairIndex >= 0 && s.PairIndex < numPairs {
			score := s.Score
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			scores[s.PairIndex] = score
		}
	}

	return scores, nil
}

// Ensure LLMCrossEncoder implements CrossEncoder.
var _ CrossEncoder = (*LLMCrossEncoder)(nil)
