package reranker

import (
	"context"
	"errors"
	"testing"

	"github.com/policyhub/retrieval/internal/schema"
)

// fakeEncoder returns canned scores and records whether it was called.
type fakeEncoder struct {
	scores []float64
	err    error
	calls  int
}

func (f *fakeEncoder) Predict(_ context.Context, pairs []Pair) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores[:len(pairs)], nil
}

func candidates() []schema.RetrievalResult {
	return []schema.RetrievalResult{
		{ChunkID: "C-low", Score: 0.9, Source: schema.SourceHybrid, Text: "low relevance"},
		{ChunkID: "C-high", Score: 0.1, Source: schema.SourceHybrid, Text: "high relevance"},
		{ChunkID: "C-mid", Score: 0.5, Source: schema.SourceHybrid, Text: "mid relevance"},
	}
}

func TestRerank_OrdersByModelScore(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.2, 0.9, 0.5}}
	r := New(encoder)

	reranked, err := r.Rerank(context.Background(), "query", candidates(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"C-high", "C-mid", "C-low"}
	for i, want := range wantOrder {
		if reranked[i].ChunkID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, reranked[i].ChunkID)
		}
	}
	wantScores := []float64{0.9, 0.5, 0.2}
	for i, want := range wantScores {
		if reranked[i].Score != want {
			t.Errorf("position %d: expected score %v, got %v", i, want, reranked[i].Score)
		}
		if reranked[i].Source != schema.SourceReranked {
			t.Errorf("position %d: expected reranked source, got %s", i, reranked[i].Source)
		}
	}
}

func TestRerank_EmptyInputSkipsModel(t *testing.T) {
	encoder := &fakeEncoder{}
	r := New(encoder)

	reranked, err := r.Rerank(context.Background(), "query", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reranked) != 0 {
		t.Errorf("expected empty output, got %d results", len(reranked))
	}
	if encoder.calls != 0 {
		t.Errorf("model must not be called for an empty candidate list")
	}
}

func TestRerank_TruncatesToTopK(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.2, 0.9, 0.5}}
	r := New(encoder)

	reranked, err := r.Rerank(context.Background(), "query", candidates(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(reranked))
	}
	if reranked[0].ChunkID != "C-high" || reranked[1].ChunkID != "C-mid" {
		t.Errorf("unexpected truncation order: %s, %s", reranked[0].ChunkID, reranked[1].ChunkID)
	}
}

func TestRerank_ModelErrorPropagates(t *testing.T) {
	encoder := &fakeEncoder{err: errors.New("model offline")}
	r := New(encoder)

	if _, err := r.Rerank(context.Background(), "query", candidates(), 3); err == nil {
		t.Fatal("expected error from failed model call")
	}
}

func TestRerank_PreservesChunkFields(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.3, 0.6, 0.1}}
	r := New(encoder)

	reranked, err := r.Rerank(context.Background(), "query", candidates(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	texts := map[string]string{
		"C-low":  "low relevance",
		"C-high": "high relevance",
		"C-mid":  "mid relevance",
	}
	for _, result := range reranked {
		if result.Text != texts[result.ChunkID] {
			t.Errorf("chunk %s: text changed to %q", result.ChunkID, result.Text)
		}
	}
}

func TestParsePredictResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []float64
		wantErr  bool
	}{
		{
			name:     "plain json",
			response: `{"scores": [{"pair_index": 0, "score": 0.9}, {"pair_index": 1, "score": 0.3}]}`,
			want:     []float64{0.9, 0.3},
		},
		{
			name:     "fenced json",
			response: "```json\n{\"scores\": [{\"pair_index\": 0, \"score\": 0.7}]}\n```",
			want:     []float64{0.7, 0.5},
		},
		{
			name:     "clamps out of range",
			response: `{"scores": [{"pair_index": 0, "score": 1.7}, {"pair_index": 1, "score": -0.2}]}`,
			want:     []float64{1.0, 0.0},
		},
		{
			name:     "garbage",
			response: "not json at all",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := parsePredictResponse(tt.response, 2)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, want := range tt.want {
				if scores[i] != want {
					t.Errorf("score %d: expected %v, got %v", i, want, scores[i])
				}
			}
		})
	}
}
