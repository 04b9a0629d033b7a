package keyword

import (
	"testing"

	"github.com/policyhub/retrieval/internal/schema"
)

func chunk(id, text string) schema.Chunk {
	return schema.Chunk{ChunkID: id, DocID: id, Section: "test", Text: text}
}

func TestSearch_RanksMatchingChunkFirst(t *testing.T) {
	chunks := []schema.Chunk{
		chunk("C-hr", "annual leave requests must be submitted two weeks ahead"),
		chunk("C-sec", "lost devices reported within one hour"),
		chunk("C-it", "software installs require an approved ticket"),
	}
	idx := Build(chunks)

	results := idx.Search("lost devices reported", 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ChunkID != "C-sec" {
		t.Errorf("expected C-sec first, got %s", results[0].ChunkID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected strictly higher score for the matching chunk")
	}
	for _, r := range results {
		if r.Source != schema.SourceKeyword {
			t.Errorf("expected keyword source, got %s", r.Source)
		}
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx := Build([]schema.Chunk{
		chunk("C-1", "alpha beta"),
		chunk("C-2", "gamma delta"),
	})

	results := idx.Search("", 5)
	if len(results) != 2 {
		t.Fatalf("expected all chunks back, got %d", len(results))
	}
	// Zero scores everywhere; ties keep the original index order.
	if results[0].ChunkID != "C-1" || results[1].ChunkID != "C-2" {
		t.Errorf("expected stable index order on uniform scores, got %s, %s",
			results[0].ChunkID, results[1].ChunkID)
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Errorf("expected zero score for empty query, got %f", r.Score)
		}
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := Build(nil)
	if idx.Len() != 0 {
		t.Fatalf("expected empty index")
	}
	if results := idx.Search("anything", 5); len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

func TestSearch_TopKClipping(t *testing.T) {
	idx := Build([]schema.Chunk{
		chunk("C-1", "payroll runs monthly"),
		chunk("C-2", "payroll questions go to finance"),
		chunk("C-3", "vacations accrue quarterly"),
	})

	results := idx.Search("payroll", 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID == "C-3" || results[1].ChunkID == "C-3" {
		t.Errorf("non-matching chunk should not appear in top 2")
	}
}

func TestScores_LengthNormalization(t *testing.T) {
	// The same term frequency in a shorter document should score higher.
	idx := Build([]schema.Chunk{
		chunk("C-short", "refund policy"),
		chunk("C-long", "refund policy details cover many unrelated procedural topics entirely"),
		chunk("C-f1", "travel bookings use the portal"),
		chunk("C-f2", "expense reports close monthly"),
		chunk("C-f3", "badges unlock the east entrance"),
	})

	scores := idx.Scores(Tokenize("refund"))
	if scores[0] <= scores[1] {
		t.Errorf("expected shorter document to score higher: %f vs %f", scores[0], scores[1])
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"Hello World", 2},
		{"MIXED case\ttokens\nhere", 4},
	}
	for _, tt := range tests {
		if got := len(Tokenize(tt.input)); got != tt.want {
			t.Errorf("Tokenize(%q): expected %d tokens, got %d", tt.input, tt.want, got)
		}
	}
}
