// Package schema defines the value records shared by every retrieval stage:
// documents, chunks, labeled evaluation queries, ranked results, and per-query
// metric rows. All records are create-once-then-read and round-trip losslessly
// through the JSONL persistence format.
package schema

// Source tags a RetrievalResult with the stage that produced it. Scores are
// only comparable within the same source: BM25 scores, cosine-derived
// similarities, RRF scores, and cross-encoder scores live on different scales.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceDense    Source = "dense"
	SourceHybrid   Source = "hybrid"
	SourceReranked Source = "reranked"
)

// Document is a coherent unit of source text, immutable once created.
type Document struct {
	DocID   string `json:"doc_id"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

// Chunk is a retrievable sub-unit of a Document. ChunkID is derived
// deterministically from the owning doc id, the chunking strategy, and the
// ordinal index (e.g. "hr-001-FIX-00"), so re-chunking the same document with
// the same strategy reproduces identical ids.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	DocID   string `json:"doc_id"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

// QueryExample is a labeled evaluation query. TargetDocID is the ground-truth
// relevance label consumed by the metrics.
type QueryExample struct {
	QueryID          string   `json:"query_id"`
	Question         string   `json:"question"`
	RelevantChunkIDs []string `json:"relevant_chunk_ids"`
	TargetDocID      string   `json:"target_doc_id"`
	TargetSection    string   `json:"target_section"`
	Rationale        string   `json:"rationale"`
}

// RetrievalResult is the uniform output of every retrieval stage.
type RetrievalResult struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Source  Source  `json:"source"`
	Text    string  `json:"text"`
}

// EvalRow is the per-query metric snapshot produced by one evaluation run.
type EvalRow struct {
	QueryID      string  `json:"query_id"`
	RecallAtK    float64 `json:"recall_at_k"`
	MRR          float64 `json:"mrr"`
	LatencyMS    float64 `json:"latency_ms"`
	Groundedness float64 `json:"groundedness"`
}
