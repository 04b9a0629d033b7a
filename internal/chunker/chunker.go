// Package chunker splits documents into retrievable chunks. Two
// interchangeable strategies are provided: fixed-width character windows and
// a lightweight sentence-grouping strategy for policy-heavy text.
package chunker

import (
	"fmt"
	"strings"

	"github.com/policyhub/retrieval/internal/schema"
)

// DefaultChunkSize is the fixed-width window size in characters.
const DefaultChunkSize = 260

// Strategy turns documents into chunks. Implementations must derive chunk ids
// deterministically so re-chunking the same documents reproduces the same ids.
type Strategy interface {
	Chunk(documents []schema.Document) []schema.Chunk
}

// Fixed splits each document into non-overlapping windows of Size characters.
// Concatenating the chunk texts of one document in chunk-id order restores the
// original text exactly.
type Fixed struct {
	Size int
}

// NewFixed creates a fixed-width chunker, applying the default window size
// when size is not positive.
func NewFixed(size int) *Fixed {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Fixed{Size: size}
}

// Chunk slides a Size-character window over every document from offset zero.
// The last chunk may be shorter; an empty document yields no chunks.
func (f *Fixed) Chunk(documents []schema.Document) []schema.Chunk {
	var chunks []schema.Chunk
	for _, doc := range documents {
		text := doc.Text
		for start, part := 0, 0; start < len(text); start, part = start+f.Size, part+1 {
			end := start + f.Size
			if end > len(text) {
				end = len(text)
			}
			chunks = append(chunks, schema.Chunk{
				ChunkID: fmt.Sprintf("%s-FIX-%02d", doc.DocID, part),
				DocID:   doc.DocID,
				Section: doc.Section,
				Text:    text[start:end],
			})
		}
	}
	return chunks
}

// Semantic groups sentence-like units into larger chunks to reduce context
// fragmentation. Units are split at the literal ". " delimiter; documents with
// more than two units are always split into exactly two groups (the first two
// units and the remainder). This is a deliberate simplification, not a real
// semantic boundary detector.
type Semantic struct{}

// NewSemantic creates a sentence-grouping chunker.
func NewSemantic() *Semantic {
	return &Semantic{}
}

// Chunk emits one chunk for documents with at most two sentence-like units and
// exactly two chunks otherwise.
func (s *Semantic) Chunk(documents []schema.Document) []schema.Chunk {
	var chunks []schema.Chunk
	for _, doc := range documents {
		var parts []string
		for _, piece := range strings.Split(doc.Text, ". ") {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}

		var groups []string
		if len(parts) <= 2 {
			groups = []string{strings.Join(parts, ". ")}
		} else {
			groups = []string{
				strings.Join(parts[:2], ". "),
				strings.Join(parts[2:], ". "),
			}
		}

		for idx, group := range groups {
			chunks = append(chunks, schema.Chunk{
				ChunkID: fmt.Sprintf("%s-SEM-%02d", doc.DocID, idx),
				DocID:   doc.DocID,
				Section: doc.Section,
				Text:    group,
			})
		}
	}
	return chunks
}

// Compile-time strategy checks.
var (
	_ Strategy = (*Fixed)(nil)
	_ Strategy = (*Semantic)(nil)
)
