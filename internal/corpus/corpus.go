// Package corpus reads and writes the dataset artifacts the pipeline runs
// over: JSONL files of documents, chunks, and labeled queries, plus the
// section-structured handbook text they are derived from.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/policyhub/retrieval/internal/schema"
)

// maxLineBytes bounds a single JSONL record. Handbook sections are short but
// external corpora can carry long documents.
const maxLineBytes = 4 * 1024 * 1024

func loadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func saveJSONL[T any](records []T, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encoding %s record %d: %w", path, i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// LoadDocuments reads section-level documents from a JSONL file.
func LoadDocuments(path string) ([]schema.Document, error) {
	return loadJSONL[schema.Document](path)
}

// SaveDocuments writes documents as one JSON object per line.
func SaveDocuments(documents []schema.Document, path string) error {
	return saveJSONL(documents, path)
}

// LoadQueries reads labeled evaluation queries from a JSONL file.
func LoadQueries(path string) ([]schema.QueryExample, error) {
	return loadJSONL[schema.QueryExample](path)
}

// SaveQueries writes evaluation queries as one JSON object per line.
func SaveQueries(queries []schema.QueryExample, path string) error {
	return saveJSONL(queries, path)
}

// LoadChunks reads previously persisted chunks from a JSONL file.
func LoadChunks(path string) ([]schema.Chunk, error) {
	return loadJSONL[schema.Chunk](path)
}

// SaveChunks writes chunks as one JSON object per line.
func SaveChunks(chunks []schema.Chunk, path string) error {
	return saveJSONL(chunks, path)
}

// LoadHandbookDocuments reads a handbook text file and parses it into
// section-level documents.
func LoadHandbookDocuments(path string) ([]schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading handbook %s: %w", path, err)
	}
	return ParseHandbook(string(raw)), nil
}
