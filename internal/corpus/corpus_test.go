package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/policyhub/retrieval/internal/schema"
)

func TestDocumentsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "documents.jsonl")

	documents := []schema.Document{
		{DocID: "hr-001", Title: "Leave Policy", Section: "Leave", Text: "annual leave accrues monthly"},
		{DocID: "sec-002", Title: "Device Policy", Section: "Security", Text: "lost devices reported within one hour"},
	}

	require.NoError(t, SaveDocuments(documents, path))

	loaded, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Equal(t, documents, loaded)
}

func TestQueriesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.jsonl")

	queries := []schema.QueryExample{
		{
			QueryID:          "Q-0000",
			Question:         "when must a lost device be reported?",
			RelevantChunkIDs: []string{"sec-002-FIX-00"},
			TargetDocID:      "sec-002",
			TargetSection:    "Security",
			Rationale:        "Requires incident reporting timing.",
		},
	}

	require.NoError(t, SaveQueries(queries, path))

	loaded, err := LoadQueries(path)
	require.NoError(t, err)
	require.Equal(t, queries, loaded)
}

func TestChunksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunks.jsonl")

	chunks := []schema.Chunk{
		{ChunkID: "hr-001-FIX-00", DocID: "hr-001", Section: "Leave", Text: "annual leave"},
		{ChunkID: "hr-001-FIX-01", DocID: "hr-001", Section: "Leave", Text: " accrues monthly"},
	}

	require.NoError(t, SaveChunks(chunks, path))

	loaded, err := LoadChunks(path)
	require.NoError(t, err)
	require.Equal(t, chunks, loaded)
}

func TestLoadJSONL_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.jsonl")
	content := `{"doc_id":"a","title":"","section":"S","text":"one"}

{"doc_id":"b","title":"","section":"S","text":"two"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "a", loaded[0].DocID)
	require.Equal(t, "b", loaded[1].DocID)
}

func TestLoadJSONL_BadLineReportsLineNumber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.jsonl")
	content := `{"doc_id":"a","title":"","section":"S","text":"one"}
not json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadDocuments(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestLoadDocuments_MissingFile(t *testing.T) {
	_, err := LoadDocuments(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}

const handbookSample = `# Z-Tech Global Work Handbook

## Remote Work
Z-Tech encourages remote work from home.
Public Wi-Fi usage is allowed only with corporate VPN enabled.

## Security
Lost or stolen devices must be reported within one hour.
`

func TestParseHandbook(t *testing.T) {
	documents := ParseHandbook(handbookSample)
	require.Len(t, documents, 2)

	require.Equal(t, "DOC-HB-REMOTEWORK", documents[0].DocID)
	require.Equal(t, "Remote Work", documents[0].Section)
	require.Equal(t, "Z-Tech Handbook - Remote Work", documents[0].Title)
	require.Equal(t,
		"Z-Tech encourages remote work from home. Public Wi-Fi usage is allowed only with corporate VPN enabled.",
		documents[0].Text)

	require.Equal(t, "DOC-HB-SECURITY", documents[1].DocID)
	require.Equal(t, "Lost or stolen devices must be reported within one hour.", documents[1].Text)
}

func TestParseHandbook_EmptySectionDropped(t *testing.T) {
	documents := ParseHandbook("# Title\n\n## Empty\n\n## Kept\ncontent here\n")
	require.Len(t, documents, 1)
	require.Equal(t, "Kept", documents[0].Section)
}

func TestLoadHandbookDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook_manual.txt")
	require.NoError(t, os.WriteFile(path, []byte(handbookSample), 0o644))

	documents, err := LoadHandbookDocuments(path)
	require.NoError(t, err)
	require.Len(t, documents, 2)
}
