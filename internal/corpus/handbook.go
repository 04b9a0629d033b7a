package corpus

import (
	"fmt"
	"strings"

	"github.com/policyhub/retrieval/internal/schema"
)

const (
	sectionPrefix = "## "
	titlePrefix   = "# "
)

// ParseHandbook splits markdown-style handbook text into one document per
// "##" section. Lines inside a section are joined with single spaces, the
// top-level "#" title line is skipped, and empty sections are dropped. Doc
// ids are derived from the section name ("Remote Work" -> "DOC-HB-REMOTEWORK")
// so labels stay stable across re-parses.
func ParseHandbook(text string) []schema.Document {
	var documents []schema.Document
	var section string
	var lines []string

	commit := func() {
		if section == "" {
			return
		}
		var parts []string
		for _, l := range lines {
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		body := strings.Join(parts, " ")
		if body == "" {
			return
		}
		documents = append(documents, schema.Document{
			DocID:   sectionDocID(section),
			Title:   fmt.Sprintf("Z-Tech Handbook - %s", section),
			Section: section,
			Text:    body,
		})
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, sectionPrefix):
			commit()
			section = strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))
			lines = nil
		case strings.HasPrefix(line, titlePrefix):
			// Top-level title, not a section.
		default:
			lines = append(lines, line)
		}
	}
	commit()

	return documents
}

func sectionDocID(section string) string {
	return "DOC-HB-" + strings.ToUpper(strings.ReplaceAll(section, " ", ""))
}
