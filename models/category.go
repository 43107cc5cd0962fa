package models

import "strings"

// AgentCategory identifies which specialist handles a query. The set is
// closed: adding a category requires a code change.
type AgentCategory string

const (
	// CategoryDocument covers prose sources (PDF, Word, slides, plain text).
	CategoryDocument AgentCategory = "document"

	// CategoryTabular covers spreadsheet-derived sources.
	CategoryTabular AgentCategory = "tabular"

	// CategoryGeneral searches the whole corpus and is the routing fallback.
	CategoryGeneral AgentCategory = "general"
)

// Categories lists every valid category in a fixed order.
func Categories() []AgentCategory {
	return []AgentCategory{CategoryDocument, CategoryTabular, CategoryGeneral}
}

// Valid reports whether c is one of the defined categories.
func (c AgentCategory) Valid() bool {
	switch c {
	case CategoryDocument, CategoryTabular, CategoryGeneral:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c AgentCategory) String() string {
	return string(c)
}

// RetrievalFilter returns the metadata filter a specialist applies during
// retrieval. General has no bias and returns nil.
func (c AgentCategory) RetrievalFilter() *MetadataFilter {
	switch c {
	case CategoryDocument:
		return &MetadataFilter{DocTypes: []DocType{
			DocTypePDF, DocTypeWord, DocTypeSlides, DocTypeText, DocTypeMarkdown,
		}}
	case CategoryTabular:
		return &MetadataFilter{DocTypes: []DocType{DocTypeSpreadsheet, DocTypeCSV}}
	default:
		return nil
	}
}

// ParseCategory extracts a category from free-form model output. The
// classification prompt asks for a single word, but models pad their
// answers, so any substring match counts. Returns false when no category
// can be recognized.
func ParseCategory(s string) (AgentCategory, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if strings.Contains(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
