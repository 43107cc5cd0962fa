package router

import (
	"strings"
	"unicode"
)

// Keyword lexicons for the rule-based classifier. Deliberately small: the
// rules only need to catch clear-cut phrasing, the model call handles the
// rest.
var tabularKeywords = []string{
	"spreadsheet", "excel", "sheet", "table", "tabular", "cell", "column",
	"row", "csv", "sum", "total", "average", "mean", "median", "count",
	"statistics", "numeric", "numbers", "trend", "sales", "revenue",
	"q1", "q2", "q3", "q4", "quarter", "chart", "figures",
}

var documentKeywords = []string{
	"document", "policy", "report", "contract", "memo", "presentation",
	"slide", "pdf", "section", "paragraph", "page", "chapter", "states",
	"mention", "written", "text", "article", "clause", "guideline",
}

// classifyByRules is a pure function over the query text. It returns the
// category favored by keyword evidence, or ok=false when the evidence is
// inconclusive (no hits, or a tie between categories).
func classifyByRules(text string) (string, bool) {
	tokens := tokenize(text)

	tabularHits := countHits(tokens, tabularKeywords)
	documentHits := countHits(tokens, documentKeywords)

	switch {
	case tabularHits > documentHits:
		return "tabular", true
	case documentHits > tabularHits:
		return "document", true
	default:
		return "", false
	}
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[field] = true
	}
	return tokens
}

func countHits(tokens map[string]bool, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if tokens[kw] {
			hits++
		}
	}
	return hits
}
