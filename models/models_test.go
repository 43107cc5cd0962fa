package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentCategory_Valid(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), "category %s should be valid", c)
	}
	assert.False(t, AgentCategory("excel").Valid())
	assert.False(t, AgentCategory("").Valid())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  AgentCategory
		ok    bool
	}{
		{"document", CategoryDocument, true},
		{"Tabular", CategoryTabular, true},
		{"  general  ", CategoryGeneral, true},
		{"The best category is: tabular.", CategoryTabular, true},
		{"DOCUMENT\n", CategoryDocument, true},
		{"spreadsheet", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

func TestAgentCategory_RetrievalFilter(t *testing.T) {
	assert.Nil(t, CategoryGeneral.RetrievalFilter())

	doc := CategoryDocument.RetrievalFilter()
	assert.True(t, doc.Matches(DocTypePDF))
	assert.True(t, doc.Matches(DocTypeMarkdown))
	assert.False(t, doc.Matches(DocTypeSpreadsheet))

	tab := CategoryTabular.RetrievalFilter()
	assert.True(t, tab.Matches(DocTypeSpreadsheet))
	assert.True(t, tab.Matches(DocTypeCSV))
	assert.False(t, tab.Matches(DocTypePDF))
}

func TestMetadataFilter_Matches(t *testing.T) {
	var nilFilter *MetadataFilter
	assert.True(t, nilFilter.Matches(DocTypePDF))

	empty := &MetadataFilter{}
	assert.True(t, empty.Matches(DocTypeSpreadsheet))

	f := &MetadataFilter{DocTypes: []DocType{DocTypeText}}
	assert.True(t, f.Matches(DocTypeText))
	assert.False(t, f.Matches(DocTypePDF))
}

func TestRetrievalResult_Helpers(t *testing.T) {
	r := RetrievalResult{Chunks: []ScoredChunk{
		{Chunk: Chunk{ID: "a-0", SourceID: "a.pdf", Content: "alpha"}, Score: 0.9},
		{Chunk: Chunk{ID: "a-1", SourceID: "a.pdf", Content: "beta"}, Score: 0.7},
		{Chunk: Chunk{ID: "b-0", SourceID: "b.txt", Content: "gamma"}, Score: 0.5},
	}}

	assert.False(t, r.Empty())
	assert.Equal(t, []string{"a.pdf", "b.txt"}, r.SourceIDs())
	assert.True(t, r.HasSource("b.txt"))
	assert.False(t, r.HasSource("c.xlsx"))
	assert.InDelta(t, 0.7, r.MeanScore(), 1e-9)
	assert.Equal(t, len("alpha")+len("beta")+len("gamma"), r.TotalChars())
}

func TestRetrievalResult_Empty(t *testing.T) {
	var r RetrievalResult
	assert.True(t, r.Empty())
	assert.Equal(t, 0.0, r.MeanScore())
	assert.Empty(t, r.SourceIDs())
}
