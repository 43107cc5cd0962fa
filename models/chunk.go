package models

// DocType classifies the origin format of a chunk's source document.
type DocType string

const (
	DocTypePDF         DocType = "pdf"
	DocTypeWord        DocType = "docx"
	DocTypeSlides      DocType = "pptx"
	DocTypeText        DocType = "txt"
	DocTypeMarkdown    DocType = "md"
	DocTypeSpreadsheet DocType = "xlsx"
	DocTypeCSV         DocType = "csv"
)

// MetadataFilter restricts retrieval to chunks whose document type is in
// DocTypes. An empty filter matches everything.
type MetadataFilter struct {
	DocTypes []DocType `json:"doc_types,omitempty"`
}

// Matches reports whether a chunk with the given doc type passes the filter.
// A nil filter matches everything.
func (f *MetadataFilter) Matches(dt DocType) bool {
	if f == nil || len(f.DocTypes) == 0 {
		return true
	}
	for _, t := range f.DocTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Chunk is the atomic retrievable unit: a text span plus its provenance.
// Chunks are created at ingestion and immutable once stored.
type Chunk struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	SourceID    string  `json:"source_id"`
	Position    int     `json:"position"`
	TotalChunks int     `json:"total_chunks"`
	DocType     DocType `json:"doc_type"`

	// Seq is the store-assigned insertion sequence number. Higher means
	// more recent. Used to break similarity ties deterministically.
	Seq int64 `json:"seq"`
}

// ScoredChunk pairs a chunk with its cosine similarity to the query.
// Scores are raw cosine values in [-1, 1].
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
