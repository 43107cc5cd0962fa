package models

// Query is one pipeline invocation's input. It is request-local and never
// shared across requests.
type Query struct {
	Text string `json:"text"`

	// Filter optionally narrows retrieval beyond the specialist's own
	// bias, e.g. a caller restricting to spreadsheets.
	Filter *MetadataFilter `json:"filter,omitempty"`
}

// RetrievalResult is the ordered context set produced by retrieval and
// reranking: highest similarity first, bounded in count and total length.
type RetrievalResult struct {
	Chunks []ScoredChunk `json:"chunks"`
}

// Empty reports whether no context was retrieved.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// SourceIDs returns the distinct source identifiers in rank order.
func (r RetrievalResult) SourceIDs() []string {
	seen := make(map[string]bool, len(r.Chunks))
	ids := make([]string, 0, len(r.Chunks))
	for _, sc := range r.Chunks {
		if !seen[sc.Chunk.SourceID] {
			seen[sc.Chunk.SourceID] = true
			ids = append(ids, sc.Chunk.SourceID)
		}
	}
	return ids
}

// HasSource reports whether any chunk in the result came from sourceID.
func (r RetrievalResult) HasSource(sourceID string) bool {
	for _, sc := range r.Chunks {
		if sc.Chunk.SourceID == sourceID {
			return true
		}
	}
	return false
}

// MeanScore returns the average similarity across the result, 0 when empty.
func (r RetrievalResult) MeanScore() float64 {
	if len(r.Chunks) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range r.Chunks {
		sum += sc.Score
	}
	return sum / float64(len(r.Chunks))
}

// TotalChars returns the combined content length of all chunks.
func (r RetrievalResult) TotalChars() int {
	var n int
	for _, sc := range r.Chunks {
		n += len(sc.Chunk.Content)
	}
	return n
}
