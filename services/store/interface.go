package store

import (
	"context"

	"github.com/harshadeepak1/agentic-rag-system/models"
)

// ContextStore is a similarity-search index over (vector, text, metadata)
// triples. Search is cosine-based and may return fewer than topK results
// when the corpus is smaller; that is not an error.
type ContextStore interface {
	// Upsert inserts or replaces chunks with their embeddings. vectors[i]
	// is the embedding of chunks[i]. Used by the ingestion path.
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error

	// Search returns up to topK chunks ordered by cosine similarity to
	// the query vector, descending, restricted by the optional filter.
	Search(ctx context.Context, vector []float64, topK int, filter *models.MetadataFilter) ([]models.ScoredChunk, error)

	// Count returns the number of chunks currently stored.
	Count(ctx context.Context) (int, error)
}
