package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
)

// PostgresStore is a ContextStore backed by Postgres with the pgvector
// extension. Cosine similarity is computed in SQL via the <=> distance
// operator (similarity = 1 - distance).
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a store over an open database handle
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the chunks table and index if they do not exist. dim is
// the embedding dimension, fixed per deployment.
func (s *PostgresStore) Migrate(ctx context.Context, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			content TEXT NOT NULL,
			source_id TEXT NOT NULL,
			position INT NOT NULL,
			total_chunks INT NOT NULL,
			doc_type TEXT NOT NULL,
			seq BIGSERIAL
		)`, dim),
		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING ivfflat (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate chunks table: %w", err)
		}
	}

	s.logger.Info("context store schema ready", zap.Int("dim", dim))
	return nil
}

// Upsert inserts or replaces chunks by ID
func (s *PostgresStore) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	query := `
		INSERT INTO chunks (id, embedding, content, source_id, position, total_chunks, doc_type)
		VALUES ($1, $2::vector, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			source_id = EXCLUDED.source_id,
			position = EXCLUDED.position,
			total_chunks = EXCLUDED.total_chunks,
			doc_type = EXCLUDED.doc_type
	`

	for i, ch := range chunks {
		_, err := s.db.ExecContext(ctx, query,
			ch.ID,
			vectorLiteral(vectors[i]),
			ch.Content,
			ch.SourceID,
			ch.Position,
			ch.TotalChunks,
			string(ch.DocType),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", ch.ID, err)
		}
	}

	s.logger.Debug("chunks upserted", zap.Int("count", len(chunks)))
	return nil
}

// Search returns up to topK chunks by cosine similarity, descending, with
// similarity ties broken by recency (higher seq first).
func (s *PostgresStore) Search(ctx context.Context, vector []float64, topK int, filter *models.MetadataFilter) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, content, source_id, position, total_chunks, doc_type, seq,
		       1 - (embedding <=> $1::vector) AS score
		FROM chunks
		WHERE ($2 OR doc_type = ANY($3))
		ORDER BY score DESC, seq DESC
		LIMIT $4
	`

	unfiltered := filter == nil || len(filter.DocTypes) == 0
	docTypes := make([]string, 0)
	if !unfiltered {
		for _, dt := range filter.DocTypes {
			docTypes = append(docTypes, string(dt))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, vectorLiteral(vector), unfiltered, pq.Array(docTypes), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var sc models.ScoredChunk
		var docType string
		if err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.Content,
			&sc.Chunk.SourceID,
			&sc.Chunk.Position,
			&sc.Chunk.TotalChunks,
			&docType,
			&sc.Chunk.Seq,
			&sc.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		sc.Chunk.DocType = models.DocType(docType)
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}

	return results, nil
}

// Count returns the number of stored chunks
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// vectorLiteral renders a pgvector input literal, e.g. [0.1,0.2,0.3]
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
