package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/harshadeepak1/agentic-rag-system/models"
)

// MemoryStore is an in-memory ContextStore. Suitable for development and
// tests; the production path uses the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []memoryEntry
	nextSeq int64
}

type memoryEntry struct {
	chunk  models.Chunk
	vector []float64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Upsert inserts or replaces chunks by ID. Replaced chunks keep their
// original sequence number so recency ordering stays stable.
func (s *MemoryStore) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ch := range chunks {
		if idx, ok := s.indexOf(ch.ID); ok {
			ch.Seq = s.entries[idx].chunk.Seq
			s.entries[idx] = memoryEntry{chunk: ch, vector: vectors[i]}
			continue
		}
		s.nextSeq++
		ch.Seq = s.nextSeq
		s.entries = append(s.entries, memoryEntry{chunk: ch, vector: vectors[i]})
	}

	return nil
}

// Search scans the whole corpus and returns the topK most similar chunks.
// Linear scan is fine at in-memory scale.
func (s *MemoryStore) Search(ctx context.Context, vector []float64, topK int, filter *models.MetadataFilter) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.ScoredChunk, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Matches(e.chunk.DocType) {
			continue
		}
		results = append(results, models.ScoredChunk{
			Chunk: e.chunk,
			Score: cosine(vector, e.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq > results[j].Chunk.Seq
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Count returns the number of stored chunks
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear removes all chunks
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// indexOf requires s.mu held
func (s *MemoryStore) indexOf(id string) (int, bool) {
	for i, e := range s.entries {
		if e.chunk.ID == id {
			return i, true
		}
	}
	return 0, false
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
