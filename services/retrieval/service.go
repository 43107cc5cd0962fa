package retrieval

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
	"github.com/harshadeepak1/agentic-rag-system/services/store"
)

// Options configures one retrieval invocation. Passed by value so every
// call is deterministic and independently testable.
type Options struct {
	// TopK is the candidate count fetched from the context store
	TopK int

	// RerankK is the final context set size after reranking
	RerankK int

	// MaxContextChars caps the total assembled context length
	MaxContextChars int

	// DiversityMargin is the score slack within which a distinct-source
	// candidate below the cutoff replaces a same-source one above it
	DiversityMargin float64
}

// DefaultOptions returns the baseline retrieval parameters
func DefaultOptions() Options {
	return Options{
		TopK:            5,
		RerankK:         3,
		MaxContextChars: 3000,
		DiversityMargin: 0.05,
	}
}

// Engine executes similarity search, reranks candidates, and assembles a
// bounded context window. Shared by all specialists; only the metadata
// filter differs per category.
type Engine struct {
	embedder providers.Embedder
	store    store.ContextStore
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine
func NewEngine(embedder providers.Embedder, contextStore store.ContextStore, logger *zap.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		store:    contextStore,
		logger:   logger,
	}
}

// Retrieve embeds the query, searches the context store, and returns the
// reranked, length-capped context set.
//
// An unreachable store or failed embedding yields ErrRetrievalUnavailable;
// the caller degrades to an empty result rather than aborting the pipeline.
// An empty corpus yields an empty result and no error.
func (e *Engine) Retrieve(ctx context.Context, query models.Query, filter *models.MetadataFilter, opts Options) (models.RetrievalResult, error) {
	if opts.TopK <= 0 {
		return models.RetrievalResult{}, services.ErrInvalidTopK
	}
	if opts.RerankK <= 0 || opts.RerankK > opts.TopK {
		opts.RerankK = opts.TopK
	}

	vectors, err := e.embedder.Embed(ctx, []string{query.Text}, providers.EmbedModeQuery)
	if err != nil {
		e.logger.Warn("query embedding failed", zap.Error(err))
		return models.RetrievalResult{}, services.WrapError(services.ErrorTypeRetrievalUnavailable, "query embedding failed", err)
	}
	if len(vectors) != 1 {
		return models.RetrievalResult{}, services.WrapError(services.ErrorTypeRetrievalUnavailable, "embedding gateway returned no vector", nil)
	}

	candidates, err := e.store.Search(ctx, vectors[0], opts.TopK, filter)
	if err != nil {
		e.logger.Warn("context store search failed", zap.Error(err))
		return models.RetrievalResult{}, services.WrapError(services.ErrorTypeRetrievalUnavailable, "context store search failed", err)
	}
	if len(candidates) == 0 {
		return models.RetrievalResult{}, nil
	}

	selected := rerank(candidates, opts.RerankK, opts.DiversityMargin)
	selected = capContextLength(selected, opts.MaxContextChars)

	e.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
	)

	return models.RetrievalResult{Chunks: selected}, nil
}

// rerank sorts candidates by score descending (ties broken by recency, so
// identical inputs always produce identical output) and selects the top
// rerankK, preferring source diversity: when the selection holds two chunks
// from one source document and a distinct-source candidate below the cutoff
// scores within margin of the rerankK-th chunk, the distinct-source
// candidate replaces the weakest duplicate.
func rerank(candidates []models.ScoredChunk, rerankK int, margin float64) []models.ScoredChunk {
	sorted := make([]models.ScoredChunk, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Chunk.Seq > sorted[j].Chunk.Seq
	})

	if rerankK > len(sorted) {
		rerankK = len(sorted)
	}
	selected := sorted[:rerankK]
	rest := sorted[rerankK:]

	if len(rest) == 0 || !hasDuplicateSource(selected) {
		return selected
	}

	cutoff := selected[len(selected)-1].Score
	selectedSources := make(map[string]bool, len(selected))
	for _, sc := range selected {
		selectedSources[sc.Chunk.SourceID] = true
	}

	for _, cand := range rest {
		if selectedSources[cand.Chunk.SourceID] {
			continue
		}
		if cutoff-cand.Score > margin {
			break // sorted desc, nothing further qualifies
		}

		dupIdx := weakestDuplicateIndex(selected)
		if dupIdx < 0 {
			break
		}
		selected[dupIdx] = cand

		sort.SliceStable(selected, func(i, j int) bool {
			if selected[i].Score != selected[j].Score {
				return selected[i].Score > selected[j].Score
			}
			return selected[i].Chunk.Seq > selected[j].Chunk.Seq
		})

		selectedSources = make(map[string]bool, len(selected))
		for _, sc := range selected {
			selectedSources[sc.Chunk.SourceID] = true
		}
		if !hasDuplicateSource(selected) {
			break
		}
		cutoff = selected[len(selected)-1].Score
	}

	return selected
}

func hasDuplicateSource(chunks []models.ScoredChunk) bool {
	seen := make(map[string]bool, len(chunks))
	for _, sc := range chunks {
		if seen[sc.Chunk.SourceID] {
			return true
		}
		seen[sc.Chunk.SourceID] = true
	}
	return false
}

// weakestDuplicateIndex returns the index of the lowest-scored chunk whose
// source appears more than once in the selection, or -1.
func weakestDuplicateIndex(chunks []models.ScoredChunk) int {
	counts := make(map[string]int, len(chunks))
	for _, sc := range chunks {
		counts[sc.Chunk.SourceID]++
	}
	for i := len(chunks) - 1; i >= 0; i-- {
		if counts[chunks[i].Chunk.SourceID] > 1 {
			return i
		}
	}
	return -1
}

// capContextLength drops the lowest-similarity chunks until the combined
// content length fits under maxChars. Input is ordered by score descending,
// so dropping from the tail removes the weakest context first.
func capContextLength(chunks []models.ScoredChunk, maxChars int) []models.ScoredChunk {
	if maxChars <= 0 {
		return chunks
	}

	total := 0
	for _, sc := range chunks {
		total += len(sc.Chunk.Content)
	}
	for len(chunks) > 0 && total > maxChars {
		total -= len(chunks[len(chunks)-1].Chunk.Content)
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}
