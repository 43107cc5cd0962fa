package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services/confidence"
	"github.com/harshadeepak1/agentic-rag-system/services/retrieval"
	"github.com/harshadeepak1/agentic-rag-system/services/synthesis"
)

// maxRawTableChars bounds the escalated raw cell data appended to the
// tabular specialist's context.
const maxRawTableChars = 1000

// DocumentProcessor is the ingestion-time collaborator. The pipeline only
// touches it on the tabular specialist's raw-data escalation path.
type DocumentProcessor interface {
	// RawTable returns the raw cell data of a spreadsheet source as text.
	RawTable(ctx context.Context, sourceID string) (string, error)
}

// Specialist wraps one retrieval strategy and one synthesis strategy tuned
// to a document class. The three variants differ only in their retrieval
// filter and prompt template; everything else is the shared pipeline.
type Specialist struct {
	category    models.AgentCategory
	engine      *retrieval.Engine
	synthesizer *synthesis.Service
	estimator   *confidence.Estimator
	processor   DocumentProcessor // nil except for tabular
	opts        retrieval.Options
	logger      *zap.Logger
}

// Registry holds the closed set of specialists
type Registry struct {
	specialists map[models.AgentCategory]*Specialist
}

// NewRegistry builds the three specialists over shared stages. processor
// may be nil; the tabular specialist then skips raw-data escalation.
func NewRegistry(
	engine *retrieval.Engine,
	synthesizer *synthesis.Service,
	estimator *confidence.Estimator,
	processor DocumentProcessor,
	opts retrieval.Options,
	logger *zap.Logger,
) *Registry {
	specialists := make(map[models.AgentCategory]*Specialist, 3)
	for _, category := range models.Categories() {
		s := &Specialist{
			category:    category,
			engine:      engine,
			synthesizer: synthesizer,
			estimator:   estimator,
			opts:        opts,
			logger:      logger.With(zap.String("specialist", category.String())),
		}
		if category == models.CategoryTabular {
			s.processor = processor
		}
		specialists[category] = s
	}
	return &Registry{specialists: specialists}
}

// Get returns the specialist for a category, falling back to general for
// anything unrecognized.
func (r *Registry) Get(category models.AgentCategory) *Specialist {
	if s, ok := r.specialists[category]; ok {
		return s
	}
	return r.specialists[models.CategoryGeneral]
}

// Category returns the document class this specialist serves
func (s *Specialist) Category() models.AgentCategory {
	return s.category
}

// Answer runs retrieval, synthesis, and confidence estimation for one
// query. Failures in any stage degrade the result; Answer never returns an
// error to the caller.
func (s *Specialist) Answer(ctx context.Context, query models.Query) *models.AnswerResult {
	filter := s.retrievalFilter(query)

	retrieved, err := s.engine.Retrieve(ctx, query, filter, s.opts)
	if err != nil {
		// degrade to an empty context; synthesis still attempts an
		// answer from the query alone, with zero retrieval confidence
		s.logger.Warn("retrieval degraded to empty context", zap.Error(err))
		retrieved = models.RetrievalResult{}
	}

	synthesisInput := s.maybeEscalate(ctx, query, retrieved)

	answer, citations, err := s.synthesizer.Synthesize(ctx, query, synthesisInput, s.category)
	if err != nil {
		s.logger.Warn("synthesis failed, returning degraded result", zap.Error(err))
		return &models.AnswerResult{
			Answer:     "",
			Citations:  []string{},
			Confidence: 0,
			Category:   s.category,
			Degraded:   true,
			Note:       "Answer generation failed. Please try again.",
		}
	}

	result := &models.AnswerResult{
		Answer:     answer,
		Citations:  citations,
		Confidence: s.estimator.Estimate(retrieved, s.opts.RerankK),
		Category:   s.category,
	}
	if citations == nil {
		result.Citations = []string{}
	}
	if retrieved.Empty() {
		result.Degraded = true
		result.Note = "No supporting context was found; this answer is not grounded in any uploaded document."
	}
	return result
}

// retrievalFilter merges the specialist's category bias with any caller
// filter. A caller filter narrows further; it never widens the bias.
func (s *Specialist) retrievalFilter(query models.Query) *models.MetadataFilter {
	bias := s.category.RetrievalFilter()
	if query.Filter == nil || len(query.Filter.DocTypes) == 0 {
		return bias
	}
	if bias == nil {
		return query.Filter
	}

	var intersection []models.DocType
	for _, dt := range query.Filter.DocTypes {
		if bias.Matches(dt) {
			intersection = append(intersection, dt)
		}
	}
	if len(intersection) == 0 {
		return bias
	}
	return &models.MetadataFilter{DocTypes: intersection}
}

// maybeEscalate fetches raw cell data for the tabular specialist's best
// match and appends it to the synthesis context. The extra chunk shares the
// source identifier of an already-retrieved chunk, so the citation
// invariant is unaffected, and it is excluded from confidence estimation.
func (s *Specialist) maybeEscalate(ctx context.Context, query models.Query, retrieved models.RetrievalResult) models.RetrievalResult {
	if s.processor == nil || s.category != models.CategoryTabular || retrieved.Empty() {
		return retrieved
	}

	top := retrieved.Chunks[0]
	raw, err := s.processor.RawTable(ctx, top.Chunk.SourceID)
	if err != nil {
		s.logger.Debug("raw table escalation failed", zap.Error(err))
		return retrieved
	}
	if raw == "" {
		return retrieved
	}
	if len(raw) > maxRawTableChars {
		raw = raw[:maxRawTableChars]
	}

	escalated := models.RetrievalResult{Chunks: make([]models.ScoredChunk, len(retrieved.Chunks), len(retrieved.Chunks)+1)}
	copy(escalated.Chunks, retrieved.Chunks)
	escalated.Chunks = append(escalated.Chunks, models.ScoredChunk{
		Chunk: models.Chunk{
			ID:       top.Chunk.ID + "-raw",
			Content:  raw,
			SourceID: top.Chunk.SourceID,
			DocType:  top.Chunk.DocType,
		},
		Score: top.Score,
	})
	return escalated
}
