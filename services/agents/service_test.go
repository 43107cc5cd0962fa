package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services/confidence"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
	"github.com/harshadeepak1/agentic-rag-system/services/retrieval"
	"github.com/harshadeepak1/agentic-rag-system/services/synthesis"
)

// MockEmbedder is a mock implementation of providers.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string, mode providers.EmbedMode) ([][]float64, error) {
	args := m.Called(ctx, texts, mode)
	if v := args.Get(0); v != nil {
		return v.([][]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockStore is a mock implementation of store.ContextStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error {
	args := m.Called(ctx, chunks, vectors)
	return args.Error(0)
}

func (m *MockStore) Search(ctx context.Context, vector []float64, topK int, filter *models.MetadataFilter) ([]models.ScoredChunk, error) {
	args := m.Called(ctx, vector, topK, filter)
	if v := args.Get(0); v != nil {
		return v.([]models.ScoredChunk), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockGenerator is a mock implementation of providers.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

// MockProcessor is a mock implementation of DocumentProcessor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) RawTable(ctx context.Context, sourceID string) (string, error) {
	args := m.Called(ctx, sourceID)
	return args.String(0), args.Error(1)
}

type fixture struct {
	embedder  *MockEmbedder
	store     *MockStore
	generator *MockGenerator
	processor *MockProcessor
	registry  *Registry
}

func newFixture() *fixture {
	f := &fixture{
		embedder:  new(MockEmbedder),
		store:     new(MockStore),
		generator: new(MockGenerator),
		processor: new(MockProcessor),
	}

	logger := zap.NewNop()
	engine := retrieval.NewEngine(f.embedder, f.store, logger)
	synthCfg := synthesis.DefaultConfig()
	synthCfg.RetryBaseDelay = time.Millisecond
	synthesizer := synthesis.NewService(f.generator, synthCfg, logger)
	estimator := confidence.NewEstimator(confidence.DefaultSparsePenalty)

	f.registry = NewRegistry(engine, synthesizer, estimator, f.processor, retrieval.DefaultOptions(), logger)
	return f
}

func tabularChunk(id, source string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{ID: id, SourceID: source, Content: "cells of " + id, DocType: models.DocTypeSpreadsheet},
		Score: score,
	}
}

func TestRegistry_Get(t *testing.T) {
	f := newFixture()

	assert.Equal(t, models.CategoryDocument, f.registry.Get(models.CategoryDocument).Category())
	assert.Equal(t, models.CategoryTabular, f.registry.Get(models.CategoryTabular).Category())
	assert.Equal(t, models.CategoryGeneral, f.registry.Get(models.CategoryGeneral).Category())
	// unknown category falls back to general
	assert.Equal(t, models.CategoryGeneral, f.registry.Get(models.AgentCategory("excel")).Category())
}

func TestSpecialist_Answer_Document(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return([][]float64{{1, 0}}, nil)
	f.store.On("Search", mock.Anything, mock.Anything, 5, mock.MatchedBy(func(filter *models.MetadataFilter) bool {
		return filter != nil && filter.Matches(models.DocTypePDF) && !filter.Matches(models.DocTypeSpreadsheet)
	})).Return([]models.ScoredChunk{
		{Chunk: models.Chunk{ID: "hr-0", SourceID: "handbook.pdf", Content: "Employees may work remotely up to 3 days per week.", DocType: models.DocTypePDF}, Score: 0.9},
	}, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("Up to 3 days per week [Source: handbook.pdf].", nil)

	result := f.registry.Get(models.CategoryDocument).Answer(context.Background(),
		models.Query{Text: "What is the remote work policy?"})

	require.NotNil(t, result)
	assert.Equal(t, models.CategoryDocument, result.Category)
	assert.Contains(t, result.Answer, "3 days")
	assert.Equal(t, []string{"handbook.pdf"}, result.Citations)
	assert.False(t, result.Degraded)
	// single chunk where three were requested: mean 0.9 with sparse penalty
	assert.InDelta(t, 0.9*0.8, result.Confidence, 1e-9)
}

func TestSpecialist_Answer_RetrievalUnavailableDegrades(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return(nil, errors.New("gateway down"))
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("Ungrounded best-effort answer.", nil)

	result := f.registry.Get(models.CategoryGeneral).Answer(context.Background(),
		models.Query{Text: "anything"})

	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Citations)
	assert.NotEmpty(t, result.Note)
	assert.NotEmpty(t, result.Answer, "synthesis still attempts an answer from the query alone")
}

func TestSpecialist_Answer_EmptyCorpus(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return([][]float64{{1, 0}}, nil)
	f.store.On("Search", mock.Anything, mock.Anything, 5, mock.Anything).
		Return([]models.ScoredChunk{}, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("I have nothing to ground this in.", nil)

	result := f.registry.Get(models.CategoryGeneral).Answer(context.Background(),
		models.Query{Text: "anything"})

	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Citations)
	assert.True(t, result.Degraded)
}

func TestSpecialist_Answer_GenerationFailureDegrades(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return([][]float64{{1, 0}}, nil)
	f.store.On("Search", mock.Anything, mock.Anything, 5, mock.Anything).
		Return([]models.ScoredChunk{tabularChunk("s-0", "sales.xlsx", 0.9)}, nil)
	f.processor.On("RawTable", mock.Anything, "sales.xlsx").Return("", nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", providers.NewProviderError("openai", "SERVER_ERROR", "boom", 500, true, nil))

	result := f.registry.Get(models.CategoryTabular).Answer(context.Background(),
		models.Query{Text: "total sales?"})

	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Answer)
	assert.Empty(t, result.Citations)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotEmpty(t, result.Note)
	// first attempt plus exactly one retry
	f.generator.AssertNumberOfCalls(t, "Generate", 2)
}

func TestSpecialist_Answer_TabularEscalation(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return([][]float64{{1, 0}}, nil)
	f.store.On("Search", mock.Anything, mock.Anything, 5, mock.Anything).
		Return([]models.ScoredChunk{tabularChunk("s-0", "sales.xlsx", 0.85)}, nil)
	f.processor.On("RawTable", mock.Anything, "sales.xlsx").
		Return("Q1,100\nQ2,150\nQ3,210", nil)

	var gotPrompt string
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotPrompt = args.String(1) }).
		Return("Q3 totals 210 [Source: sales.xlsx].", nil)

	result := f.registry.Get(models.CategoryTabular).Answer(context.Background(),
		models.Query{Text: "What is the Q3 total?"})

	assert.Contains(t, gotPrompt, "Q3,210", "raw cell data reaches the synthesis prompt")
	assert.Equal(t, []string{"sales.xlsx"}, result.Citations)
	// escalated chunk shares its source and is excluded from confidence
	assert.InDelta(t, 0.85*0.8, result.Confidence, 1e-9)
	f.processor.AssertExpectations(t)
}

func TestSpecialist_Answer_EscalationFailureIsSoft(t *testing.T) {
	f := newFixture()

	f.embedder.On("Embed", mock.Anything, mock.Anything, providers.EmbedModeQuery).
		Return([][]float64{{1, 0}}, nil)
	f.store.On("Search", mock.Anything, mock.Anything, 5, mock.Anything).
		Return([]models.ScoredChunk{tabularChunk("s-0", "sales.xlsx", 0.85)}, nil)
	f.processor.On("RawTable", mock.Anything, "sales.xlsx").
		Return("", errors.New("processor offline"))
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("Answer without raw data [Source: sales.xlsx].", nil)

	result := f.registry.Get(models.CategoryTabular).Answer(context.Background(),
		models.Query{Text: "total sales?"})

	assert.False(t, result.Degraded)
	assert.Equal(t, []string{"sales.xlsx"}, result.Citations)
}

func TestSpecialist_RetrievalFilter_Intersection(t *testing.T) {
	f := newFixture()
	s := f.registry.Get(models.CategoryDocument)

	// caller narrows to txt within the document bias
	got := s.retrievalFilter(models.Query{Filter: &models.MetadataFilter{
		DocTypes: []models.DocType{models.DocTypeText, models.DocTypeSpreadsheet},
	}})
	require.NotNil(t, got)
	assert.Equal(t, []models.DocType{models.DocTypeText}, got.DocTypes)

	// disjoint caller filter keeps the category bias
	got = s.retrievalFilter(models.Query{Filter: &models.MetadataFilter{
		DocTypes: []models.DocType{models.DocTypeSpreadsheet},
	}})
	require.NotNil(t, got)
	assert.False(t, got.Matches(models.DocTypeSpreadsheet))
}
