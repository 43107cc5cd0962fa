package synthesis

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
	"github.com/harshadeepak1/agentic-rag-system/services"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
)

// MockGenerator is a mock implementation of providers.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

func testContext() models.RetrievalResult {
	return models.RetrievalResult{Chunks: []models.ScoredChunk{
		{Chunk: models.Chunk{ID: "hr-0", SourceID: "handbook.pdf", Content: "Employees may work remotely up to 3 days per week."}, Score: 0.9},
		{Chunk: models.Chunk{ID: "it-0", SourceID: "it-policy.txt", Content: "VPN is required for remote access."}, Score: 0.7},
	}}
}

func newService(gen providers.Generator) *Service {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	return NewService(gen, cfg, zap.NewNop())
}

func TestSynthesize(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, answerTemperature).
		Return("Remote work is allowed up to 3 days per week [Source: handbook.pdf].", nil).Once()

	svc := newService(gen)
	answer, citations, err := svc.Synthesize(context.Background(),
		models.Query{Text: "What is the remote work policy?"}, testContext(), models.CategoryDocument)

	require.NoError(t, err)
	assert.Contains(t, answer, "3 days per week")
	assert.Equal(t, []string{"handbook.pdf"}, citations)
	gen.AssertExpectations(t)
}

func TestSynthesize_PromptContainsLabeledContext(t *testing.T) {
	var gotPrompt string
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotPrompt = args.String(1) }).
		Return("ok", nil)

	svc := newService(gen)
	_, _, err := svc.Synthesize(context.Background(),
		models.Query{Text: "remote work?"}, testContext(), models.CategoryDocument)
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "[Source: handbook.pdf]")
	assert.Contains(t, gotPrompt, "Employees may work remotely")
	assert.Contains(t, gotPrompt, "[Source: it-policy.txt]")
	assert.Contains(t, gotPrompt, "remote work?")
	assert.Contains(t, gotPrompt, "document analysis expert")
}

func TestSynthesize_FabricatedCitationsDropped(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("See [Source: handbook.pdf] and also [Source: made-up.docx].", nil)

	svc := newService(gen)
	_, citations, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, testContext(), models.CategoryGeneral)

	require.NoError(t, err)
	assert.Equal(t, []string{"handbook.pdf"}, citations)
}

func TestSynthesize_CitationsDeduplicatedInOrder(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("[Source: it-policy.txt] then [Source: handbook.pdf] then [Source: it-policy.txt] again.", nil)

	svc := newService(gen)
	_, citations, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, testContext(), models.CategoryGeneral)

	require.NoError(t, err)
	assert.Equal(t, []string{"it-policy.txt", "handbook.pdf"}, citations)
}

func TestSynthesize_RetriesOnceOnTransientFailure(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", providers.NewProviderError("openai", "RATE_LIMIT", "rate limited", 429, true, nil)).
		Twice()

	svc := newService(gen)
	_, _, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, testContext(), models.CategoryDocument)

	require.Error(t, err)
	assert.True(t, services.IsGenerationFailure(err))
	// first attempt + exactly one retry
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestSynthesize_SecondAttemptSucceeds(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection reset")).Once()
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("Recovered answer [Source: handbook.pdf].", nil).Once()

	svc := newService(gen)
	answer, citations, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, testContext(), models.CategoryDocument)

	require.NoError(t, err)
	assert.Contains(t, answer, "Recovered")
	assert.Equal(t, []string{"handbook.pdf"}, citations)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestSynthesize_NoRetryOnPermanentFailure(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", providers.NewProviderError("openai", "AUTH_ERROR", "bad key", 401, false, nil)).
		Once()

	svc := newService(gen)
	_, _, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, testContext(), models.CategoryDocument)

	require.Error(t, err)
	assert.True(t, services.IsGenerationFailure(err))
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestSynthesize_EmptyContextPrompt(t *testing.T) {
	var gotPrompt string
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotPrompt = args.String(1) }).
		Return("I have no grounding for this.", nil)

	svc := newService(gen)
	answer, citations, err := svc.Synthesize(context.Background(),
		models.Query{Text: "q"}, models.RetrievalResult{}, models.CategoryGeneral)

	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Empty(t, citations)
	assert.Contains(t, gotPrompt, "No supporting context was retrieved")
}

func TestParseOutput_NoMarkers(t *testing.T) {
	answer, citations := parseOutput("Plain answer with no markers.", testContext())
	assert.Equal(t, "Plain answer with no markers.", answer)
	assert.Empty(t, citations)
}
