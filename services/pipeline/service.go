package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services/agents"
	"github.com/harshadeepak1/agentic-rag-system/services/router"
)

// Service orchestrates the query pipeline: classification, dispatch to the
// matching specialist, and result assembly. Every request is independent
// and request-local; concurrent invocations need no coordination.
type Service struct {
	router   *router.Service
	registry *agents.Registry
	logger   *zap.Logger
}

// NewService creates the pipeline orchestrator
func NewService(routerService *router.Service, registry *agents.Registry, logger *zap.Logger) *Service {
	return &Service{
		router:   routerService,
		registry: registry,
		logger:   logger,
	}
}

// Process answers one query. It always returns a valid AnswerResult: every
// stage failure is converted into a degraded result, no error crosses the
// pipeline boundary.
func (s *Service) Process(ctx context.Context, query models.Query) *models.AnswerResult {
	requestID := uuid.New().String()
	start := time.Now()

	s.logger.Info("starting query pipeline",
		zap.String("request_id", requestID),
		zap.Int("query_chars", len(query.Text)))

	// Step 1: classify into a specialist category (total, never fails)
	category := s.router.Classify(ctx, query)
	s.logger.Debug("step 1: query classified",
		zap.String("request_id", requestID),
		zap.String("category", category.String()))

	// Step 2: dispatch to the specialist (retrieval, synthesis,
	// confidence all happen inside; failures degrade, never propagate)
	specialist := s.registry.Get(category)
	result := specialist.Answer(ctx, query)

	result.RequestID = requestID
	result.LatencyMs = int(time.Since(start).Milliseconds())

	s.logger.Info("query pipeline completed",
		zap.String("request_id", requestID),
		zap.String("category", result.Category.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Int("citations", len(result.Citations)),
		zap.Bool("degraded", result.Degraded),
		zap.Int("latency_ms", result.LatencyMs))

	return result
}
