package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/utils"
)

// QueryService defines the interface for answering queries
type QueryService interface {
	// Process answers one query; it always returns a valid result
	Process(ctx context.Context, query models.Query) *models.AnswerResult
}

// QueryRequest represents a query request body
type QueryRequest struct {
	Query    string   `json:"query" validate:"required,min=1,max=4000"`
	DocTypes []string `json:"doc_types,omitempty" validate:"omitempty,dive,oneof=pdf docx pptx txt md xlsx csv"`
}

// QueryHandler handles query-related HTTP requests
type QueryHandler struct {
	service QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(service QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleQuery handles POST /api/v1/query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	query := models.Query{Text: req.Query}
	if len(req.DocTypes) > 0 {
		filter := &models.MetadataFilter{DocTypes: make([]models.DocType, 0, len(req.DocTypes))}
		for _, dt := range req.DocTypes {
			filter.DocTypes = append(filter.DocTypes, models.DocType(dt))
		}
		query.Filter = filter
	}

	result := h.service.Process(ctx, query)

	h.logger.Info("query answered",
		zap.String("request_id", requestID),
		zap.String("category", result.Category.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("degraded", result.Degraded))

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
