package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
	"github.com/harshadeepak1/agentic-rag-system/services/store"
	"github.com/harshadeepak1/agentic-rag-system/utils"
)

// chunkSize and chunkOverlap control how ingested document text is split
// into retrievable units.
const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// IngestDocument represents one document in an ingestion request
type IngestDocument struct {
	SourceID string `json:"source_id" validate:"required,min=1,max=255"`
	Content  string `json:"content" validate:"required,min=1"`
	DocType  string `json:"doc_type" validate:"required,oneof=pdf docx pptx txt md xlsx csv"`
}

// IngestRequest represents a document ingestion request body
type IngestRequest struct {
	Documents []IngestDocument `json:"documents" validate:"required,min=1,max=50,dive"`
}

// IngestResponse reports how much the ingestion stored
type IngestResponse struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// DocumentHandler handles document ingestion HTTP requests
type DocumentHandler struct {
	embedder providers.Embedder
	store    store.ContextStore
	logger   *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(embedder providers.Embedder, contextStore store.ContextStore, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		embedder: embedder,
		store:    contextStore,
		logger:   logger,
	}
}

// HandleIngest handles POST /api/v1/documents
func (h *DocumentHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req IngestRequest
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

	var chunks []models.Chunk
	var texts []string
	for _, doc := range req.Documents {
		parts := splitContent(doc.Content)
		for i, part := range parts {
			chunks = append(chunks, models.Chunk{
				ID:          fmt.Sprintf("%s-%d", doc.SourceID, i),
				Content:     part,
				SourceID:    doc.SourceID,
				Position:    i,
				TotalChunks: len(parts),
				DocType:     models.DocType(doc.DocType),
			})
			texts = append(texts, part)
		}
	}

	vectors, err := h.embedder.Embed(ctx, texts, providers.EmbedModeDocument)
	if err != nil {
		h.logger.Error("embedding failed during ingestion",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "Embedding service unavailable")
		return
	}

	if err := h.store.Upsert(ctx, chunks, vectors); err != nil {
		h.logger.Error("store upsert failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "Context store unavailable")
		return
	}

	h.logger.Info("documents ingested",
		zap.String("request_id", requestID),
		zap.Int("documents", len(req.Documents)),
		zap.Int("chunks", len(chunks)))

	if err := utils.WriteCreated(w, IngestResponse{
		Documents: len(req.Documents),
		Chunks:    len(chunks),
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// splitContent splits document text into overlapping windows. Windows break
// at whitespace when one falls close enough to the boundary.
func splitContent(content string) []string {
	content = strings.TrimSpace(content)
	if len(content) <= chunkSize {
		return []string{content}
	}

	var parts []string
	start := 0
	for start < len(content) {
		end := start + chunkSize
		if end >= len(content) {
			parts = append(parts, content[start:])
			break
		}
		// back up to the nearest whitespace so words stay intact
		cut := end
		for cut > start+chunkSize/2 && content[cut] != ' ' && content[cut] != '\n' {
			cut--
		}
		if cut == start+chunkSize/2 {
			cut = end
		}
		parts = append(parts, strings.TrimSpace(content[start:cut]))
		start = cut - chunkOverlap
		if start < 0 {
			start = 0
		}
	}
	return parts
}
