package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
)

const classificationTemperature = 0.1

const classificationPromptTemplate = `Analyze the following user query and determine which type of specialist should handle it.

Available specialist types:
1. document - questions about prose content: PDFs, Word documents, presentations, text files, policies
2. tabular - questions about spreadsheet data, tables, statistics, or numerical analysis
3. general - general questions that do not target a specific document class

Query: %s

Guidelines:
- Choose 'tabular' if the query mentions data, numbers, statistics, tables, or sheets
- Choose 'document' if the query asks about text content, policies, presentations, or written information
- Choose 'general' when the type is unclear

Respond with ONLY one word: document, tabular, or general`

// Service classifies an incoming query into exactly one specialist
// category. Classification is total: it always resolves to a category,
// falling back to rules and finally to general, and never returns an error
// to the caller.
type Service struct {
	generator providers.Generator
	logger    *zap.Logger
}

// NewService creates a router service
func NewService(generator providers.Generator, logger *zap.Logger) *Service {
	return &Service{
		generator: generator,
		logger:    logger,
	}
}

// Classify resolves the query to a category.
//
// Two-stage decision: the keyword rules run first as a fast deterministic
// signal, then a single low-temperature model call. When both produce an
// answer and disagree, the model wins (it sees full semantic context). When
// the model call fails, the rule result stands. When both are inconclusive,
// the result is general. Deterministic given identical inputs and an
// identical generator.
func (s *Service) Classify(ctx context.Context, query models.Query) models.AgentCategory {
	ruleCategory, ruleOK := classifyByRules(query.Text)

	modelCategory, err := s.classifyByModel(ctx, query.Text)
	if err == nil {
		if ruleOK && string(modelCategory) != ruleCategory {
			s.logger.Debug("classifier disagreement, model wins",
				zap.String("rules", ruleCategory),
				zap.String("model", modelCategory.String()),
			)
		}
		return modelCategory
	}

	s.logger.Warn("model classification failed, falling back to rules", zap.Error(err))
	if ruleOK {
		return models.AgentCategory(ruleCategory)
	}

	s.logger.Debug("rule classification inconclusive, defaulting to general",
		zap.String("query", query.Text))
	return models.CategoryGeneral
}

func (s *Service) classifyByModel(ctx context.Context, text string) (models.AgentCategory, error) {
	prompt := fmt.Sprintf(classificationPromptTemplate, text)

	response, err := s.generator.Generate(ctx, prompt, classificationTemperature)
	if err != nil {
		return "", err
	}

	category, ok := models.ParseCategory(response)
	if !ok {
		return "", fmt.Errorf("unrecognized classification response: %q", response)
	}
	return category, nil
}
