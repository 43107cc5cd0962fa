package synthesis

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/models"
	"github.com/harshadeepak1/agentic-rag-system/services"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
)

const answerTemperature = 0.3

// citationPattern matches the inline source markers the prompt instructs
// the model to emit, e.g. [Source: report.pdf]
var citationPattern = regexp.MustCompile(`\[Source:\s*([^\]]+)\]`)

// Config holds synthesizer settings
type Config struct {
	// MaxAttempts is the total call budget: the first attempt plus one
	// retry on transient failure.
	MaxAttempts int

	// RetryBaseDelay is the backoff base; the delay doubles per attempt.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the baseline synthesizer settings
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    2,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Service builds a prompt from the assembled context and the query,
// invokes the generation model, and parses structured output.
type Service struct {
	generator providers.Generator
	config    Config
	logger    *zap.Logger
}

// NewService creates a synthesizer
func NewService(generator providers.Generator, config Config, logger *zap.Logger) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 2
	}
	return &Service{
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Synthesize generates an answer grounded in the retrieved context and
// returns it with the cited source identifiers.
//
// The model is invoked once per attempt; a transient failure earns exactly
// one retry with doubled backoff, a permanent failure none. When the
// attempt budget is exhausted the returned error is a GenerationFailure and
// the caller degrades to a labeled empty answer. Citations the model
// invented (not present in the supplied context) are silently dropped.
func (s *Service) Synthesize(ctx context.Context, query models.Query, retrieved models.RetrievalResult, category models.AgentCategory) (string, []string, error) {
	prompt := buildPrompt(query, retrieved, category)

	var output string
	var lastErr error
	delay := s.config.RetryBaseDelay

	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			s.logger.Debug("retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", nil, services.WrapError(services.ErrorTypeGenerationFailure, "generation canceled", ctx.Err())
			}
			delay *= 2
		}

		output, lastErr = s.generator.Generate(ctx, prompt, answerTemperature)
		if lastErr == nil {
			break
		}

		s.logger.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if isPermanent(lastErr) {
			break
		}
	}

	if lastErr != nil {
		return "", nil, services.WrapError(services.ErrorTypeGenerationFailure, "generation failed after retry", lastErr)
	}

	answer, citations := parseOutput(output, retrieved)
	return answer, citations, nil
}

// isPermanent reports whether the error is explicitly marked
// non-retryable by the provider (malformed request, auth failure).
// Unclassified errors are treated as transient.
func isPermanent(err error) bool {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return !provErr.Retryable
	}
	return false
}

// parseOutput extracts the answer body and the cited sources. Source
// markers stay inline in the answer text; the citation list is the ordered,
// deduplicated set of markers that actually refer to supplied context.
// Never trust the model to only cite what it was given.
func parseOutput(output string, retrieved models.RetrievalResult) (string, []string) {
	answer := strings.TrimSpace(output)

	var citations []string
	seen := make(map[string]bool)
	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		sourceID := strings.TrimSpace(match[1])
		if seen[sourceID] {
			continue
		}
		if !retrieved.HasSource(sourceID) {
			continue // fabricated citation, filtered
		}
		seen[sourceID] = true
		citations = append(citations, sourceID)
	}

	return answer, citations
}
