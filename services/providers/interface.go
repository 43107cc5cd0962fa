package providers

import (
	"context"
	"time"
)

// EmbedMode selects how the embedding model treats the input. Some models
// embed queries and documents asymmetrically, so the two modes are not
// interchangeable.
type EmbedMode string

const (
	// EmbedModeDocument is used when indexing corpus text.
	EmbedModeDocument EmbedMode = "document"

	// EmbedModeQuery is used when embedding an incoming search query.
	EmbedModeQuery EmbedMode = "query"
)

// Embedder turns text into fixed-dimension vectors. Implementations must be
// deterministic for identical input and mode.
type Embedder interface {
	// Embed returns one vector per input text, all of the same dimension.
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float64, error)
}

// Generator is a stateless, single-turn text generation model. No tool
// calling, no conversation memory.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Config holds common configuration for provider adapters
type Config struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// EmbedModel is the embedding model identifier
	EmbedModel string

	// GenModel is the generation model identifier
	GenModel string

	// EmbedTimeout bounds a single embedding call
	EmbedTimeout time.Duration

	// GenTimeout bounds a single generation call
	GenTimeout time.Duration

	// MaxBatchSize caps how many texts go into one embedding request
	MaxBatchSize int

	// RetryBaseDelay is the backoff base for the single transient retry
	RetryBaseDelay time.Duration
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://api.openai.com/v1",
		EmbedModel:     "text-embedding-3-small",
		GenModel:       "gpt-4o-mini",
		EmbedTimeout:   5 * time.Second,
		GenTimeout:     45 * time.Second,
		MaxBatchSize:   64,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// ProviderError represents an error from a model provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried. Transient
	// failures (network, 429, 5xx) are retryable; malformed requests and
	// auth failures are not.
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if provErr, ok := err.(*ProviderError); ok {
		return provErr.Retryable
	}
	return false
}
