package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a pipeline error
type ErrorType string

const (
	ErrorTypeClassificationFallback ErrorType = "classification_fallback"
	ErrorTypeRetrievalUnavailable   ErrorType = "retrieval_unavailable"
	ErrorTypeGenerationFailure      ErrorType = "generation_failure"
	ErrorTypeMalformedCitation      ErrorType = "malformed_citation"
	ErrorTypeValidation             ErrorType = "validation"
	ErrorTypeInternal               ErrorType = "internal"
	ErrorTypeExternal               ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. All of these are non-fatal inside the pipeline:
// each stage catches its own failures and degrades to a valid AnswerResult.
var (
	// ErrClassificationFallback marks a routing decision that fell back to
	// the rule-based classifier or to the general category.
	ErrClassificationFallback = NewDomainError(ErrorTypeClassificationFallback, "classification fell back", nil)

	// ErrRetrievalUnavailable is returned when the context store cannot be
	// reached. The specialist degrades to an empty retrieval result.
	ErrRetrievalUnavailable = NewDomainError(ErrorTypeRetrievalUnavailable, "context store unavailable", nil)

	// ErrGenerationFailure is returned after generation retries are
	// exhausted. The synthesizer degrades to a labeled empty answer.
	ErrGenerationFailure = NewDomainError(ErrorTypeGenerationFailure, "generation failed after retry", nil)

	// ErrMalformedCitation marks a source reference the model produced
	// that was not part of the supplied context. Silently filtered.
	ErrMalformedCitation = NewDomainError(ErrorTypeMalformedCitation, "citation not in supplied context", nil)

	// Validation errors
	ErrEmptyQuery    = NewDomainError(ErrorTypeValidation, "query text cannot be empty", nil)
	ErrInvalidTopK   = NewDomainError(ErrorTypeValidation, "top_k must be positive", nil)
	ErrInvalidFilter = NewDomainError(ErrorTypeValidation, "unknown document type in filter", nil)

	// Internal / external errors
	ErrInternal            = NewDomainError(ErrorTypeInternal, "internal pipeline error", nil)
	ErrEmbeddingFailed     = NewDomainError(ErrorTypeExternal, "embedding gateway error", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeExternal, "model provider timeout", nil)
	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "model provider unavailable", nil)
)

// IsRetrievalUnavailable checks if an error is a retrieval availability error
func IsRetrievalUnavailable(err error) bool {
	return hasType(err, ErrorTypeRetrievalUnavailable)
}

// IsGenerationFailure checks if an error is an exhausted-generation error
func IsGenerationFailure(err error) bool {
	return hasType(err, ErrorTypeGenerationFailure)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsExternalError checks if an error came from an external collaborator
func IsExternalError(err error) bool {
	return hasType(err, ErrorTypeExternal)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if
// not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapExternal wraps an error as an external collaborator error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
