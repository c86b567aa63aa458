package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeDuplicate     = "DUPLICATE_QUESTION"
	ErrCodeRetrieval     = "RETRIEVAL_UNAVAILABLE"
	ErrCodeGeneration    = "GENERATION_FAILURE"
	ErrCodePersistence   = "PERSISTENCE_FAILURE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidConfidence    = NewDomainError(ErrCodeValidation, "invalid confidence level")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyAnswer          = NewDomainError(ErrCodeValidation, "answer cannot be empty")
)

// Store errors
var (
	ErrEntryNotFound     = NewDomainError(ErrCodeNotFound, "qa entry not found")
	ErrCategoryNotFound  = NewDomainError(ErrCodeNotFound, "category not found")
	ErrDuplicateQuestion = NewDomainError(ErrCodeDuplicate, "an entry with this question already exists")
)

// Collaborator errors
var (
	ErrRetrievalUnavailable = NewDomainError(ErrCodeRetrieval, "retrieval backend unavailable")
	ErrGenerationFailed     = NewDomainError(ErrCodeGeneration, "answer generation failed")
)

// Persistence errors
var (
	ErrBackupFailed  = NewDomainError(ErrCodePersistence, "failed to back up knowledge file")
	ErrPersistFailed = NewDomainError(ErrCodePersistence, "failed to write knowledge file")
	ErrLoadFailed    = NewDomainError(ErrCodePersistence, "failed to load knowledge file")
)
