package domain

import (
	"fmt"
	"strings"
	"time"
)

// Confidence represents the reliability label attached to a curated entry
// or a produced answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels for tie-breaking (high > medium > low).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// QAEntry represents one curated question/answer fact with provenance.
type QAEntry struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Context    string     `json:"context"`
	Source     string     `json:"source"`
	DocID      string     `json:"doc_id"`
	Category   string     `json:"category"`
	Confidence Confidence `json:"confidence"`
	AddedAt    *time.Time `json:"added_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// NewQAEntry creates a new QAEntry instance
func NewQAEntry(question, answer, context, category, source, docID string, confidence Confidence) *QAEntry {
	now := time.Now().UTC()
	return &QAEntry{
		Question:   question,
		Answer:     answer,
		Context:    context,
		Source:     source,
		DocID:      docID,
		Category:   category,
		Confidence: confidence,
		AddedAt:    &now,
	}
}

// NormalizeQuestion returns the canonical form of a question used for
// uniqueness checks: case-folded and trimmed.
func NormalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// NormalizedQuestion returns the entry's question in canonical form.
func (e *QAEntry) NormalizedQuestion() string {
	return NormalizeQuestion(e.Question)
}

// ValidateQAEntry validates a QAEntry instance
func ValidateQAEntry(e *QAEntry) error {
	if e == nil {
		return fmt.Errorf("qa entry cannot be nil")
	}

	if strings.TrimSpace(e.Question) == "" {
		return ErrEmptyQuestion
	}

	if strings.TrimSpace(e.Answer) == "" {
		return ErrEmptyAnswer
	}

	if e.Category == "" {
		return NewDomainError(ErrCodeValidation, "qa entry Category is required")
	}

	if e.Source == "" {
		return NewDomainError(ErrCodeValidation, "qa entry Source is required")
	}

	if !isValidConfidence(e.Confidence) {
		return ErrInvalidConfidence
	}

	return nil
}

// isValidConfidence checks if a Confidence is valid
func isValidConfidence(c Confidence) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}
