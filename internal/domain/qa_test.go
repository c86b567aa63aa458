package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceConstants(t *testing.T) {
	tests := []struct {
		name       string
		confidence Confidence
		expected   string
	}{
		{"High", ConfidenceHigh, "high"},
		{"Medium", ConfidenceMedium, "medium"},
		{"Low", ConfidenceLow, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.confidence))
		})
	}
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
	assert.Equal(t, 0, Confidence("bogus").Rank())
}

func TestNewQAEntry(t *testing.T) {
	entry := NewQAEntry(
		"What is a Roth IRA?",
		"A Roth IRA is a retirement account funded with after-tax dollars.",
		"Roth IRA basics",
		"roth_ira_basics",
		"Bogleheads Wiki",
		"doc-42",
		ConfidenceHigh,
	)

	assert.Equal(t, "What is a Roth IRA?", entry.Question)
	assert.Equal(t, "roth_ira_basics", entry.Category)
	assert.Equal(t, "doc-42", entry.DocID)
	assert.Equal(t, ConfidenceHigh, entry.Confidence)
	require.NotNil(t, entry.AddedAt)
	assert.Nil(t, entry.UpdatedAt)
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "what is a roth ira?", "what is a roth ira?"},
		{"case folded", "What Is A Roth IRA?", "what is a roth ira?"},
		{"trimmed", "  What is a Roth IRA?  ", "what is a roth ira?"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeQuestion(tt.input))
		})
	}
}

func TestValidateQAEntry(t *testing.T) {
	valid := func() *QAEntry {
		return NewQAEntry("q", "a", "ctx", "cat", "src", "doc-1", ConfidenceMedium)
	}

	t.Run("valid entry", func(t *testing.T) {
		require.NoError(t, ValidateQAEntry(valid()))
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.Error(t, ValidateQAEntry(nil))
	})

	t.Run("blank question", func(t *testing.T) {
		e := valid()
		e.Question = "   "
		assert.ErrorIs(t, ValidateQAEntry(e), ErrEmptyQuestion)
	})

	t.Run("blank answer", func(t *testing.T) {
		e := valid()
		e.Answer = ""
		assert.ErrorIs(t, ValidateQAEntry(e), ErrEmptyAnswer)
	})

	t.Run("missing category", func(t *testing.T) {
		e := valid()
		e.Category = ""
		assert.Error(t, ValidateQAEntry(e))
	})

	t.Run("missing source", func(t *testing.T) {
		e := valid()
		e.Source = ""
		assert.Error(t, ValidateQAEntry(e))
	})

	t.Run("invalid confidence", func(t *testing.T) {
		e := valid()
		e.Confidence = "certain"
		assert.ErrorIs(t, ValidateQAEntry(e), ErrInvalidConfidence)
	})
}

func TestDomainError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewDomainError(ErrCodeNotFound, "qa entry not found")
		assert.Equal(t, "[NOT_FOUND] qa entry not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := assert.AnError
		err := NewDomainErrorWithCause(ErrCodePersistence, "failed to write knowledge file", cause)
		assert.Contains(t, err.Error(), "PERSISTENCE_FAILURE")
		assert.ErrorIs(t, err, cause)
	})
}
