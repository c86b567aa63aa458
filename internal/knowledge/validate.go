package knowledge

import (
	"context"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/telemetry"
)

// FieldIssue flags one entry missing a required field.
type FieldIssue struct {
	Question     string `json:"question"`
	MissingField string `json:"missing_field"`
}

// ValidationReport lists the problems found in a store scan. Producing the
// report never mutates the store and never fails.
type ValidationReport struct {
	MissingFields      []FieldIssue `json:"missing_fields"`
	DuplicateQuestions []string     `json:"duplicate_questions"`
	EmptyAnswers       []string     `json:"empty_answers"`
	LowConfidence      []string     `json:"low_confidence"`
	OrphanedCategories []string     `json:"orphaned_categories"`
}

// Clean reports whether the scan found no issues other than low-confidence
// entries, which are informational.
func (r *ValidationReport) Clean() bool {
	return len(r.MissingFields) == 0 &&
		len(r.DuplicateQuestions) == 0 &&
		len(r.EmptyAnswers) == 0 &&
		len(r.OrphanedCategories) == 0
}

// Validate scans all entries and reports missing fields, duplicate
// normalized questions, empty answers, low-confidence entries, and empty
// category buckets. Duplicates should be impossible given the add invariant
// but are checked defensively, e.g. after hand edits to the knowledge file.
func (m *Manager) Validate(ctx context.Context) *ValidationReport {
	_, span := telemetry.StartSpan(ctx, "Manager.Validate", telemetry.SpanAttributes{
		Operation: "validate",
	})
	defer span.End()

	return validateStore(m.store)
}

func validateStore(s *Store) *ValidationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &ValidationReport{}
	seen := make(map[string]bool)

	for _, e := range s.entries {
		required := []struct {
			name  string
			value string
		}{
			{"question", e.Question},
			{"answer", e.Answer},
			{"context", e.Context},
			{"category", e.Category},
			{"source", e.Source},
		}
		for _, field := range required {
			if field.value == "" {
				report.MissingFields = append(report.MissingFields, FieldIssue{
					Question:     e.Question,
					MissingField: field.name,
				})
			}
		}

		key := e.NormalizedQuestion()
		if seen[key] {
			report.DuplicateQuestions = append(report.DuplicateQuestions, e.Question)
		} else {
			seen[key] = true
		}

		if domain.NormalizeQuestion(e.Answer) == "" {
			report.EmptyAnswers = append(report.EmptyAnswers, e.Question)
		}

		if e.Confidence == domain.ConfidenceLow {
			report.LowConfidence = append(report.LowConfidence, e.Question)
		}
	}

	for category, bucket := range s.byCategory {
		if len(bucket) == 0 {
			report.OrphanedCategories = append(report.OrphanedCategories, category)
		}
	}

	return report
}
