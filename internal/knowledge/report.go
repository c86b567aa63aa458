package knowledge

import (
	"context"
	"time"

	"github.com/finsight-ai/finsight/internal/telemetry"
)

// ReportSummary holds the headline counters of a knowledge-base report.
type ReportSummary struct {
	TotalQAPairs int       `json:"total_qa_pairs"`
	Categories   int       `json:"categories"`
	Sources      int       `json:"sources"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Report is the operator-facing snapshot of the knowledge base: summary
// counters, per-dimension breakdowns, and the current validation issues.
type Report struct {
	Summary             ReportSummary     `json:"summary"`
	CategoryBreakdown   map[string]int    `json:"category_breakdown"`
	SourceBreakdown     map[string]int    `json:"source_breakdown"`
	ConfidenceBreakdown map[string]int    `json:"confidence_breakdown"`
	ValidationIssues    *ValidationReport `json:"validation_issues"`
}

// Report generates a full report of the knowledge base without mutating it.
func (m *Manager) Report(ctx context.Context) *Report {
	_, span := telemetry.StartSpan(ctx, "Manager.Report", telemetry.SpanAttributes{
		Operation: "report",
	})
	defer span.End()

	meta := m.store.Metadata()
	report := &Report{
		Summary: ReportSummary{
			TotalQAPairs: meta.TotalQAPairs,
			Categories:   len(meta.Categories),
			Sources:      len(meta.Sources),
			GeneratedAt:  time.Now().UTC(),
		},
		CategoryBreakdown:   meta.CategoryCounts,
		SourceBreakdown:     make(map[string]int),
		ConfidenceBreakdown: make(map[string]int),
		ValidationIssues:    validateStore(m.store),
	}

	for _, e := range m.store.List() {
		report.SourceBreakdown[e.Source]++
		report.ConfidenceBreakdown[string(e.Confidence)]++
	}

	return report
}
