// Package retrieval provides nearest-neighbor search over the curated QA
// corpus and the document-passage corpus, plus the indexer that keeps the
// curated corpus in sync with the knowledge store.
package retrieval

import (
	"context"

	"github.com/finsight-ai/finsight/internal/domain"
)

// Corpus names a searchable collection.
type Corpus string

const (
	CorpusCurated   Corpus = "curated"
	CorpusDocuments Corpus = "documents"
)

// Metadata carries the structured fields of a retrieved item. Curated
// results populate the QA fields; document results populate Title and URL.
type Metadata struct {
	Question   string
	Answer     string
	Context    string
	Category   string
	Source     string
	DocID      string
	Confidence domain.Confidence
	Title      string
	URL        string
}

// Result is one retrieved item. Score is a cosine distance: lower means
// more similar.
type Result struct {
	Content  string
	Metadata Metadata
	Score    float64
}

// Retriever searches a corpus for the k nearest items to a query. A corpus
// with no data yields an empty slice, not an error; errors are reserved for
// malformed input and backend failures.
type Retriever interface {
	Search(ctx context.Context, query string, corpus Corpus, k int) ([]Result, error)
}
