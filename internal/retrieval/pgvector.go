package retrieval

import (
	"context"
	"fmt"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingClient generates an embedding vector for a text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher implements Retriever over pgvector-indexed tables.
type VectorSearcher struct {
	pool     *pgxpool.Pool
	embedder EmbeddingClient
}

// NewVectorSearcher creates a VectorSearcher backed by pool and embedder.
func NewVectorSearcher(pool *pgxpool.Pool, embedder EmbeddingClient) *VectorSearcher {
	return &VectorSearcher{pool: pool, embedder: embedder}
}

// Search embeds the query and returns the k nearest items from the corpus,
// most similar first. Scores are cosine distances.
func (v *VectorSearcher) Search(ctx context.Context, query string, corpus Corpus, k int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	embedding, err := v.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	switch corpus {
	case CorpusCurated:
		return v.searchCurated(ctx, embedding, k)
	case CorpusDocuments:
		return v.searchDocuments(ctx, embedding, k)
	default:
		return nil, fmt.Errorf("unknown corpus: %s", corpus)
	}
}

func (v *VectorSearcher) searchCurated(ctx context.Context, embedding []float32, k int) ([]Result, error) {
	rows, err := v.pool.Query(ctx,
		`SELECT question, answer, context, category, source, confidence, doc_id, content,
		        embedding <=> $1 AS score
		 FROM qa_vectors
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]Result, 0, k)
	for rows.Next() {
		var r Result
		var confidence string
		if err := rows.Scan(
			&r.Metadata.Question,
			&r.Metadata.Answer,
			&r.Metadata.Context,
			&r.Metadata.Category,
			&r.Metadata.Source,
			&confidence,
			&r.Metadata.DocID,
			&r.Content,
			&r.Score,
		); err != nil {
			return nil, err
		}
		r.Metadata.Confidence = domain.Confidence(confidence)
		results = append(results, r)
	}

	return results, rows.Err()
}

func (v *VectorSearcher) searchDocuments(ctx context.Context, embedding []float32, k int) ([]Result, error) {
	rows, err := v.pool.Query(ctx,
		`SELECT title, url, content, embedding <=> $1 AS score
		 FROM doc_passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]Result, 0, k)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Metadata.Title, &r.Metadata.URL, &r.Content, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}
