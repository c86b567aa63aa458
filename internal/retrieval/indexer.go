package retrieval

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Indexer re-embeds the knowledge store into the qa_vectors table. Rows are
// replaced inside one transaction so a query never observes a half-built
// curated corpus.
type Indexer struct {
	pool     *pgxpool.Pool
	embedder EmbeddingClient
	store    *knowledge.Store

	mu         sync.Mutex
	syncedRev  uint64
	everSynced bool
}

// NewIndexer creates an Indexer for store.
func NewIndexer(pool *pgxpool.Pool, embedder EmbeddingClient, store *knowledge.Store) *Indexer {
	return &Indexer{pool: pool, embedder: embedder, store: store}
}

// ProcessJobs implements jobs.JobProcessor: it rebuilds the curated index
// whenever the store has mutated since the last successful sync.
func (ix *Indexer) ProcessJobs(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rev := ix.store.Revision()
	if ix.everSynced && rev == ix.syncedRev {
		return nil
	}

	if err := ix.rebuild(ctx); err != nil {
		return err
	}

	ix.syncedRev = rev
	ix.everSynced = true
	return nil
}

// Rebuild forces a full re-embed and rewrite of the curated index.
func (ix *Indexer) Rebuild(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rev := ix.store.Revision()
	if err := ix.rebuild(ctx); err != nil {
		return err
	}
	ix.syncedRev = rev
	ix.everSynced = true
	return nil
}

func (ix *Indexer) rebuild(ctx context.Context) error {
	entries := ix.store.List()

	// Embeddings are fetched outside the transaction to keep it short.
	type indexedEntry struct {
		entry     *domain.QAEntry
		content   string
		embedding []float32
	}
	indexed := make([]indexedEntry, 0, len(entries))
	for _, e := range entries {
		content := EmbedText(e)
		embedding, err := ix.embedder.GenerateEmbedding(ctx, content)
		if err != nil {
			return fmt.Errorf("failed to embed entry %q: %w", e.Question, err)
		}
		indexed = append(indexed, indexedEntry{entry: e, content: content, embedding: embedding})
	}

	tx, err := ix.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM qa_vectors`); err != nil {
		return err
	}

	for _, item := range indexed {
		e := item.entry
		_, err := tx.Exec(ctx,
			`INSERT INTO qa_vectors
				(doc_id, question, answer, context, category, source, confidence, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.DocID, e.Question, e.Answer, e.Context, e.Category, e.Source,
			string(e.Confidence), item.content, pgvector.NewVector(item.embedding),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("retrieval: curated index rebuilt with %d entries", len(indexed))
	return nil
}

// EmbedText composes the text embedded for one curated entry. The labeled
// layout mirrors the question-centric phrasing queries arrive in.
func EmbedText(e *domain.QAEntry) string {
	return fmt.Sprintf("Context: %s\nQuestion: %s\nAnswer: %s", e.Context, e.Question, e.Answer)
}
