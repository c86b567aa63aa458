//go:build integration

package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/finsight-ai/finsight/internal/testutil"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmbeddingDims = 1536

// hashEmbedder produces deterministic bag-of-words embeddings so that
// texts sharing more words land closer in cosine distance. No network.
type hashEmbedder struct {
	calls int
}

func (h *hashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	h.calls++
	vec := make([]float32, testEmbeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var sum uint32
		for _, r := range word {
			sum = sum*31 + uint32(r)
		}
		vec[sum%testEmbeddingDims] += 1.0
	}
	return vec, nil
}

func seedStore(ctx context.Context, t *testing.T, dir string) *knowledge.Store {
	store := knowledge.NewStore()
	manager := knowledge.NewManager(store, dir+"/kb.json", dir+"/backups")

	entries := []knowledge.AddInput{
		{
			Question:   "What is compound interest",
			Answer:     "Interest earned on both the principal and previously accumulated interest.",
			Category:   "savings",
			Source:     "curated",
			Confidence: domain.ConfidenceHigh,
		},
		{
			Question:   "What is an index fund",
			Answer:     "A fund that passively tracks a market index.",
			Category:   "investing",
			Source:     "curated",
			Confidence: domain.ConfidenceHigh,
		},
		{
			Question:   "How does a credit score work",
			Answer:     "A numeric summary of repayment history used by lenders.",
			Category:   "credit",
			Source:     "curated",
			Confidence: domain.ConfidenceMedium,
		},
	}
	for _, in := range entries {
		_, err := manager.Add(ctx, in)
		require.NoError(t, err)
	}
	return store
}

func TestIndexerRebuildAndCuratedSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := seedStore(ctx, t, t.TempDir())
	embedder := &hashEmbedder{}
	indexer := NewIndexer(pool, embedder, store)
	require.NoError(t, indexer.Rebuild(ctx))

	searcher := NewVectorSearcher(pool, embedder)
	results, err := searcher.Search(ctx, "What is compound interest", CorpusCurated, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "What is compound interest", results[0].Metadata.Question)
	assert.Equal(t, "savings", results[0].Metadata.Category)
	assert.Equal(t, domain.ConfidenceHigh, results[0].Metadata.Confidence)
	assert.Less(t, results[0].Score, results[1].Score)
}

func TestIndexerProcessJobsSkipsUnchangedStore(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := seedStore(ctx, t, t.TempDir())
	embedder := &hashEmbedder{}
	indexer := NewIndexer(pool, embedder, store)

	require.NoError(t, indexer.ProcessJobs(ctx))
	callsAfterFirst := embedder.calls
	require.Equal(t, store.Len(), callsAfterFirst)

	require.NoError(t, indexer.ProcessJobs(ctx))
	assert.Equal(t, callsAfterFirst, embedder.calls, "unchanged store should not be re-embedded")
}

func TestVectorSearcherDocuments(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	embedder := &hashEmbedder{}
	passages := []struct {
		title   string
		url     string
		content string
	}{
		{"Emergency funds", "https://example.com/emergency", "An emergency fund covers three to six months of expenses."},
		{"Diversification", "https://example.com/diversify", "Spreading investments across assets reduces risk."},
	}
	for _, p := range passages {
		vec, err := embedder.GenerateEmbedding(ctx, p.content)
		require.NoError(t, err)
		_, err = pool.Exec(ctx,
			`INSERT INTO doc_passages (title, url, content, embedding) VALUES ($1, $2, $3, $4)`,
			p.title, p.url, p.content, pgvector.NewVector(vec),
		)
		require.NoError(t, err)
	}

	searcher := NewVectorSearcher(pool, embedder)
	results, err := searcher.Search(ctx, "how big should an emergency fund be", CorpusDocuments, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Emergency funds", results[0].Metadata.Title)
	assert.Equal(t, "https://example.com/emergency", results[0].Metadata.URL)
}

func TestVectorSearcherEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	searcher := NewVectorSearcher(pool, &hashEmbedder{})
	results, err := searcher.Search(ctx, "anything", CorpusCurated, 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}
