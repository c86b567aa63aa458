package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/finsight-ai/finsight/internal/config"
	"github.com/finsight-ai/finsight/internal/database"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/finsight-ai/finsight/internal/openai"
	"github.com/finsight-ai/finsight/internal/retrieval"
	"github.com/spf13/cobra"
)

// ReindexCmd returns the reindex command
func ReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the curated vector index from the knowledge file",
		Long: "Re-embed every curated entry and rewrite the qa_vectors table. " +
			"Use after editing the knowledge file outside the running server.",
		RunE: runReindex,
	}
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasRetrieval() {
		return fmt.Errorf("reindex requires FINSIGHT_DATABASE_URL and FINSIGHT_OPENAI_API_KEY")
	}

	store := knowledge.NewStore()
	manager := knowledge.NewManager(store, cfg.KnowledgeFile, cfg.BackupDir)
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("failed to load knowledge file: %w", err)
	}
	log.Printf("loaded %d curated entries from %s", store.Len(), cfg.KnowledgeFile)

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
	})

	indexer := retrieval.NewIndexer(pool, embedder, store)
	if err := indexer.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	fmt.Printf("Reindexed %d entries\n", store.Len())
	return nil
}
