package admin

import (
	"context"
	"fmt"
	"os"

	"github.com/finsight-ai/finsight/internal/config"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/spf13/cobra"
)

// ImportCmd returns the import command. It merges a Q&A export file into
// the knowledge file directly, without going through a running server.
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import Q&A pairs into the knowledge file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	cmd.Flags().String("category", "", "Override the category of every imported entry")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := knowledge.NewStore()
	manager := knowledge.NewManager(store, cfg.KnowledgeFile, cfg.BackupDir)

	if _, err := os.Stat(cfg.KnowledgeFile); err == nil {
		if err := manager.Load(ctx); err != nil {
			return fmt.Errorf("failed to load knowledge file: %w", err)
		}
	}

	category, _ := cmd.Flags().GetString("category")

	result, err := manager.ImportFile(ctx, args[0], category)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d entries (%d skipped as duplicates, %d invalid)\n",
		result.Imported, len(result.Skipped), len(result.Invalid))
	for _, q := range result.Skipped {
		fmt.Printf("  skipped: %s\n", q)
	}
	for _, q := range result.Invalid {
		fmt.Printf("  invalid: %s\n", q)
	}

	return nil
}
