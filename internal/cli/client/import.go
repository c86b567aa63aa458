package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ImportResult mirrors the server's import summary.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
	Invalid  []string `json:"invalid,omitempty"`
}

// ImportCmd creates the import command.
func ImportCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import Q&A pairs from a JSON export file",
		Long: `Import entries from a file with a top-level "qa_pairs" array.
Duplicates of existing questions are skipped, never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			var payload struct {
				QAPairs []QAEntry `json:"qa_pairs"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("failed to parse import file: %w", err)
			}
			if len(payload.QAPairs) == 0 {
				return fmt.Errorf("no qa_pairs found in %s", args[0])
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/kb/import", map[string]interface{}{
				"qa_pairs": payload.QAPairs,
				"category": category,
			})
			if err != nil {
				return err
			}

			var result ImportResult
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Imported %d entries (%d skipped, %d invalid)\n",
				result.Imported, len(result.Skipped), len(result.Invalid))
			for _, q := range result.Skipped {
				fmt.Printf("  skipped: %s\n", q)
			}
			for _, q := range result.Invalid {
				fmt.Printf("  invalid: %s\n", q)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Override the category of every imported entry")

	return cmd
}
