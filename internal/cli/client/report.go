package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// KBReport mirrors the server's report output.
type KBReport struct {
	Summary struct {
		TotalQAPairs int    `json:"total_qa_pairs"`
		Categories   int    `json:"categories"`
		Sources      int    `json:"sources"`
		GeneratedAt  string `json:"generated_at"`
	} `json:"summary"`
	CategoryBreakdown   map[string]int   `json:"category_breakdown"`
	SourceBreakdown     map[string]int   `json:"source_breakdown"`
	ConfidenceBreakdown map[string]int   `json:"confidence_breakdown"`
	ValidationIssues    ValidationReport `json:"validation_issues"`
}

// ReportCmd creates the report command.
func ReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show a summary report of the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/kb/report")
			if err != nil {
				return err
			}

			var report KBReport
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(report, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Entries:    %d\n", report.Summary.TotalQAPairs)
			fmt.Printf("Categories: %d\n", report.Summary.Categories)
			fmt.Printf("Sources:    %d\n", report.Summary.Sources)
			fmt.Println()

			printBreakdown("By category", report.CategoryBreakdown)
			printBreakdown("By confidence", report.ConfidenceBreakdown)
			return nil
		},
	}
}

func printBreakdown(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-30s %d\n", k, counts[k])
	}
	fmt.Println()
}
