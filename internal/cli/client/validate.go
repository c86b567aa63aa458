package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationReport mirrors the server's validation output.
type ValidationReport struct {
	MissingFields []struct {
		Question     string `json:"question"`
		MissingField string `json:"missing_field"`
	} `json:"missing_fields"`
	DuplicateQuestions []string `json:"duplicate_questions"`
	EmptyAnswers       []string `json:"empty_answers"`
	LowConfidence      []string `json:"low_confidence"`
	OrphanedCategories []string `json:"orphaned_categories"`
}

// ValidateCmd creates the validate command.
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Scan the knowledge base for integrity issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/kb/validate")
			if err != nil {
				return err
			}

			var report ValidationReport
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(report, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			issues := 0
			for _, issue := range report.MissingFields {
				fmt.Printf("missing %s: %s\n", issue.MissingField, issue.Question)
				issues++
			}
			for _, q := range report.DuplicateQuestions {
				fmt.Printf("duplicate question: %s\n", q)
				issues++
			}
			for _, q := range report.EmptyAnswers {
				fmt.Printf("empty answer: %s\n", q)
				issues++
			}
			for _, c := range report.OrphanedCategories {
				fmt.Printf("orphaned category: %s\n", c)
				issues++
			}
			for _, q := range report.LowConfidence {
				fmt.Printf("low confidence (informational): %s\n", q)
			}

			if issues == 0 {
				fmt.Println("Knowledge base is clean")
			} else {
				fmt.Printf("%d issues found\n", issues)
			}
			return nil
		},
	}
}
