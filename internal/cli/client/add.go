package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// QAEntry mirrors the server's curated entry representation.
type QAEntry struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Context    string `json:"context,omitempty"`
	Source     string `json:"source,omitempty"`
	DocID      string `json:"doc_id,omitempty"`
	Category   string `json:"category"`
	Confidence string `json:"confidence,omitempty"`
	AddedAt    string `json:"added_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		question   string
		answer     string
		context    string
		category   string
		source     string
		confidence string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a curated Q&A entry",
		Long: `Add a curated question/answer entry to the knowledge base.

Examples:
  finsight add --question "What is a Roth IRA?" \
    --answer "A retirement account funded with after-tax dollars." \
    --category roth_ira_basics --source "IRS Publication 590-A"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" {
				return fmt.Errorf("--question is required")
			}
			if answer == "" {
				return fmt.Errorf("--answer is required")
			}
			if category == "" {
				return fmt.Errorf("--category is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/kb", map[string]string{
				"question":   question,
				"answer":     answer,
				"context":    context,
				"category":   category,
				"source":     source,
				"confidence": confidence,
			})
			if err != nil {
				return err
			}

			var entry QAEntry
			if err := json.Unmarshal(resp.Data, &entry); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(entry, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("Added entry %s to category '%s'\n", entry.DocID, entry.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "The question (required)")
	cmd.Flags().StringVar(&answer, "answer", "", "The curated answer (required)")
	cmd.Flags().StringVar(&context, "context", "", "Background context embedded alongside the question")
	cmd.Flags().StringVar(&category, "category", "", "Category the entry belongs to (required)")
	cmd.Flags().StringVar(&source, "source", "", "Where the answer comes from (default: Manual)")
	cmd.Flags().StringVar(&confidence, "confidence", "", "Stored confidence: high, medium or low (default: high)")

	return cmd
}
