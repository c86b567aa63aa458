package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// UpdateCmd creates the update command.
func UpdateCmd() *cobra.Command {
	var (
		question   string
		answer     string
		context    string
		category   string
		confidence string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update fields of a curated entry",
		Long: `Update an existing entry, identified by its question. Only the
provided flags change; omitted fields keep their value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" {
				return fmt.Errorf("--question is required")
			}

			body := map[string]interface{}{"question": question}
			if cmd.Flags().Changed("answer") {
				body["answer"] = answer
			}
			if cmd.Flags().Changed("context") {
				body["context"] = context
			}
			if cmd.Flags().Changed("category") {
				body["category"] = category
			}
			if cmd.Flags().Changed("confidence") {
				body["confidence"] = confidence
			}
			if len(body) == 1 {
				return fmt.Errorf("nothing to update: pass at least one of --answer, --context, --category, --confidence")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Put("/kb", body)
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
				fmt.Printf("Updated entry %s\n", entry.DocID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "Question identifying the entry (required)")
	cmd.Flags().StringVar(&answer, "answer", "", "New answer")
	cmd.Flags().StringVar(&context, "context", "", "New context")
	cmd.Flags().StringVar(&category, "category", "", "Move the entry to this category")
	cmd.Flags().StringVar(&confidence, "confidence", "", "New confidence: high, medium or low")

	return cmd
}
