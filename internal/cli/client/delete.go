package client

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	var question string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a curated entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" {
				return fmt.Errorf("--question is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/kb?question=" + url.QueryEscape(question)); err != nil {
				return err
			}

			fmt.Printf("Deleted entry for %q\n", question)
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "Question identifying the entry (required)")

	return cmd
}
