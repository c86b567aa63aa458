package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and corpus availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/health")
			if err != nil {
				return err
			}

			var health struct {
				Status     string `json:"status"`
				QAPairs    int    `json:"qa_pairs"`
				Categories int    `json:"categories"`
				Retrieval  string `json:"retrieval"`
			}
			if err := json.Unmarshal(resp.Data, &health); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(health, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("status:     %s\n", health.Status)
			fmt.Printf("qa_pairs:   %d\n", health.QAPairs)
			fmt.Printf("categories: %d\n", health.Categories)
			fmt.Printf("retrieval:  %s\n", health.Retrieval)
			return nil
		},
	}
}
