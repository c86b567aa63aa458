package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// SearchResponse mirrors the server's search result envelope.
type SearchResponse struct {
	Results []QAEntry `json:"results"`
	Count   int       `json:"count"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search curated entries by substring",
		Long: `Search curated entries whose question or answer contains the query.

Examples:
  finsight search "roth ira"
  finsight search dividend --category tax_strategies`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			path := "/kb/search?q=" + url.QueryEscape(query)
			if category != "" {
				path += "&category=" + url.QueryEscape(category)
			}

			resp, err := api.Get(path)
			if err != nil {
				return err
			}

			var result SearchResponse
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if result.Count == 0 {
				fmt.Println("No entries found")
				return nil
			}

			fmt.Printf("%d entries:\n", result.Count)
			for _, entry := range result.Results {
				fmt.Printf("  [%s] %s\n", entry.Category, entry.Question)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Restrict the search to one category")

	return cmd
}
