package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

// ExportCmd creates the export command.
func ExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export <category>",
		Short: "Export one category as JSON",
		Long: `Export every entry of a category. The output is accepted back by
'finsight import' and by the admin import command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/kb/export/" + url.PathEscape(args[0]))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format export: %w", err)
			}

			if outFile == "" {
				fmt.Println(string(data))
				return nil
			}

			if err := os.WriteFile(outFile, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			fmt.Printf("Exported category '%s' to %s\n", args[0], outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write to a file instead of stdout")

	return cmd
}
