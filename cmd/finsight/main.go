package main

import (
	"fmt"
	"os"

	"github.com/finsight-ai/finsight/internal/cli"
	"github.com/finsight-ai/finsight/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "finsight",
		Short: "Finsight CLI - tiered financial question answering",
		Long: `Finsight CLI asks questions against a running finsight server and
manages its curated knowledge base.

Environment variables:
  FINSIGHT_API_KEY   API key for authentication (empty if the server runs without auth)
  FINSIGHT_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.UpdateCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.ValidateCmd())
	rootCmd.AddCommand(client.ReportCmd())
	rootCmd.AddCommand(client.ExportCmd())
	rootCmd.AddCommand(client.ImportCmd())
	rootCmd.AddCommand(client.StatusCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
