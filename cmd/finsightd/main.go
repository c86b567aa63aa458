package main

import (
	"fmt"
	"os"

	"github.com/finsight-ai/finsight/internal/cli"
	"github.com/finsight-ai/finsight/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finsightd",
		Short: "Finsight daemon",
		Long:  "Finsight daemon for running the question-answering server and maintaining the curated index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.ReindexCmd())
	rootCmd.AddCommand(admin.ImportCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
