package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// InitCmd creates the init command. It stores the API endpoint and key in
// the global config so subsequent commands work without flags.
func InitCmd() *cobra.Command {
	var apiKey string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the finsight CLI",
		Long:  "Stores the API key and base URL in the global config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiKey, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(apiKey, apiURL string, outputJSON bool) error {
	_ = godotenv.Load()
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		fmt.Print("Enter API key (empty if the server runs without auth): ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = strings.TrimSpace(input)
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	// Verify the endpoint before saving
	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIKey: apiKey, APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()

	if outputJSON {
		result := map[string]interface{}{
			"success": true,
			"api_url": apiURL,
			"config":  configPath,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Configured finsight CLI for %s\n", apiURL)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}
