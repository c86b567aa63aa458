package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskResponse mirrors the server's answer envelope.
type AskResponse struct {
	Question   string      `json:"question"`
	Answer     string      `json:"answer"`
	Method     string      `json:"method"`
	Confidence string      `json:"confidence"`
	Sources    []SourceRef `json:"sources"`
	Timestamp  string      `json:"timestamp"`
}

type SourceRef struct {
	Type     string  `json:"type"`
	Question string  `json:"question,omitempty"`
	Context  string  `json:"context,omitempty"`
	Category string  `json:"category,omitempty"`
	Source   string  `json:"source,omitempty"`
	Title    string  `json:"title,omitempty"`
	URL      string  `json:"url,omitempty"`
	Score    float64 `json:"score"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a financial question",
		Long: `Ask a free-text financial question.

The answer names which tier produced it: "curated" comes verbatim from the
knowledge base, "grounded" is synthesized from retrieved documents, and
"fallback" is an unconstrained model answer.

Examples:
  finsight ask "What is a Roth IRA?"
  finsight ask --output "How do index funds work?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", map[string]string{"question": question})
	if err != nil {
		return err
	}

	var answer AskResponse
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	outputJSON, _ := cmd.Flags().GetBool("output")
	if outputJSON {
		data, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(answer.Answer)
	fmt.Println()
	fmt.Printf("method: %s  confidence: %s\n", answer.Method, answer.Confidence)
	for _, src := range answer.Sources {
		switch src.Type {
		case "qa_pair":
			fmt.Printf("source: %s (%s, score %.3f)\n", src.Question, src.Category, src.Score)
		default:
			fmt.Printf("source: %s (score %.3f)\n", src.Title, src.Score)
		}
	}

	return nil
}
