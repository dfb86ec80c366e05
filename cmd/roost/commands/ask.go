package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roost-io/roost/internal/printer"
)

var (
	askGateway   string
	askDocument  string
	askQuestions []string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Submit a document and questions to a running gateway",
	Long: `Submit a document URL plus one or more questions to a running Roost
gateway and print the answers.

Examples:
  # Single question
  roost ask --document https://example.com/policy.pdf --question "What is the grace period?"

  # Multiple questions (answers come back in the same order)
  roost ask -d https://example.com/policy.pdf \
    -q "What is the grace period?" \
    -q "Does the policy cover dental?"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askGateway, "gateway", "http://localhost:8080", "Gateway base URL")
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "Document URL (required)")
	askCmd.Flags().StringArrayVarP(&askQuestions, "question", "q", nil, "Question to ask (repeatable, required)")
	askCmd.MarkFlagRequired("document")
	askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	payload, err := json.Marshal(map[string]any{
		"documents": askDocument,
		"questions": askQuestions,
	})
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	printer.Step("Submitting %d question(s) for %s\n", len(askQuestions), askDocument)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(askGateway+"/run", "application/json", bytes.NewReader(payload))
	if err != nil {
		return printer.Error(
			"gateway unreachable",
			fmt.Sprintf("Could not reach %s: %v", askGateway, err),
			[]string{"Start the gateway first:\n  roost serve"},
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error struct {
				Category string `json:"category"`
				Message  string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Error.Message != "" {
			return printer.Error(
				fmt.Sprintf("request failed (%s)", failure.Error.Category),
				failure.Error.Message,
				nil,
			)
		}
		return fmt.Errorf("gateway returned %s", resp.Status)
	}

	var success struct {
		Answers []string `json:"answers"`
	}
	if err := json.Unmarshal(body, &success); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printer.Success("Received %d answer(s)\n\n", len(success.Answers))
	for i, answer := range success.Answers {
		printer.Info("%d. %s\n", i+1, answer)
	}

	return nil
}
