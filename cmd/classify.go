package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/output"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <comment>",
	Short: "Suggest an error category for a rejection comment",
	Long: `Use the configured Anthropic model to suggest an error category
for a free-text rejection comment. Requires anthropic.api_key in config
or the ANTHROPIC_API_KEY environment variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return classifyRun(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func classifyRun(comment string) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	suggestion, err := client.SuggestCategory(context.Background(), comment)
	if err != nil {
		return fmt.Errorf("classify comment: %w", err)
	}

	fmt.Fprintf(ui.Out, "Category: %s\n", output.Cyan(suggestion.Category))
	if suggestion.Reason != "" {
		fmt.Fprintf(ui.Out, "Reason:   %s\n", suggestion.Reason)
	}
	return nil
}
