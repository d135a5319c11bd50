package cmd

import (
	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients drive the review workflow natively. Configure with:

  {
    "mcpServers": {
      "labelqc": { "command": "labelqc", "args": ["mcp"] }
    }
  }

Available tools: qc_list_projects, qc_review_queue, qc_submit_review,
qc_audit_review, qc_user_stats, qc_error_categories`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		return mcp.NewServer(s).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
