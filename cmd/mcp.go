package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for AI assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows MCP clients to query brd natively for projects,
requirements, conflicts, and intelligence metrics. Configure with:

  {
    "mcpServers": {
      "brd": { "command": "brd", "args": ["mcp"] }
    }
  }

Available tools: brd_list_projects, brd_project_intelligence,
brd_list_requirements, brd_detect_conflicts, brd_negotiation_proposal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s)
		return srv.ServeStdio(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
