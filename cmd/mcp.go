package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prtrack/prtrack/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets agent tooling query live PR reports natively. Configure with:

  {
    "mcpServers": {
      "prtrack": { "command": "prtrack", "args": ["mcp"] }
    }
  }

Available tools: pr_report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getGitHubClient()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(client, ui, viper.GetInt("report.workers"))
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
