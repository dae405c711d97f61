package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Pillbox MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes the medicine list, today's
schedule, the calendar and the history as MCP tools via STDIO.

Logs go to stderr so stdout carries only protocol messages.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\pillbox\pillbox.db
- macOS: ~/Library/Application Support/pillbox/pillbox.db
- Linux: ~/.local/share/pillbox/pillbox.db

Example:
  pillbox mcp
  pillbox mcp --db pillbox.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			srv := mcp.NewPillboxMCPServer(a.session, a.logger.Named("mcp"))
			return srv.Start()
		})
	},
}
