package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	tdmcp "github.com/valter-silva-au/taskdesk/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the taskdesk MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskdesk MCP server on stdio",
	Long: `Start the taskdesk MCP server on stdio transport.

The server exposes the offline board as MCP tools that AI assistants can
call: list_today, list_tasks, start_task, pause_task, wait_task,
complete_task, add_session, get_calendar, get_review, extract_tasks,
apply_routines, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}

		srv := tdmcp.NewServer(Board, Extractor, MetricsCalc, AlertEngine, Clock, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
