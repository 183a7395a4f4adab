package commands

import (
	"context"

	"talktrace/internal/mcp"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Expose one analysis session to an MCP client (select_chat_file, select_participant,
get_analysis). Logs go to stderr and the log file; stdout carries the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		server := mcp.NewServer(store, cfg.ReportDir, Version)

		g, ctx := errgroup.WithContext(cmd.Context())
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		g.Go(func() error { return store.Run(ctx) })
		g.Go(func() error {
			// The client closing stdin ends the session.
			defer cancel()
			return server.Serve(ctx)
		})
		return g.Wait()
	},
}
