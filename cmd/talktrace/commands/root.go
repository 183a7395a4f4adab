package commands

import (
	"context"

	"talktrace/internal/analysis"
	"talktrace/internal/config"
	"talktrace/internal/logging"
	"talktrace/internal/session"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "talktrace",
	Short: "TalkTrace analyzes exported chat transcripts",
	Long: `TalkTrace sends an exported chat transcript to the analysis service and presents
the resulting statistics (activity, sentiment, words, emojis) as tables, Mermaid charts,
JSON or an HTML report, from the command line, a local web UI or an MCP client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("service", cfg.Analysis.BaseURL).
			Msg("TalkTrace starting")
		return nil
	},
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newStore builds a session store backed by the configured analysis service.
func newStore() *session.Store {
	client := analysis.NewClient(cfg.Analysis)
	return session.NewStore(client, session.WithRequestTimeout(cfg.Analysis.Timeout))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(analyzeCmd, serveCmd, mcpCmd, versionCmd)
}
