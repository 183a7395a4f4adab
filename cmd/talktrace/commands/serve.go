package commands

import (
	"context"
	"time"

	"talktrace/internal/httpapi"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI and JSON API for one analysis session",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		store := newStore()
		srv := httpapi.NewServer(store, Version)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error { return store.Run(ctx) })
		g.Go(func() error { return srv.Start(addr) })
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Info().Msg("HTTP server shutting down")
			return srv.Shutdown(shutdownCtx)
		})

		if serveOpen {
			url := "http://" + addr + "/"
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
			}
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default TALKTRACE_LISTEN_ADDR)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the web UI in the browser")
}
