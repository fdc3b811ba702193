package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/pawnshop/internal/api"
)

var (
	port     int
	adminKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the shop over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(os.Stdout, cfg)
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		if adminKey == "" {
			adminKey = os.Getenv("PAWNSHOP_ADMIN_KEY")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feed := api.NewFeed(cfg.Server.FeedSize)
		a, err := newApp(ctx, cfg, feed)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &api.Server{
			Ctl:              a.ctl,
			Feed:             feed,
			Store:            a.store,
			SaveKey:          cfg.Game.SaveKey,
			Model:            a.llm.Model(),
			Port:             cfg.Server.Port,
			AdminKey:         adminKey,
			CORSOrigins:      cfg.Server.CORSOrigins,
			CustomersPerHour: cfg.Server.CustomersPerHr,
			MessagesPerHour:  cfg.Server.MessagesPerHr,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
		// Open SSE streams would hold Shutdown until its deadline.
		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutdown requested, closing event streams")
			feed.Close()
			return nil
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		slog.Info("shop closed")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port (overrides config)")
	serveCmd.Flags().StringVar(&adminKey, "admin-key", "", "Bearer token for save, load and profile (or set PAWNSHOP_ADMIN_KEY)")
}
