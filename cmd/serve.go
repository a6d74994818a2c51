package main

import (
	"cmp"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/crates/internal/server"
)

// Serve exposes the store over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	cfg := r.config.Server
	cfg.Host = cmp.Or(cmd.String("host"), cfg.Host)
	cfg.Port = cmp.Or(cmd.Int("port"), cfg.Port)

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewRecordsHandler(store, r.logger))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx, server.New(cfg, router), r.logger)
}
