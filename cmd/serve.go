package main

import (
	"context"
	"time"

	"github.com/desertthunder/melodylog/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Serve exposes the library over the JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	api := server.NewAPI(r.library, server.APIOptions{
		Importer:    r.importer,
		Search:      r.gateway,
		SmartMatch:  r.config.Import.SmartMatch,
		ReportLimit: r.reportLimit(),
		Logger:      r.logger,
	})
	srv := server.New(addr, server.NewHandler(api, r.logger), r.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("serving", "addr", srv.Addr(), "policy", r.library.Policy())
		return srv.Run(gctx)
	})
	if r.user != nil {
		g.Go(func() error { return r.refresh(gctx, r.library.Cache().TTL()) })
	}
	return g.Wait()
}

// refresh reloads the signed-in collection each time the cache would expire, so the API keeps
// serving remote changes made elsewhere.
func (r *Runner) refresh(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.library.LoadAll(ctx, nil); err != nil {
				r.logger.Warn("background reload failed", "error", err)
			}
		}
	}
}
