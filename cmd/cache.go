package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/library"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStatus reports on the signed-in user's cached collection.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if r.user == nil {
		return fmt.Errorf("%w: the cache is only used when signed in", shared.ErrNotAuthenticated)
	}

	status, err := r.library.CacheStatus(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}
	return r.writePlain("%s\n", formatter.RenderCacheStatus(status))
}

// CacheClear drops the signed-in user's cached collection. The next load reads the remote store.
//
// With --all, every user's cached collection is dropped and no sign-in is needed.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if cmd.Bool("all") {
		return r.clearAllCaches(ctx)
	}
	if r.user == nil {
		return fmt.Errorf("%w: the cache is only used when signed in", shared.ErrNotAuthenticated)
	}

	if err := r.library.ClearCache(ctx); err != nil {
		return err
	}
	r.logger.Info("cache cleared", "user", r.user.Email)
	return r.writePlain("✓ Cache cleared\n")
}

func (r *Runner) clearAllCaches(ctx context.Context) error {
	keys, err := r.kv.Keys(ctx, library.CacheKeyPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := r.kv.Delete(ctx, k); err != nil {
			return err
		}
	}

	r.logger.Info("caches cleared", "count", len(keys))
	return r.writePlain("✓ Cleared %d cached collections\n", len(keys))
}

// Migrate copies local-only songs into the signed-in user's collection.
//
// Sign-in already does this; the command retries after a failed migration.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if r.user == nil {
		return fmt.Errorf("%w: sign in with \"auth login\" first", shared.ErrNotAuthenticated)
	}

	n, err := r.library.MigrateLocalIntoRemote(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.writePlain("Nothing to migrate\n")
	}
	return r.writePlain("✓ Migrated %d songs\n", n)
}
