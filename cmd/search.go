package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the metadata providers without touching the collection.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", shared.ErrInvalidFlag)
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	provider := cmd.String("provider")
	r.logger.Debug("searching", "query", query, "provider", provider, "limit", limit)

	results, err := r.gateway.Search(ctx, query, provider, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if results == nil {
			results = []models.ProviderSong{}
		}
		return r.writeJSON(results, true)
	}
	return r.writePlain("%s\n", formatter.RenderProviderResults(results))
}

// Providers lists the registered metadata providers.
func (r *Runner) Providers(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	providers := r.gateway.Providers()
	if cmd.Bool("json") {
		return r.writeJSON(providers, true)
	}
	return r.writePlain("%s\n", formatter.RenderProviders(providers))
}
