package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// ProviderInfo describes a registered provider for listings.
type ProviderInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// Gateway routes searches to registered providers.
//
// When the caller leaves the provider unset or names the default, the default provider is used
// and, on failure, each fallback is tried in order until one succeeds. Any other provider named
// explicitly is never substituted.
type Gateway struct {
	providers   map[string]Provider
	defaultID   string
	fallbackIDs []string
	logger      *log.Logger
}

// NewGateway registers providers. The first provider becomes the default unless [Gateway.SetDefault] is called.
func NewGateway(logger *log.Logger, providers ...Provider) *Gateway {
	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		logger:    shared.WithLogger(logger, "component", "gateway"),
	}
	for _, p := range providers {
		g.Register(p)
	}
	return g
}

// Register adds or replaces a provider.
func (g *Gateway) Register(p Provider) {
	if g.defaultID == "" {
		g.defaultID = p.ID()
	}
	g.providers[p.ID()] = p
}

// SetDefault selects the provider used when a search does not name one.
func (g *Gateway) SetDefault(id string) error {
	if _, ok := g.providers[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnsupportedProvider, id)
	}
	g.defaultID = id
	return nil
}

// SetFallback sets the ordered alternates tried when the default provider fails.
// Unregistered ids are skipped at search time.
func (g *Gateway) SetFallback(ids ...string) {
	g.fallbackIDs = append([]string(nil), ids...)
}

// Default returns the default provider id.
func (g *Gateway) Default() string { return g.defaultID }

// Providers lists registered providers sorted by id.
func (g *Gateway) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(g.providers))
	for id, p := range g.providers {
		infos = append(infos, ProviderInfo{ID: id, Name: p.Name(), Default: id == g.defaultID})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Search queries providerID. An empty providerID selects the default; searches on the
// default provider fall back through the configured alternates.
func (g *Gateway) Search(ctx context.Context, keyword, providerID string, limit int) ([]models.ProviderSong, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty search keyword", shared.ErrInvalidInput)
	}

	pinned := providerID != "" && providerID != g.defaultID
	if providerID == "" {
		providerID = g.defaultID
	}

	p, ok := g.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedProvider, providerID)
	}

	songs, err := p.Search(ctx, keyword, limit)
	if err == nil || pinned || ctx.Err() != nil {
		return songs, err
	}

	g.logger.Warn("provider failed", "provider", providerID, "err", err)
	for _, id := range g.fallbackIDs {
		alt, ok := g.providers[id]
		if !ok || id == providerID {
			continue
		}

		g.logger.Info("trying fallback provider", "provider", id)
		songs, altErr := alt.Search(ctx, keyword, limit)
		if altErr == nil {
			return songs, nil
		}
		g.logger.Warn("fallback provider failed", "provider", id, "err", altErr)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, err
}

// GatewayOptions carries the configuration for [NewConfiguredGateway].
type GatewayOptions struct {
	Config shared.ProvidersConfig
	Creds  shared.SpotifyConfig
	Client *http.Client
}

// NewConfiguredGateway builds a gateway with every provider the configuration allows.
//
// Spotify is registered only when client credentials are present.
func NewConfiguredGateway(logger *log.Logger, opts GatewayOptions) (*Gateway, error) {
	client := opts.Client
	if client == nil {
		timeout := opts.Config.Timeout.Duration
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	g := NewGateway(logger,
		NewITunesProvider(opts.Config.ITunesURL, client),
		NewITunesIntlProvider(opts.Config.ITunesURL, client),
		NewYouTubeProvider(opts.Config.YTMusicProxy, client),
	)

	if opts.Creds.Configured() {
		sp, err := NewSpotifyProvider(opts.Creds, SpotifyOptions{Client: client})
		if err != nil {
			return nil, err
		}
		g.Register(sp)
	}

	if opts.Config.Default != "" {
		if err := g.SetDefault(opts.Config.Default); err != nil {
			if errors.Is(err, shared.ErrUnsupportedProvider) && opts.Config.Default == ProviderSpotify {
				return nil, fmt.Errorf("%w: default provider spotify needs credentials", shared.ErrMissingCredentials)
			}
			return nil, err
		}
	}
	g.SetFallback(opts.Config.Fallback...)
	return g, nil
}
