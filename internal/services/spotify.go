// Spotify Web API [Provider] implementation
//
// Catalog search only needs an app token, so authentication uses the client credentials grant.
// Response types based on https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ReleaseDate          string         `json:"release_date"`
	ReleaseDatePrecision string         `json:"release_date_precision"` // year, month, day
	Images               []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

// SpotifySearchResponse is the envelope of /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyProvider searches the Spotify catalog with an app-only token.
type SpotifyProvider struct {
	baseURL    string
	market     string
	httpClient *http.Client
}

// SpotifyOptions overrides endpoints and transport, mainly for tests.
type SpotifyOptions struct {
	BaseURL  string
	TokenURL string
	Market   string
	Client   *http.Client
}

// NewSpotifyProvider creates a provider whose HTTP client fetches and refreshes a client-credentials token.
func NewSpotifyProvider(creds shared.SpotifyConfig, opts SpotifyOptions) (*SpotifyProvider, error) {
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	base := defaultClient(opts.Client)
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: cfg.TokenSource(tokenCtx),
			Base:   base.Transport,
		},
	}

	return &SpotifyProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		market:     opts.Market,
		httpClient: client,
	}, nil
}

func (s *SpotifyProvider) ID() string   { return ProviderSpotify }
func (s *SpotifyProvider) Name() string { return "Spotify" }

// Search calls GET /search?q={keyword}&type=track&limit={limit}.
func (s *SpotifyProvider) Search(ctx context.Context, keyword string, limit int) ([]models.ProviderSong, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	q := url.Values{}
	q.Set("q", keyword)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	if s.market != "" {
		q.Set("market", s.market)
	}

	var resp SpotifySearchResponse
	if err := getJSON(ctx, s.httpClient, ProviderSpotify, s.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	songs := make([]models.ProviderSong, 0, len(resp.Tracks.Items))
	for _, t := range resp.Tracks.Items {
		songs = append(songs, normalizeSpotify(t))
	}
	return songs, nil
}

func normalizeSpotify(t SpotifyTrack) models.ProviderSong {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	return models.ProviderSong{
		ID:          t.ID,
		Name:        t.Name,
		Artist:      strings.Join(names, ", "),
		Album:       t.Album.Name,
		CoverURL:    spotifyCover(t.Album.Images),
		ReleaseDate: releaseDate(t.Album.ReleaseDate),
		Duration:    t.DurationMS / 1000,
		Source:      ProviderSpotify,
	}
}

// spotifyCover picks the smallest image at least [CoverSize] wide, else the largest.
func spotifyCover(images []SpotifyImage) string {
	var best, largest *SpotifyImage
	for i := range images {
		img := &images[i]
		if img.URL == "" {
			continue
		}
		if largest == nil || img.Width > largest.Width {
			largest = img
		}
		if img.Width >= CoverSize && (best == nil || img.Width < best.Width) {
			best = img
		}
	}

	switch {
	case best != nil:
		return NormalizeURL(best.URL)
	case largest != nil:
		return NormalizeURL(largest.URL)
	}
	return ""
}
