// YouTube Music [Provider] implementation
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps the ytmusicapi Python library; only its search endpoint is used.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
)

const (
	defaultYTBaseURL = "http://localhost:8080"
	// ytDefaultCover is the video thumbnail served for any videoId. Album browse ids have no
	// artwork URL of their own.
	ytDefaultCover = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
)

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeAlbum is the album reference attached to a song result.
type YouTubeAlbum struct {
	Name       string         `json:"name"`
	ID         string         `json:"id"`
	Thumbnails []YouTubeImage `json:"thumbnails,omitempty"`
}

// YouTubeSearchResult is one item of /api/search?filter=songs.
type YouTubeSearchResult struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *YouTubeAlbum   `json:"album"`
	Year        string          `json:"year"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
}

// YouTubeProvider searches YouTube Music through the proxy.
type YouTubeProvider struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeProvider creates a provider for the proxy at baseURL.
func NewYouTubeProvider(baseURL string, client *http.Client) *YouTubeProvider {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	return &YouTubeProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultClient(client),
	}
}

// WithAuthFile sends the ytmusicapi auth file path via X-Auth-File on each request.
func (y *YouTubeProvider) WithAuthFile(path string) *YouTubeProvider {
	y.authFile = path
	return y
}

func (y *YouTubeProvider) ID() string   { return ProviderYTMusic }
func (y *YouTubeProvider) Name() string { return "YouTube Music" }

// Search calls GET /api/search?q={keyword}&filter=songs&limit={limit} on the proxy.
func (y *YouTubeProvider) Search(ctx context.Context, keyword string, limit int) ([]models.ProviderSong, error) {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("filter", "songs")
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}

	var header http.Header
	if y.authFile != "" {
		header = http.Header{"X-Auth-File": []string{y.authFile}}
	}

	var results []YouTubeSearchResult
	if err := getJSON(ctx, y.httpClient, ProviderYTMusic, y.baseURL+"/api/search?"+q.Encode(), header, &results); err != nil {
		return nil, err
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	songs := make([]models.ProviderSong, 0, len(results))
	for _, r := range results {
		songs = append(songs, normalizeYouTube(r))
	}
	return songs, nil
}

func normalizeYouTube(r YouTubeSearchResult) models.ProviderSong {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	song := models.ProviderSong{
		ID:          r.VideoID,
		Name:        r.Title,
		Artist:      strings.Join(names, ", "),
		ReleaseDate: releaseDate(r.Year),
		Duration:    r.DurationSec,
		Source:      ProviderYTMusic,
	}

	var albumThumbs []YouTubeImage
	if r.Album != nil {
		song.Album = r.Album.Name
		albumThumbs = r.Album.Thumbnails
	}

	song.CoverURL = firstCover(largestThumbnail(r.Thumbnails), largestThumbnail(albumThumbs))
	if song.CoverURL == "" && r.VideoID != "" {
		song.CoverURL = fmt.Sprintf(ytDefaultCover, r.VideoID)
	}
	return song
}

func largestThumbnail(images []YouTubeImage) string {
	best := -1
	for i, img := range images {
		if img.URL == "" {
			continue
		}
		if best < 0 || img.Width > images[best].Width {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return images[best].URL
}
