// iTunes Search API [Provider] implementation
//
// https://performance-partners.apple.com/search-api
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
)

const defaultITunesBaseURL = "https://itunes.apple.com"

// ITunesResult is a single song in an iTunes search response.
type ITunesResult struct {
	TrackID         int64  `json:"trackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	CollectionName  string `json:"collectionName"`
	CollectionID    int64  `json:"collectionId"`
	TrackTimeMillis int    `json:"trackTimeMillis"`
	ArtworkURL100   string `json:"artworkUrl100"`
	ArtworkURL60    string `json:"artworkUrl60"`
	ArtworkURL30    string `json:"artworkUrl30"`
	ReleaseDate     string `json:"releaseDate"`
}

// ITunesResponse is the envelope of /search.
type ITunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []ITunesResult `json:"results"`
}

// ITunesProvider searches one iTunes storefront.
type ITunesProvider struct {
	id         string
	name       string
	country    string
	baseURL    string
	httpClient *http.Client
}

// NewITunesProvider creates the domestic (CN storefront) provider.
func NewITunesProvider(baseURL string, client *http.Client) *ITunesProvider {
	return newITunes(ProviderITunes, "Apple Music", "CN", baseURL, client)
}

// NewITunesIntlProvider creates the international (US storefront) provider.
func NewITunesIntlProvider(baseURL string, client *http.Client) *ITunesProvider {
	return newITunes(ProviderITunesIntl, "iTunes International", "US", baseURL, client)
}

func newITunes(id, name, country, baseURL string, client *http.Client) *ITunesProvider {
	if baseURL == "" {
		baseURL = defaultITunesBaseURL
	}
	return &ITunesProvider{
		id:         id,
		name:       name,
		country:    country,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultClient(client),
	}
}

func (p *ITunesProvider) ID() string      { return p.id }
func (p *ITunesProvider) Name() string    { return p.name }
func (p *ITunesProvider) Country() string { return p.country }

// Search calls GET /search?term={keyword}&entity=song&limit={limit}&country={country}.
func (p *ITunesProvider) Search(ctx context.Context, keyword string, limit int) ([]models.ProviderSong, error) {
	if limit <= 0 {
		limit = 20
	}

	q := url.Values{}
	q.Set("term", keyword)
	q.Set("entity", "song")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("country", p.country)
	endpoint := fmt.Sprintf("%s/search?%s", p.baseURL, q.Encode())

	var resp ITunesResponse
	if err := getJSON(ctx, p.httpClient, p.id, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	songs := make([]models.ProviderSong, 0, len(resp.Results))
	for _, r := range resp.Results {
		songs = append(songs, p.normalize(r))
	}
	p.fillAlbumCovers(ctx, resp.Results, songs)
	return songs, nil
}

// fillAlbumCovers resolves missing track artwork from the album's collection record through
// GET /lookup?id={collectionId,...}. Lookup failures leave the covers blank.
func (p *ITunesProvider) fillAlbumCovers(ctx context.Context, results []ITunesResult, songs []models.ProviderSong) {
	var ids []string
	seen := make(map[int64]bool)
	for i, r := range results {
		if songs[i].CoverURL != "" || r.CollectionID == 0 || seen[r.CollectionID] {
			continue
		}
		seen[r.CollectionID] = true
		ids = append(ids, strconv.FormatInt(r.CollectionID, 10))
	}
	if len(ids) == 0 {
		return
	}

	q := url.Values{}
	q.Set("id", strings.Join(ids, ","))
	q.Set("country", p.country)

	var resp ITunesResponse
	if err := getJSON(ctx, p.httpClient, p.id, p.baseURL+"/lookup?"+q.Encode(), nil, &resp); err != nil {
		return
	}

	covers := make(map[int64]string, len(resp.Results))
	for _, c := range resp.Results {
		if cover := firstCover(c.ArtworkURL100, c.ArtworkURL60, c.ArtworkURL30); cover != "" {
			covers[c.CollectionID] = cover
		}
	}
	for i, r := range results {
		if songs[i].CoverURL == "" {
			songs[i].CoverURL = covers[r.CollectionID]
		}
	}
}

func (p *ITunesProvider) normalize(r ITunesResult) models.ProviderSong {
	id := ""
	if r.TrackID != 0 {
		id = strconv.FormatInt(r.TrackID, 10)
	}
	return models.ProviderSong{
		ID:          id,
		Name:        r.TrackName,
		Artist:      r.ArtistName,
		Album:       r.CollectionName,
		CoverURL:    firstCover(r.ArtworkURL100, r.ArtworkURL60, r.ArtworkURL30),
		ReleaseDate: releaseDate(r.ReleaseDate),
		Duration:    r.TrackTimeMillis / 1000,
		Source:      p.id,
	}
}
