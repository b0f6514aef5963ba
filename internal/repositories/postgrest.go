package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

const (
	songsTable         = "songs"
	postgrestUniqueErr = "23505"
)

// PostgRESTClient reads and writes the hosted song table through its REST endpoint.
//
// Every request carries the anon key as apikey; the bearer token is the signed-in user's
// access token when one is set, else the anon key.
type PostgRESTClient struct {
	baseURL     string
	anonKey     string
	accessToken string
	client      *http.Client
}

// APIError is a non-success PostgREST response.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("postgrest: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps unique violations to [shared.ErrDuplicateEntry] and auth failures to [shared.ErrNotAuthenticated].
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == postgrestUniqueErr || e.StatusCode == http.StatusConflict:
		return shared.ErrDuplicateEntry
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return shared.ErrNotAuthenticated
	default:
		return nil
	}
}

// songRow is the wire shape of one table row.
type songRow struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       *string  `json:"album"`
	CoverURL    *string  `json:"coverUrl"`
	ReleaseDate *string  `json:"releaseDate"`
	AddedAt     int64    `json:"addedAt"`
	Duration    int      `json:"duration"`
}

func toRow(userID string, s models.Song) songRow {
	return songRow{
		ID:          s.ID,
		UserID:      userID,
		Title:       s.Title,
		Artists:     s.Artists,
		Album:       s.Album,
		CoverURL:    s.CoverURL,
		ReleaseDate: s.ReleaseDate,
		AddedAt:     s.AddedAt,
		Duration:    s.Duration,
	}
}

func (r songRow) song() models.Song {
	return models.Song{
		ID:          r.ID,
		Title:       r.Title,
		Artists:     r.Artists,
		Album:       models.NonBlank(models.Deref(r.Album)),
		CoverURL:    models.NonBlank(models.Deref(r.CoverURL)),
		ReleaseDate: models.NonBlank(models.Deref(r.ReleaseDate)),
		AddedAt:     r.AddedAt,
		Duration:    r.Duration,
	}
}

// NewPostgRESTClient creates a client for the project at baseURL. A nil client uses a 10 second timeout.
func NewPostgRESTClient(baseURL, anonKey string, client *http.Client) *PostgRESTClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PostgRESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  client,
	}
}

// WithAccessToken returns a copy that authorizes requests as a signed-in user.
func (c *PostgRESTClient) WithAccessToken(token string) *PostgRESTClient {
	cp := *c
	cp.accessToken = token
	return &cp
}

// List returns every song owned by userID, newest first.
func (c *PostgRESTClient) List(ctx context.Context, userID string) ([]models.Song, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", `"addedAt".desc`)

	var rows []songRow
	if err := c.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songsFromRows(rows), nil
}

// Get retrieves one song by id.
func (c *PostgRESTClient) Get(ctx context.Context, userID, id string) (models.Song, error) {
	var rows []songRow
	if err := c.do(ctx, http.MethodGet, rowFilter(userID, id), nil, &rows); err != nil {
		return models.Song{}, fmt.Errorf("failed to get song: %w", err)
	}
	if len(rows) == 0 {
		return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return rows[0].song(), nil
}

// Insert stores one song and returns the stored representation.
func (c *PostgRESTClient) Insert(ctx context.Context, userID string, song models.Song) (models.Song, error) {
	saved, err := c.InsertMany(ctx, userID, []models.Song{song})
	if err != nil {
		return models.Song{}, err
	}
	if len(saved) == 0 {
		return song, nil
	}
	return saved[0], nil
}

// InsertMany stores songs with a single bulk request.
func (c *PostgRESTClient) InsertMany(ctx context.Context, userID string, songs []models.Song) ([]models.Song, error) {
	if len(songs) == 0 {
		return []models.Song{}, nil
	}

	rows := make([]songRow, len(songs))
	for i, s := range songs {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		rows[i] = toRow(userID, s)
	}

	var out []songRow
	if err := c.do(ctx, http.MethodPost, nil, rows, &out); err != nil {
		return nil, fmt.Errorf("failed to insert songs: %w", err)
	}
	return songsFromRows(out), nil
}

// Update overwrites every field of an existing song.
func (c *PostgRESTClient) Update(ctx context.Context, userID string, song models.Song) (models.Song, error) {
	if err := song.Validate(); err != nil {
		return models.Song{}, fmt.Errorf("validation failed: %w", err)
	}

	var out []songRow
	if err := c.do(ctx, http.MethodPatch, rowFilter(userID, song.ID), toRow(userID, song), &out); err != nil {
		return models.Song{}, fmt.Errorf("failed to update song: %w", err)
	}
	if len(out) == 0 {
		return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, song.ID)
	}
	return out[0].song(), nil
}

// Delete removes a song by id.
func (c *PostgRESTClient) Delete(ctx context.Context, userID, id string) error {
	var out []songRow
	if err := c.do(ctx, http.MethodDelete, rowFilter(userID, id), nil, &out); err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if len(out) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}

// IDs returns the ids of every song owned by userID.
func (c *PostgRESTClient) IDs(ctx context.Context, userID string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("user_id", "eq."+userID)

	var rows []struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list song ids: %w", err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// Count returns the number of songs owned by userID.
func (c *PostgRESTClient) Count(ctx context.Context, userID string) (int, error) {
	ids, err := c.IDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func rowFilter(userID, id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+userID)
	return q
}

func songsFromRows(rows []songRow) []models.Song {
	songs := make([]models.Song, len(rows))
	for i, r := range rows {
		songs[i] = r.song()
	}
	return songs
}

// do sends one request to the songs table and decodes the JSON response into out.
func (c *PostgRESTClient) do(ctx context.Context, method string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/rest/v1/" + songsTable
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token := c.accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
