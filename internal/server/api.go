package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/library"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/services"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/desertthunder/melodylog/internal/tasks"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	maxBodyBytes       = 8 << 20
)

var timeNow = time.Now

// Searcher is the part of [services.Gateway] the API exposes.
type Searcher interface {
	Search(ctx context.Context, keyword, providerID string, limit int) ([]models.ProviderSong, error)
	Providers() []services.ProviderInfo
}

// APIOptions configures [NewAPI]. A nil Importer disables POST /api/import; a nil Search
// disables the search and provider endpoints.
type APIOptions struct {
	Importer    *tasks.Importer
	Search      Searcher
	SmartMatch  bool
	ReportLimit int
	Logger      *log.Logger
}

// API serves the song library as JSON.
type API struct {
	lib  *library.Library
	opts APIOptions
	log  *log.Logger
}

func NewAPI(lib *library.Library, opts APIOptions) *API {
	if opts.ReportLimit <= 0 {
		opts.ReportLimit = models.DefaultReportLimit
	}
	return &API{lib: lib, opts: opts, log: shared.WithLogger(opts.Logger, "component", "api")}
}

// Register mounts every endpoint on r.
func (a *API) Register(r *BasicRouter) {
	g := r.Group("/api")
	g.HandleFunc(http.MethodGet, "/songs", a.listSongs)
	g.HandleFunc(http.MethodPost, "/songs", a.addSong)
	g.HandleFunc(http.MethodGet, "/songs/{id}", a.getSong)
	g.HandleFunc(http.MethodPut, "/songs/{id}", a.updateSong)
	g.HandleFunc(http.MethodDelete, "/songs/{id}", a.deleteSong)
	g.HandleFunc(http.MethodPost, "/import", a.importSongs)
	g.HandleFunc(http.MethodGet, "/export.csv", a.exportCSV)
	g.HandleFunc(http.MethodGet, "/stats", a.stats)
	g.HandleFunc(http.MethodGet, "/search", a.search)
	g.HandleFunc(http.MethodGet, "/providers", a.providers)
	g.HandleFunc(http.MethodGet, "/status", a.status)
}

// NewHandler builds the full middleware-wrapped handler for api.
func NewHandler(api *API, logger *log.Logger) http.Handler {
	logger = shared.WithLogger(logger, "component", "http")
	r := NewBasicRouter()
	r.Use(Recover(logger), Logging(logger))
	api.Register(r)
	logger.Debug("registered routes", "routes", r.Routes())
	return r
}

type songsResponse struct {
	Songs []models.Song `json:"songs"`
	Total int           `json:"total"`
	State string        `json:"state"`
}

func (a *API) listSongs(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.LoadIfNeeded(r.Context()); err != nil {
		a.fail(w, err)
		return
	}

	q := r.URL.Query()
	key, err := models.ParseSortKey(q.Get("sort"))
	if err != nil {
		a.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
		return
	}

	all := a.lib.Songs()
	songs := models.Filter(all, q.Get("q"))
	if q.Has("sort") {
		desc, _ := strconv.ParseBool(q.Get("desc"))
		songs = models.SortSongs(songs, models.SortOptions{Key: key, Descending: desc})
	}
	if songs == nil {
		songs = []models.Song{}
	}

	writeJSON(w, http.StatusOK, songsResponse{Songs: songs, Total: len(all), State: a.lib.State().String()})
}

func (a *API) getSong(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.LoadIfNeeded(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	song, err := a.lib.Find(r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (a *API) addSong(w http.ResponseWriter, r *http.Request) {
	var form library.SongForm
	if !a.decode(w, r, &form) {
		return
	}

	song, err := a.lib.AddSong(r.Context(), form)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (a *API) updateSong(w http.ResponseWriter, r *http.Request) {
	var form library.SongForm
	if !a.decode(w, r, &form) {
		return
	}

	song, err := a.lib.EditSong(r.Context(), r.PathValue("id"), form)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (a *API) deleteSong(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importRequest carries lines as a list, as raw text split on newlines, or as a CSV export.
type importRequest struct {
	Lines      []string `json:"lines"`
	Text       string   `json:"text"`
	CSV        string   `json:"csv"`
	SmartMatch *bool    `json:"smartMatch"`
}

type importResponse struct {
	*models.ImportReport
	Message string `json:"message"`
}

func (a *API) importSongs(w http.ResponseWriter, r *http.Request) {
	if a.opts.Importer == nil {
		writeError(w, http.StatusNotImplemented, "import is not configured")
		return
	}

	var req importRequest
	if !a.decode(w, r, &req) {
		return
	}

	lines := append([]string{}, req.Lines...)
	if req.Text != "" {
		lines = append(lines, strings.Split(req.Text, "\n")...)
	}
	if req.CSV != "" {
		csvLines, err := formatter.CSVToLines(strings.NewReader(req.CSV))
		if err != nil {
			a.fail(w, err)
			return
		}
		lines = append(lines, csvLines...)
	}
	if len(lines) == 0 {
		a.fail(w, fmt.Errorf("%w: no lines to import", shared.ErrInvalidInput))
		return
	}

	opts := tasks.ImportOptions{SmartMatch: a.opts.SmartMatch}
	if req.SmartMatch != nil {
		opts.SmartMatch = *req.SmartMatch
	}

	report, err := a.lib.Import(r.Context(), a.opts.Importer, nil, lines, opts)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{ImportReport: report, Message: report.Summary(a.opts.ReportLimit)})
}

func (a *API) exportCSV(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.LoadIfNeeded(r.Context()); err != nil {
		a.fail(w, err)
		return
	}

	export := formatter.ExportToCSV
	if queryBool(r, "rich") {
		export = formatter.ExportToRichCSV
	}

	data, err := export(a.lib.Songs())
	if err != nil {
		a.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, formatter.ExportFilename(timeNow(), "csv")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.LoadIfNeeded(r.Context()); err != nil {
		a.fail(w, err)
		return
	}

	stats := models.Stats(a.lib.Songs())
	if !queryBool(r, "songs") {
		for i := range stats.Artists {
			stats.Artists[i].Songs = nil
		}
		for i := range stats.Albums {
			stats.Albums[i].Songs = nil
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

type searchResponse struct {
	Provider string                `json:"provider,omitempty"`
	Results  []models.ProviderSong `json:"results"`
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	if a.opts.Search == nil {
		writeError(w, http.StatusNotImplemented, "search is not configured")
		return
	}

	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("q"))
	if keyword == "" {
		a.fail(w, fmt.Errorf("%w: q is required", shared.ErrMissingArgument))
		return
	}

	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.fail(w, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidArgument))
			return
		}
		limit = min(n, maxSearchLimit)
	}

	provider := q.Get("provider")
	results, err := a.opts.Search.Search(r.Context(), keyword, provider, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	if results == nil {
		results = []models.ProviderSong{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Provider: provider, Results: results})
}

func (a *API) providers(w http.ResponseWriter, _ *http.Request) {
	if a.opts.Search == nil {
		writeJSON(w, http.StatusOK, []services.ProviderInfo{})
		return
	}
	writeJSON(w, http.StatusOK, a.opts.Search.Providers())
}

type statusResponse struct {
	State  string             `json:"state"`
	UserID string             `json:"userId,omitempty"`
	Policy string             `json:"policy"`
	Cache  models.CacheStatus `json:"cache"`
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	cache, err := a.lib.CacheStatus(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		State:  a.lib.State().String(),
		UserID: a.lib.UserID(),
		Policy: a.lib.Policy().String(),
		Cache:  cache,
	})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps err onto a status code. Unexpected errors are logged and hidden from the client.
func (a *API) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", "err", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidSong),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, shared.ErrSongNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
