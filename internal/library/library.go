package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/desertthunder/melodylog/internal/tasks"
)

// Storage is the get/set/delete port behind local-only songs, the cache, and the session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SongStore is a user-scoped song table: SQLite rows or a hosted PostgREST table.
type SongStore interface {
	List(ctx context.Context, userID string) ([]models.Song, error)
	Insert(ctx context.Context, userID string, song models.Song) (models.Song, error)
	InsertMany(ctx context.Context, userID string, songs []models.Song) ([]models.Song, error)
	Update(ctx context.Context, userID string, song models.Song) (models.Song, error)
	Delete(ctx context.Context, userID, id string) error
	IDs(ctx context.Context, userID string) ([]string, error)
}

// Policy is the write discipline of the active backing mode.
type Policy int

const (
	// Optimistic updates memory first, then overwrites local storage.
	Optimistic Policy = iota
	// Confirmed writes remotely first and touches memory and cache only on success.
	Confirmed
)

func (p Policy) String() string {
	if p == Confirmed {
		return "confirmed-write"
	}
	return "optimistic-write"
}

// State is the session-to-data binding.
type State int

const (
	SignedOut State = iota
	Loading
	Ready
	ReadyFromCache
	ReadyEmpty
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "SIGNED_OUT"
	case Loading:
		return "LOADING"
	case Ready:
		return "READY"
	case ReadyFromCache:
		return "READY_FROM_CACHE"
	case ReadyEmpty:
		return "READY_EMPTY"
	default:
		return ""
	}
}

// Options configures [New].
type Options struct {
	CacheTTL   time.Duration
	Reconciler *tasks.Reconciler
	Logger     *log.Logger
}

// Library owns the in-memory song list and routes every mutation to the active backing mode.
//
// Without a signed-in user it runs in local-only mode; after [Library.SignIn] it runs in
// remote mode against the [SongStore], mirrored into a [Cache].
type Library struct {
	ops sync.Mutex // serializes operations

	mu     sync.RWMutex // guards the fields below
	userID string
	state  State
	songs  []models.Song
	loaded bool

	local      *LocalStore
	cache      *Cache
	remote     SongStore
	reconciler *tasks.Reconciler
	logger     *log.Logger
}

// New creates a signed-out library. remote may be nil when only local-only mode is available.
func New(store Storage, remote SongStore, opts Options) *Library {
	logger := shared.WithLogger(opts.Logger, "component", "library")
	return &Library{
		state:      SignedOut,
		songs:      []models.Song{},
		local:      NewLocalStore(store),
		cache:      NewCache(store, opts.CacheTTL, opts.Logger),
		remote:     remote,
		reconciler: opts.Reconciler,
		logger:     logger,
	}
}

// Songs returns a copy of the current list, newest first.
func (l *Library) Songs() []models.Song {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSongs(l.songs)
}

// State returns the current session state.
func (l *Library) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// UserID returns the signed-in user, or "" in local-only mode.
func (l *Library) UserID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.userID
}

// Policy returns the write policy of the active mode.
func (l *Library) Policy() Policy {
	if l.UserID() != "" {
		return Confirmed
	}
	return Optimistic
}

// Cache exposes the collection cache.
func (l *Library) Cache() *Cache { return l.cache }

// Find returns the song with id from the in-memory list.
func (l *Library) Find(id string) (models.Song, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.songs {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
}

// LoadAll populates the in-memory list from the active backing mode.
//
// In remote mode a valid cache entry is handed to onCache before the remote fetch starts.
// The authoritative result then replaces memory and cache. A failed fetch keeps the cache
// when there is one, else falls back to local-only storage; it never returns a persistence error.
func (l *Library) LoadAll(ctx context.Context, onCache func([]models.Song)) error {
	l.ops.Lock()
	defer l.ops.Unlock()
	return l.loadAll(ctx, onCache)
}

// LoadIfNeeded runs [Library.LoadAll] unless the active collection was already loaded.
func (l *Library) LoadIfNeeded(ctx context.Context) error {
	l.ops.Lock()
	defer l.ops.Unlock()
	return l.ensureLoaded(ctx)
}

func (l *Library) loadAll(ctx context.Context, onCache func([]models.Song)) error {
	userID := l.UserID()
	if userID == "" {
		songs, err := l.local.Load(ctx)
		if err != nil {
			l.logger.Warn("local storage unreadable, starting empty", "err", err)
			songs = []models.Song{}
		}
		l.setSongs(songs, SignedOut)
		return nil
	}

	l.setState(Loading)

	cached, hit, err := l.cache.Get(ctx, userID)
	if err != nil {
		l.logger.Warn("cache read failed", "err", err)
	}
	if hit {
		l.setSongs(cached, Loading)
		if onCache != nil {
			onCache(cloneSongs(cached))
		}
	}

	songs, err := l.remote.List(ctx, userID)
	if err == nil {
		l.setSongs(songs, Ready)
		if err := l.cache.Set(ctx, userID, songs); err != nil {
			l.logger.Warn("cache write failed", "err", err)
		}
		l.logger.Debug("loaded remote songs", "count", len(songs))
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if hit {
		l.logger.Warn("remote load failed, showing cached songs", "err", err)
		l.setSongs(cached, ReadyFromCache)
		return nil
	}

	l.logger.Warn("remote load failed with no cache, falling back to local storage", "err", err)
	local, lerr := l.local.Load(ctx)
	if lerr != nil || len(local) == 0 {
		l.setSongs([]models.Song{}, ReadyEmpty)
		return nil
	}
	l.setSongs(local, ReadyFromCache)
	return nil
}

// Add stores one song. Implements [tasks.SongSink].
func (l *Library) Add(ctx context.Context, song models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}

	l.ops.Lock()
	defer l.ops.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	userID := l.UserID()
	if userID == "" {
		songs := append([]models.Song{song}, l.Songs()...)
		l.setSongs(songs, SignedOut)
		return persistErr("save local songs", l.local.Save(ctx, songs))
	}

	saved, err := l.remote.Insert(ctx, userID, song)
	if err != nil {
		return persistErr("add song", err)
	}
	l.commit(ctx, userID, append([]models.Song{saved}, l.Songs()...))
	return nil
}

// AddMany stores songs in one operation. Implements [tasks.BatchSink].
//
// Unlike [Library.Add], a local batch is all-or-nothing: memory changes only after the save
// succeeds, so a caller may retry the songs one by one without duplicating ids.
func (l *Library) AddMany(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	for _, s := range songs {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	l.ops.Lock()
	defer l.ops.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	userID := l.UserID()
	if userID == "" {
		before := l.Songs()
		all := append(newestFirst(songs), before...)
		if err := l.local.Save(ctx, all); err != nil {
			return persistErr("save local songs", err)
		}
		l.setSongs(all, SignedOut)
		return nil
	}

	saved, err := l.remote.InsertMany(ctx, userID, songs)
	if err != nil {
		return persistErr("add songs", err)
	}
	if len(saved) == 0 {
		saved = songs
	}
	l.commit(ctx, userID, append(newestFirst(saved), l.Songs()...))
	return nil
}

// Update replaces the stored song with the same id.
func (l *Library) Update(ctx context.Context, song models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}

	l.ops.Lock()
	defer l.ops.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	songs := l.Songs()
	idx := indexOf(songs, song.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, song.ID)
	}

	userID := l.UserID()
	if userID == "" {
		songs[idx] = song
		l.setSongs(songs, SignedOut)
		return persistErr("save local songs", l.local.Save(ctx, songs))
	}

	saved, err := l.remote.Update(ctx, userID, song)
	if err != nil {
		return persistErr("update song", err)
	}
	songs[idx] = saved
	l.commit(ctx, userID, songs)
	return nil
}

// Delete removes the song with id.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.ops.Lock()
	defer l.ops.Unlock()
	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	songs := l.Songs()
	idx := indexOf(songs, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	songs = append(songs[:idx], songs[idx+1:]...)

	userID := l.UserID()
	if userID == "" {
		l.setSongs(songs, SignedOut)
		return persistErr("save local songs", l.local.Save(ctx, songs))
	}

	if err := l.remote.Delete(ctx, userID, id); err != nil {
		return persistErr("delete song", err)
	}
	l.commit(ctx, userID, songs)
	return nil
}

// SignIn binds the library to userID, migrates any local-only songs, and loads the remote collection.
//
// A failed migration is logged and leaves local-only storage untouched for the next attempt.
func (l *Library) SignIn(ctx context.Context, userID string, onCache func([]models.Song)) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if l.remote == nil {
		return fmt.Errorf("%w: no remote song store configured", shared.ErrMissingConfig)
	}

	l.ops.Lock()
	defer l.ops.Unlock()

	l.mu.Lock()
	l.userID = userID
	l.state = Loading
	l.songs = []models.Song{}
	l.loaded = false
	l.mu.Unlock()

	if n, err := l.migrate(ctx, userID); err != nil {
		l.logger.Warn("local song migration failed", "err", err)
	} else if n > 0 {
		l.logger.Info("migrated local songs", "count", n)
	}

	return l.loadAll(ctx, onCache)
}

// SignOut clears the in-memory list and the user's cache entry and returns to local-only mode.
func (l *Library) SignOut(ctx context.Context) error {
	l.ops.Lock()
	defer l.ops.Unlock()

	userID := l.UserID()

	l.mu.Lock()
	l.userID = ""
	l.state = SignedOut
	l.songs = []models.Song{}
	l.loaded = false
	l.mu.Unlock()

	if userID == "" {
		return nil
	}
	return persistErr("clear cache", l.cache.Clear(ctx, userID))
}

// MigrateLocalIntoRemote copies local-only songs into the signed-in user's remote collection.
//
// Into an empty remote every local song is inserted; otherwise only songs whose ids are not
// already present. Local-only storage is cleared after a successful insert. Returns the
// number of songs inserted.
func (l *Library) MigrateLocalIntoRemote(ctx context.Context) (int, error) {
	l.ops.Lock()
	defer l.ops.Unlock()

	userID := l.UserID()
	if userID == "" {
		return 0, shared.ErrNotAuthenticated
	}
	return l.migrate(ctx, userID)
}

func (l *Library) migrate(ctx context.Context, userID string) (int, error) {
	local, err := l.local.Load(ctx)
	if err != nil {
		return 0, persistErr("read local songs", err)
	}
	if len(local) == 0 {
		return 0, nil
	}

	ids, err := l.remote.IDs(ctx, userID)
	if err != nil {
		return 0, persistErr("list remote ids", err)
	}

	pending := local
	if len(ids) > 0 {
		present := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			present[id] = struct{}{}
		}
		pending = pending[:0:0]
		for _, s := range local {
			if _, ok := present[s.ID]; !ok {
				pending = append(pending, s)
			}
		}
	}

	if len(pending) > 0 {
		if _, err := l.remote.InsertMany(ctx, userID, pending); err != nil {
			return 0, persistErr("migrate local songs", err)
		}
	}

	if err := l.local.Clear(ctx); err != nil {
		return len(pending), persistErr("clear local songs", err)
	}
	return len(pending), nil
}

// CacheStatus reports on the signed-in user's cache entry.
func (l *Library) CacheStatus(ctx context.Context) (models.CacheStatus, error) {
	userID := l.UserID()
	if userID == "" {
		return models.CacheStatus{}, nil
	}
	return l.cache.Status(ctx, userID)
}

// ClearCache drops the signed-in user's cache entry.
func (l *Library) ClearCache(ctx context.Context) error {
	userID := l.UserID()
	if userID == "" {
		return nil
	}
	return l.cache.Clear(ctx, userID)
}

// Import runs a bulk import against the current list with the library as sink.
func (l *Library) Import(
	ctx context.Context,
	importer *tasks.Importer,
	progress chan<- tasks.ProgressUpdate,
	lines []string,
	opts tasks.ImportOptions,
) (*models.ImportReport, error) {
	if importer == nil {
		return nil, errors.New("importer is required")
	}

	l.ops.Lock()
	err := l.ensureLoaded(ctx)
	l.ops.Unlock()
	if err != nil {
		return nil, err
	}
	return importer.Import(ctx, progress, lines, l.Songs(), l, opts)
}

// commit replaces memory after a confirmed remote write and refreshes the cache.
func (l *Library) commit(ctx context.Context, userID string, songs []models.Song) {
	l.setSongs(songs, Ready)
	if err := l.cache.Set(ctx, userID, songs); err != nil {
		l.logger.Warn("cache write failed", "err", err)
	}
}

func (l *Library) setSongs(songs []models.Song, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.songs = cloneSongs(songs)
	l.state = state
	l.loaded = true
}

// ensureLoaded loads the active collection once so a first write never overwrites unseen data.
func (l *Library) ensureLoaded(ctx context.Context) error {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return nil
	}
	return l.loadAll(ctx, nil)
}

func (l *Library) setState(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
}

func cloneSongs(songs []models.Song) []models.Song {
	out := make([]models.Song, len(songs))
	for i, s := range songs {
		out[i] = s.Clone()
	}
	return out
}

// newestFirst reverses a batch given in input order so the last line ends up on top.
func newestFirst(songs []models.Song) []models.Song {
	out := make([]models.Song, len(songs))
	for i, s := range songs {
		out[len(songs)-1-i] = s
	}
	return out
}

func indexOf(songs []models.Song, id string) int {
	for i, s := range songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
