package library

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// DefaultCacheTTL is how long a cached collection stays valid after it is written.
const DefaultCacheTTL = time.Hour

// CacheKeyPrefix starts every cached collection key.
const CacheKeyPrefix = "melodylog_cache_"

// CacheKey returns the storage key of a user's cached collection.
func CacheKey(userID string) string { return CacheKeyPrefix + userID }

// Cache mirrors a remote collection in local storage with a fixed time-to-live.
//
// An expired or unreadable entry is deleted by the read that finds it.
type Cache struct {
	store  Storage
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewCache creates a cache over store. A non-positive ttl uses [DefaultCacheTTL].
func NewCache(store Storage, ttl time.Duration, logger *log.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{store: store, ttl: ttl, now: time.Now, logger: shared.WithLogger(logger, "component", "cache")}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached songs for userID. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, userID string) ([]models.Song, bool, error) {
	key := CacheKey(userID)
	entry, ok, err := c.read(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	if !entry.Valid(c.now()) {
		c.logger.Debug("cache entry expired", "key", key, "expireAt", entry.ExpireAt)
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set replaces the cached songs for userID, restarting the expiry clock.
func (c *Cache) Set(ctx context.Context, userID string, songs []models.Song) error {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := json.Marshal(models.NewCacheEntry(songs, c.now(), c.ttl))
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.store.Set(ctx, CacheKey(userID), string(data))
}

// Clear removes the cached songs for userID.
func (c *Cache) Clear(ctx context.Context, userID string) error {
	return c.store.Delete(ctx, CacheKey(userID))
}

// Status reports on the entry for userID without deleting it, even when expired.
func (c *Cache) Status(ctx context.Context, userID string) (models.CacheStatus, error) {
	raw, ok, err := c.store.Get(ctx, CacheKey(userID))
	if err != nil || !ok {
		return models.CacheStatus{}, err
	}

	var entry models.CacheEntry[json.RawMessage]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return models.CacheStatus{Present: true}, nil
	}
	return models.CacheStatus{
		Present:   true,
		Valid:     entry.Valid(c.now()),
		Timestamp: entry.Timestamp,
		ExpireAt:  entry.ExpireAt,
	}, nil
}

func (c *Cache) read(ctx context.Context, key string) (models.CacheEntry[[]models.Song], bool, error) {
	var entry models.CacheEntry[[]models.Song]

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return entry, false, err
	}

	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return entry, false, c.store.Delete(ctx, key)
	}
	return entry, true, nil
}
