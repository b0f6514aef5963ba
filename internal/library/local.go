package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/melodylog/internal/models"
)

// LocalKey is the storage key of the local-only collection.
const LocalKey = "melodylog_songs"

// LocalStore keeps the whole collection as one JSON array under [LocalKey].
type LocalStore struct {
	store Storage
}

func NewLocalStore(store Storage) *LocalStore {
	return &LocalStore{store: store}
}

// Load returns the stored collection, or an empty list when nothing is stored.
func (s *LocalStore) Load(ctx context.Context) ([]models.Song, error) {
	raw, ok, err := s.store.Get(ctx, LocalKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.Song{}, nil
	}

	var songs []models.Song
	if err := json.Unmarshal([]byte(raw), &songs); err != nil {
		return nil, fmt.Errorf("failed to decode local songs: %w", err)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

// Save overwrites the stored collection.
func (s *LocalStore) Save(ctx context.Context, songs []models.Song) error {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("failed to encode local songs: %w", err)
	}
	return s.store.Set(ctx, LocalKey, string(data))
}

// Clear removes the stored collection.
func (s *LocalStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, LocalKey)
}
