package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

const songColumns = `id, title, artists, album, "coverUrl", "releaseDate", "addedAt", duration`

// SongRepository stores songs as rows scoped by owning user.
//
// Artists are stored as a JSON array. Blank optional columns read back as absent fields.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// List returns every song owned by userID, newest first.
func (r *SongRepository) List(ctx context.Context, userID string) ([]models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = ? ORDER BY "addedAt" DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// Get retrieves one song by id.
func (r *SongRepository) Get(ctx context.Context, userID, id string) (models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = ? AND id = ?`

	s, err := scanSong(r.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return s, err
}

// Insert stores one song. A song whose id already exists for the user fails with [shared.ErrDuplicateEntry].
func (r *SongRepository) Insert(ctx context.Context, userID string, song models.Song) (models.Song, error) {
	if err := song.Validate(); err != nil {
		return models.Song{}, fmt.Errorf("validation failed: %w", err)
	}

	args, err := songArgs(userID, song)
	if err != nil {
		return models.Song{}, err
	}

	if _, err := r.db.ExecContext(ctx, insertSongSQL, args...); err != nil {
		return models.Song{}, insertErr(song, err)
	}
	return song, nil
}

// InsertMany stores songs in one transaction; either all rows are written or none.
func (r *SongRepository) InsertMany(ctx context.Context, userID string, songs []models.Song) ([]models.Song, error) {
	if len(songs) == 0 {
		return []models.Song{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSongSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, song := range songs {
		if err := song.Validate(); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		args, err := songArgs(userID, song)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, insertErr(song, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit songs: %w", err)
	}
	return songs, nil
}

// Update overwrites every field of an existing song.
func (r *SongRepository) Update(ctx context.Context, userID string, song models.Song) (models.Song, error) {
	if err := song.Validate(); err != nil {
		return models.Song{}, fmt.Errorf("validation failed: %w", err)
	}

	artists, err := json.Marshal(song.Artists)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to encode artists: %w", err)
	}

	query := `
		UPDATE songs
		SET title = ?, artists = ?, album = ?, "coverUrl" = ?, "releaseDate" = ?, "addedAt" = ?, duration = ?
		WHERE user_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		song.Title,
		string(artists),
		nullString(song.Album),
		nullString(song.CoverURL),
		nullString(song.ReleaseDate),
		song.AddedAt,
		song.Duration,
		userID,
		song.ID,
	)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to update song: %w", err)
	}

	if err := expectRow(result, song.ID); err != nil {
		return models.Song{}, err
	}
	return song, nil
}

// Delete removes a song by id.
func (r *SongRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return expectRow(result, id)
}

// IDs returns the ids of every song owned by userID.
func (r *SongRepository) IDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM songs WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query song ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan song id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of songs owned by userID.
func (r *SongRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

const insertSongSQL = `
	INSERT INTO songs (user_id, ` + songColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (models.Song, error) {
	var (
		s           models.Song
		artists     string
		album       sql.NullString
		cover       sql.NullString
		releaseDate sql.NullString
	)

	err := row.Scan(&s.ID, &s.Title, &artists, &album, &cover, &releaseDate, &s.AddedAt, &s.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("failed to scan song: %w", err)
	}

	if err := json.Unmarshal([]byte(artists), &s.Artists); err != nil {
		return s, fmt.Errorf("failed to decode artists for %s: %w", s.ID, err)
	}
	s.Album = models.NonBlank(album.String)
	s.CoverURL = models.NonBlank(cover.String)
	s.ReleaseDate = models.NonBlank(releaseDate.String)
	return s, nil
}

func songArgs(userID string, s models.Song) ([]any, error) {
	artists, err := json.Marshal(s.Artists)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artists: %w", err)
	}
	return []any{
		userID,
		s.ID,
		s.Title,
		string(artists),
		nullString(s.Album),
		nullString(s.CoverURL),
		nullString(s.ReleaseDate),
		s.AddedAt,
		s.Duration,
	}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func insertErr(song models.Song, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: song %s", shared.ErrDuplicateEntry, song.ID)
	}
	return fmt.Errorf("failed to insert song: %w", err)
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}
