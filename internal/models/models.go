// package models defines the data model for the listening log
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/shared"
)

// Song is the canonical record of a song the user has listened to.
//
// Album, CoverURL and ReleaseDate are optional. A nil Album means "unknown album"
// while a pointer to "" means the user explicitly blanked it.
type Song struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       *string  `json:"album,omitempty"`
	CoverURL    *string  `json:"coverUrl,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"` // ISO date or bare 4-digit year
	AddedAt     int64    `json:"addedAt"`               // epoch milliseconds
	Duration    int      `json:"duration,omitempty"`    // seconds
}

// NewSong creates a Song with a generated ID and AddedAt set to now.
func NewSong(title string, artists []string) Song {
	return Song{
		ID:      shared.GenerateID(),
		Title:   strings.TrimSpace(title),
		Artists: artists,
		AddedAt: NowMillis(),
	}
}

// Validate checks the invariants of a persisted Song.
func (s Song) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", shared.ErrInvalidSong)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidSong)
	}
	if len(s.Artists) == 0 {
		return fmt.Errorf("%w: at least one artist is required", shared.ErrInvalidSong)
	}
	for _, a := range s.Artists {
		if strings.TrimSpace(a) == "" || a != strings.TrimSpace(a) {
			return fmt.Errorf("%w: artist names must be trimmed and non-empty", shared.ErrInvalidSong)
		}
	}
	return nil
}

// AlbumName returns the album or "" when unknown.
func (s Song) AlbumName() string { return Deref(s.Album) }

// Cover returns the cover URL or "" when absent.
func (s Song) Cover() string { return Deref(s.CoverURL) }

// Released returns the release date or "" when absent.
func (s Song) Released() string { return Deref(s.ReleaseDate) }

// Year returns the 4-digit year prefix of the release date, if any.
func (s Song) Year() string {
	rd := s.Released()
	if len(rd) < 4 {
		return ""
	}
	return rd[:4]
}

// Key returns the deduplication key of the song.
func (s Song) Key() string {
	return DedupKey(s.Title, s.Artists)
}

// SameAs reports whether the song matches the given title and any of the given artists,
// compared case-insensitively. Used for the interactive duplicate check on add.
func (s Song) SameAs(title string, artists []string) bool {
	if !strings.EqualFold(s.Title, strings.TrimSpace(title)) {
		return false
	}
	for _, mine := range s.Artists {
		for _, theirs := range artists {
			if strings.EqualFold(mine, theirs) {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s Song) Clone() Song {
	c := s
	c.Artists = append([]string(nil), s.Artists...)
	c.Album = clonePtr(s.Album)
	c.CoverURL = clonePtr(s.CoverURL)
	c.ReleaseDate = clonePtr(s.ReleaseDate)
	return c
}

// SplitArtists splits a raw artist string on comma, full-width comma, ideographic comma,
// slash, or ampersand, trimming each part and dropping empties.
func SplitArtists(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', '，', '、', '/', '&':
			return true
		}
		return false
	})

	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}

// DedupKey builds the normalized library key: lower(title) + "|||" + lower(join(artists, ",")).
func DedupKey(title string, artists []string) string {
	return strings.ToLower(title) + "|||" + strings.ToLower(strings.Join(artists, ","))
}

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }

// NonBlank returns a pointer to the trimmed string, or nil if it is blank.
func NonBlank(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsBlank reports whether the pointer is nil or points to whitespace only.
func IsBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
