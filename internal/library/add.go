package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/desertthunder/melodylog/internal/tasks"
)

// SongForm holds the raw fields of an "add song" request. Artist is split on the usual separators.
type SongForm struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       *string `json:"album,omitempty"`
	CoverURL    *string `json:"coverUrl,omitempty"`
	ReleaseDate *string `json:"releaseDate,omitempty"`
	Duration    int     `json:"duration,omitempty"`
}

// Duplicate returns the first song in songs with the same title and an overlapping artist.
func Duplicate(songs []models.Song, title string, artists []string) (models.Song, bool) {
	for _, s := range songs {
		if s.SameAs(title, artists) {
			return s, true
		}
	}
	return models.Song{}, false
}

// AddSong validates form, rejects duplicates, fills missing metadata, and stores the song.
//
// Reconciliation runs only when the library was built with a reconciler and the form lacks a
// cover or a release date.
func (l *Library) AddSong(ctx context.Context, form SongForm) (models.Song, error) {
	title := strings.TrimSpace(form.Title)
	artists := models.SplitArtists(form.Artist)
	if title == "" || len(artists) == 0 {
		return models.Song{}, fmt.Errorf("%w: title and artist are required", shared.ErrInvalidSong)
	}

	l.ops.Lock()
	err := l.ensureLoaded(ctx)
	l.ops.Unlock()
	if err != nil {
		return models.Song{}, err
	}

	if dup, ok := Duplicate(l.Songs(), title, artists); ok {
		return models.Song{}, fmt.Errorf("%w: %s - %s", shared.ErrDuplicateEntry, dup.Title, strings.Join(dup.Artists, ", "))
	}

	song := models.NewSong(title, artists)
	song.Album = models.NonBlank(models.Deref(form.Album))
	song.CoverURL = models.NonBlank(models.Deref(form.CoverURL))
	song.ReleaseDate = models.NonBlank(models.Deref(form.ReleaseDate))
	song.Duration = form.Duration

	if l.reconciler != nil {
		in := tasks.ReconcileInput{
			Title:       title,
			Artists:     artists,
			Album:       song.Album,
			CoverURL:    song.CoverURL,
			ReleaseDate: song.ReleaseDate,
		}
		fields := l.reconciler.Reconcile(ctx, in)
		song.Album, song.CoverURL, song.ReleaseDate = fields.Album, fields.CoverURL, fields.ReleaseDate
		l.logger.Debug("reconciled new song", "title", title, "stage", fields.Stage)
	}

	if err := l.Add(ctx, song); err != nil {
		return models.Song{}, err
	}
	return song, nil
}

// EditSong applies form to the stored song with id, keeping its id and addedAt.
//
// Blank optional form fields clear the stored value; nil ones keep it.
func (l *Library) EditSong(ctx context.Context, id string, form SongForm) (models.Song, error) {
	l.ops.Lock()
	err := l.ensureLoaded(ctx)
	l.ops.Unlock()
	if err != nil {
		return models.Song{}, err
	}

	song, err := l.Find(id)
	if err != nil {
		return models.Song{}, err
	}

	if t := strings.TrimSpace(form.Title); t != "" {
		song.Title = t
	}
	if a := models.SplitArtists(form.Artist); len(a) > 0 {
		song.Artists = a
	}
	if form.Album != nil {
		song.Album = models.NonBlank(*form.Album)
	}
	if form.CoverURL != nil {
		song.CoverURL = models.NonBlank(*form.CoverURL)
	}
	if form.ReleaseDate != nil {
		song.ReleaseDate = models.NonBlank(*form.ReleaseDate)
	}
	if form.Duration > 0 {
		song.Duration = form.Duration
	}

	if err := l.Update(ctx, song); err != nil {
		return models.Song{}, err
	}
	return song, nil
}
