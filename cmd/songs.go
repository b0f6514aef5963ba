package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/library"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/urfave/cli/v3"
)

// songForm reads the song flags shared by add and update.
//
// Optional string flags become non-nil only when passed, so update can tell "clear" from "keep".
func songForm(cmd *cli.Command) library.SongForm {
	form := library.SongForm{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Duration: int(cmd.Int("duration")),
	}
	for name, field := range map[string]**string{
		"album":   &form.Album,
		"cover":   &form.CoverURL,
		"release": &form.ReleaseDate,
	} {
		if cmd.IsSet(name) {
			*field = models.Ptr(cmd.String(name))
		}
	}
	return form
}

func songID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	return id, nil
}

// SongsAdd adds one song, looking up missing metadata through the providers.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	song, err := r.library.AddSong(ctx, songForm(cmd))
	if err != nil {
		return err
	}
	r.logger.Info("added song", "id", song.ID, "title", song.Title)

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	return r.writePlain("✓ Added\n%s\n", formatter.RenderSong(song))
}

// SongsList prints the collection, optionally filtered and sorted.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	songs := r.library.Songs()
	if artist := cmd.String("artist"); artist != "" {
		songs = models.SongsByArtist(songs, artist)
	}
	if album := cmd.String("album"); album != "" {
		songs = models.SongsByAlbum(songs, album)
	}
	songs = models.Filter(songs, cmd.String("query"))

	if cmd.IsSet("sort") || cmd.Bool("desc") {
		key, err := models.ParseSortKey(cmd.String("sort"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		songs = models.SortSongs(songs, models.SortOptions{Key: key, Descending: cmd.Bool("desc")})
	}

	if cmd.Bool("json") {
		if songs == nil {
			songs = []models.Song{}
		}
		return r.writeJSON(songs, true)
	}
	return r.writePlain("%s\n", formatter.RenderSongs(songs))
}

// SongsShow prints every field of one song.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	song, err := r.library.Find(id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	return r.writePlain("%s\n", formatter.RenderSong(song))
}

// SongsUpdate edits one song in place.
func (r *Runner) SongsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	song, err := r.library.EditSong(ctx, id, songForm(cmd))
	if err != nil {
		return err
	}
	r.logger.Info("updated song", "id", song.ID)
	return r.writePlain("✓ Updated\n%s\n", formatter.RenderSong(song))
}

// SongsDelete removes one song.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	if err := r.library.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("deleted song", "id", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

// SongsStats prints artist and album aggregates.
func (r *Runner) SongsStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	stats := models.Stats(r.library.Songs())
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writePlain("%s\n", formatter.RenderStats(stats, int(cmd.Int("top"))))
}
