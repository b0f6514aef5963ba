package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/services"
	"github.com/desertthunder/melodylog/internal/ui"
)

// RenderSongs lists songs one per line with album and year as muted detail.
func RenderSongs(songs []models.Song) string {
	if len(songs) == 0 {
		return ui.Help("No songs yet")
	}

	var b strings.Builder
	width := len(fmt.Sprint(len(songs)))
	for i, s := range songs {
		fmt.Fprintf(&b, "%*d. %s - %s", width, i+1, s.Title, strings.Join(s.Artists, ", "))

		var detail []string
		if album := s.AlbumName(); album != "" {
			detail = append(detail, album)
		}
		if year := s.Year(); year != "" {
			detail = append(detail, year)
		}
		if len(detail) > 0 {
			b.WriteString("  " + ui.Help(strings.Join(detail, " • ")))
		}
		if i < len(songs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderSong shows every field of a single song.
func RenderSong(s models.Song) string {
	rows := [][2]string{
		{"ID", s.ID},
		{"Title", s.Title},
		{"Artists", strings.Join(s.Artists, ", ")},
		{"Album", s.AlbumName()},
		{"Released", s.Released()},
		{"Cover", s.Cover()},
		{"Added", time.UnixMilli(s.AddedAt).Format(time.DateTime)},
	}

	var b strings.Builder
	for i, r := range rows {
		if r[1] == "" {
			r[1] = ui.Help("-")
		}
		b.WriteString(ui.Field(r[0], r[1], 9))
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderReport styles [models.ImportReport.Summary]: the headline as success (or warning when
// nothing was saved) and the failed lines as errors.
func RenderReport(r *models.ImportReport, limit int) string {
	lines := strings.Split(r.Summary(limit), "\n")

	head := ui.Success(lines[0])
	if r.SavedCount == 0 {
		head = ui.Warn(lines[0])
	}

	out := []string{head}
	for _, l := range lines[1:] {
		switch {
		case l == "":
			out = append(out, l)
		case strings.HasPrefix(l, "line "):
			out = append(out, ui.Error(l))
		default:
			out = append(out, ui.Help(l))
		}
	}
	if r.Duration > 0 {
		out = append(out, ui.Help(fmt.Sprintf("(%s)", r.Duration.Round(time.Millisecond))))
	}
	return strings.Join(out, "\n")
}

// RenderStats shows the collection totals and the top n artists and albums.
func RenderStats(stats models.LibraryStats, n int) string {
	var b strings.Builder
	b.WriteString(ui.Title(fmt.Sprintf("%d songs • %d artists • %d albums",
		stats.Songs, len(stats.Artists), len(stats.Albums))))

	section := func(name string, groups []models.GroupStat) {
		b.WriteString("\n" + ui.Success(name))
		if len(groups) == 0 {
			b.WriteString("\n  " + ui.Help("none"))
			return
		}
		for i, g := range groups {
			if n > 0 && i == n {
				b.WriteString("\n  " + ui.Help(fmt.Sprintf("...and %d more", len(groups)-n)))
				break
			}
			fmt.Fprintf(&b, "\n  %-30s %d", g.Name, g.Count)
		}
	}
	section("Artists", stats.Artists)
	section("Albums", stats.Albums)
	return b.String()
}

// RenderCacheStatus describes a cache entry for the current user.
func RenderCacheStatus(s models.CacheStatus) string {
	if !s.Present {
		return ui.Help("No cache entry")
	}
	if s.Timestamp == 0 {
		return ui.Warn("Cache entry is unreadable")
	}

	written := time.UnixMilli(s.Timestamp).Format(time.DateTime)
	expires := time.UnixMilli(s.ExpireAt).Format(time.DateTime)
	if s.Valid {
		return fmt.Sprintf("%s written %s, expires %s", ui.Success("Valid"), written, expires)
	}
	return fmt.Sprintf("%s written %s, expired %s", ui.Warn("Expired"), written, expires)
}

// RenderProviderResults lists search candidates from one provider.
func RenderProviderResults(results []models.ProviderSong) string {
	if len(results) == 0 {
		return ui.Help("No results")
	}

	var b strings.Builder
	for i, p := range results {
		fmt.Fprintf(&b, "%d. %s - %s", i+1, p.Name, p.Artist)
		var detail []string
		for _, d := range []string{p.Album, p.ReleaseDate, p.Source} {
			if d != "" {
				detail = append(detail, d)
			}
		}
		if len(detail) > 0 {
			b.WriteString("  " + ui.Help(strings.Join(detail, " • ")))
		}
		if i < len(results)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderProviders lists registered providers, marking the default.
func RenderProviders(providers []services.ProviderInfo) string {
	var b strings.Builder
	for i, p := range providers {
		fmt.Fprintf(&b, "%-12s %s", p.ID, p.Name)
		if p.Default {
			b.WriteString(" " + ui.Badge("default"))
		}
		if i < len(providers)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderUsers lists local accounts, marking the one signed in.
func RenderUsers(users []*models.User, currentID string) string {
	if len(users) == 0 {
		return ui.Help("No users yet")
	}

	var b strings.Builder
	for i, u := range users {
		fmt.Fprintf(&b, "%s <%s>", u.DisplayName(), u.Email)
		if u.ID == currentID {
			b.WriteString(" " + ui.Badge("signed in"))
		}
		if i < len(users)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
