package models

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the field a song list is ordered by.
type SortKey int

const (
	SortByAddedAt SortKey = iota
	SortByTitle
	SortByReleaseDate
)

func (k SortKey) String() string {
	switch k {
	case SortByAddedAt:
		return "added"
	case SortByTitle:
		return "title"
	case SortByReleaseDate:
		return "release"
	default:
		return ""
	}
}

// ParseSortKey parses the CLI/API spelling of a sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "added", "addedat", "newest", "oldest":
		return SortByAddedAt, nil
	case "title":
		return SortByTitle, nil
	case "release", "releasedate", "year":
		return SortByReleaseDate, nil
	default:
		return SortByAddedAt, fmt.Errorf("unknown sort key %q", s)
	}
}

// SortOptions configures [SortSongs].
type SortOptions struct {
	Key        SortKey
	Descending bool
	// Locale drives title collation. Defaults to Chinese (pinyin order for Han, then Latin).
	Locale language.Tag
}

// SortSongs returns a sorted copy of songs.
//
// When sorting by release date, songs without one are placed last regardless of direction.
func SortSongs(songs []Song, opts SortOptions) []Song {
	out := append([]Song(nil), songs...)

	var less func(a, b Song) int
	switch opts.Key {
	case SortByTitle:
		tag := opts.Locale
		if tag == language.Und {
			tag = language.Chinese
		}
		col := collate.New(tag, collate.IgnoreCase)
		less = func(a, b Song) int { return col.CompareString(a.Title, b.Title) }
	case SortByReleaseDate:
		less = func(a, b Song) int { return strings.Compare(a.Released(), b.Released()) }
	default:
		less = func(a, b Song) int {
			switch {
			case a.AddedAt < b.AddedAt:
				return -1
			case a.AddedAt > b.AddedAt:
				return 1
			}
			return 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if opts.Key == SortByReleaseDate {
			ah, bh := a.Released() != "", b.Released() != ""
			if ah != bh {
				return ah
			}
			if !ah {
				return false
			}
		}
		c := less(a, b)
		if opts.Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Filter returns songs whose title, any artist, or album contains query (case-insensitive).
// An empty query returns the input unchanged.
func Filter(songs []Song, query string) []Song {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return songs
	}

	var out []Song
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.AlbumName()), q) {
			out = append(out, s)
			continue
		}
		for _, a := range s.Artists {
			if strings.Contains(strings.ToLower(a), q) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
