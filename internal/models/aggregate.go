package models

import "sort"

// GroupStat is a distinct name with the songs that carry it.
type GroupStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Songs []Song `json:"songs,omitempty"`
}

// LibraryStats is the aggregate view of a collection.
type LibraryStats struct {
	Songs   int         `json:"songs"`
	Artists []GroupStat `json:"artists"`
	Albums  []GroupStat `json:"albums"`
}

// ArtistStats flattens each song's artist list and groups songs per distinct artist.
//
// Ordered by song count descending, then by name.
func ArtistStats(songs []Song) []GroupStat {
	return group(songs, func(s Song) []string { return s.Artists })
}

// AlbumStats groups songs per distinct album. Songs with an unknown or blank album are skipped.
func AlbumStats(songs []Song) []GroupStat {
	return group(songs, func(s Song) []string {
		if IsBlank(s.Album) {
			return nil
		}
		return []string{*s.Album}
	})
}

// Stats computes all aggregate views at once.
func Stats(songs []Song) LibraryStats {
	return LibraryStats{
		Songs:   len(songs),
		Artists: ArtistStats(songs),
		Albums:  AlbumStats(songs),
	}
}

// SongsByArtist returns the songs crediting artist, in input order.
func SongsByArtist(songs []Song, artist string) []Song {
	var out []Song
	for _, s := range songs {
		for _, a := range s.Artists {
			if a == artist {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// SongsByAlbum returns the songs on album, in input order.
func SongsByAlbum(songs []Song, album string) []Song {
	var out []Song
	for _, s := range songs {
		if s.Album != nil && *s.Album == album {
			out = append(out, s)
		}
	}
	return out
}

func group(songs []Song, names func(Song) []string) []GroupStat {
	index := make(map[string]int)
	var stats []GroupStat

	for _, s := range songs {
		seen := make(map[string]bool)
		for _, name := range names(s) {
			if seen[name] {
				continue
			}
			seen[name] = true

			i, ok := index[name]
			if !ok {
				i = len(stats)
				index[name] = i
				stats = append(stats, GroupStat{Name: name})
			}
			stats[i].Count++
			stats[i].Songs = append(stats[i].Songs, s)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}
