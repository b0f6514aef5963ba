package models

// ProviderSong is the normalized shape every metadata provider returns.
//
// Album is "" when the provider has none; it is never a placeholder.
// CoverURL and ReleaseDate are "" when absent.
type ProviderSong struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	CoverURL    string `json:"coverUrl,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Source      string `json:"sourceProvider"`
}

// ToSong builds a new Song from the result, splitting its artist string.
func (p ProviderSong) ToSong() Song {
	s := NewSong(p.Name, SplitArtists(p.Artist))
	s.Album = NonBlank(p.Album)
	s.CoverURL = NonBlank(p.CoverURL)
	s.ReleaseDate = NonBlank(p.ReleaseDate)
	s.Duration = p.Duration
	return s
}
