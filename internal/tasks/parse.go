package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

var trailingAlbum = regexp.MustCompile(`\s*\(([^()]+)\)\s*$`)

// ParsedLine is a song stub recovered from one import line.
//
// AddedAt is zero when the line carried no usable timestamp.
type ParsedLine struct {
	Title       string
	Artists     []string
	Album       *string
	CoverURL    *string
	ReleaseDate *string
	AddedAt     int64
	Duration    int
}

// Key returns the library deduplication key of the line.
func (p ParsedLine) Key() string { return models.DedupKey(p.Title, p.Artists) }

// Input converts the line to a reconciliation request.
func (p ParsedLine) Input() ReconcileInput {
	return ReconcileInput{
		Title:       p.Title,
		Artists:     p.Artists,
		Album:       p.Album,
		CoverURL:    p.CoverURL,
		ReleaseDate: p.ReleaseDate,
	}
}

// jsonLine is the structured record shape. artist is a raw string to be split;
// artists is an already-split list whose entries are kept whole.
type jsonLine struct {
	Title       string          `json:"title"`
	Artist      string          `json:"artist"`
	Artists     []string        `json:"artists"`
	Album       *string         `json:"album"`
	CoverURL    *string         `json:"coverUrl"`
	ReleaseDate *string         `json:"releaseDate"`
	AddedAt     json.RawMessage `json:"addedAt"`
	Duration    int             `json:"duration"`
}

// ParseLine auto-detects the line grammar.
//
// A trimmed line wrapped in braces is a JSON record; anything else is "title - artist (album)",
// split on the first dash. Failures wrap [shared.ErrMalformedLine].
func ParseLine(line string) (ParsedLine, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
		return parseJSONLine(line)
	}
	return parseDelimitedLine(line)
}

func parseJSONLine(line string) (ParsedLine, error) {
	var rec jsonLine
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return ParsedLine{}, fmt.Errorf("%w: invalid JSON: %v", shared.ErrMalformedLine, err)
	}

	var artists []string
	if rec.Artist != "" {
		artists = models.SplitArtists(rec.Artist)
	} else {
		for _, a := range rec.Artists {
			if a = strings.TrimSpace(a); a != "" {
				artists = append(artists, a)
			}
		}
	}

	p := ParsedLine{
		Title:       strings.TrimSpace(rec.Title),
		Artists:     artists,
		Album:       models.NonBlank(models.Deref(rec.Album)),
		CoverURL:    models.NonBlank(models.Deref(rec.CoverURL)),
		ReleaseDate: models.NonBlank(models.Deref(rec.ReleaseDate)),
		AddedAt:     ParseAddedAt(rec.AddedAt),
		Duration:    rec.Duration,
	}
	if p.Title == "" || len(p.Artists) == 0 {
		return ParsedLine{}, fmt.Errorf("%w: title and artist are required", shared.ErrMalformedLine)
	}
	return p, nil
}

func parseDelimitedLine(line string) (ParsedLine, error) {
	title, rest, ok := strings.Cut(line, "-")
	if !ok {
		return ParsedLine{}, fmt.Errorf("%w: expected \"title - artist\"", shared.ErrMalformedLine)
	}

	p := ParsedLine{Title: strings.TrimSpace(title)}
	rest = strings.TrimSpace(rest)
	if m := trailingAlbum.FindStringSubmatch(rest); m != nil {
		p.Album = models.NonBlank(m[1])
		rest = rest[:len(rest)-len(m[0])]
	}
	p.Artists = models.SplitArtists(rest)

	if p.Title == "" || len(p.Artists) == 0 {
		return ParsedLine{}, fmt.Errorf("%w: title and artist are required", shared.ErrMalformedLine)
	}
	return p, nil
}

// ParseAddedAt accepts a JSON number, a numeric string, or an RFC 3339 / ISO date string,
// returning epoch milliseconds or 0 when nothing parses.
func ParseAddedAt(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return ParseTimestamp(s)
}

// ParseTimestamp parses a numeric epoch-ms string or an ISO date/time, returning 0 on failure.
func ParseTimestamp(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
