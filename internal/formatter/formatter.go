// package formatter converts a song collection to and from export formats (CSV, Markdown, plain text)
// and renders reports and listings for the terminal.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
)

const bom = "\uFEFF"

var (
	// CSVHeader is the column row of the standard export.
	CSVHeader = []string{"序号", "歌名", "歌手", "专辑", "年份"}
	// RichCSVHeader extends [CSVHeader] with release date, cover URL and added-at, in that order.
	RichCSVHeader = append(append([]string{}, CSVHeader...), "发行日期", "封面", "添加时间")
)

// ExportToCSV writes songs as UTF-8 CSV with a BOM: index, title, slash-joined artists, album, year.
func ExportToCSV(songs []models.Song) ([]byte, error) {
	return writeCSV(CSVHeader, songs, func(i int, s models.Song) []string {
		return []string{strconv.Itoa(i + 1), s.Title, strings.Join(s.Artists, "/"), s.AlbumName(), s.Year()}
	})
}

// ExportToRichCSV is [ExportToCSV] plus the full release date, cover URL and addedAt (epoch ms).
func ExportToRichCSV(songs []models.Song) ([]byte, error) {
	return writeCSV(RichCSVHeader, songs, func(i int, s models.Song) []string {
		return []string{
			strconv.Itoa(i + 1),
			s.Title,
			strings.Join(s.Artists, "/"),
			s.AlbumName(),
			s.Year(),
			s.Released(),
			s.Cover(),
			strconv.FormatInt(s.AddedAt, 10),
		}
	})
}

func writeCSV(header []string, songs []models.Song, record func(int, models.Song) []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(bom)

	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, s := range songs {
		if err := writer.Write(record(i, s)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders songs as a numbered Markdown list under heading.
func ExportToMarkdown(songs []models.Song, heading string) []byte {
	var buf bytes.Buffer

	if heading == "" {
		heading = "MelodyLog"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	for i, s := range songs {
		line := fmt.Sprintf("%d. %s - %s", i+1, s.Title, strings.Join(s.Artists, ", "))
		if album := s.AlbumName(); album != "" {
			line += fmt.Sprintf(" (%s)", album)
		}
		if year := s.Year(); year != "" {
			line += fmt.Sprintf(" [%s]", year)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// ExportToText renders songs one per line in a shape a text import reads back with the same
// title, artists and album. Other fields are not carried.
//
// Lines use the "title - artist (album)" grammar when it parses back unchanged, otherwise a
// JSON line (a title containing "-", or a single artist containing "&", for example).
func ExportToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range songs {
		album := s.AlbumName()
		line := DelimitedLine(s.Title, s.Artists, album)
		if !delimitable(s.Title, s.Artists, album) {
			data, err := json.Marshal(richLine{Title: s.Title, Artists: s.Artists, Album: models.NonBlank(album)})
			if err != nil {
				return nil, fmt.Errorf("failed to encode text line: %w", err)
			}
			line = string(data)
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes(), nil
}

// delimitable reports whether [DelimitedLine] of the fields parses back to the same fields.
func delimitable(title string, artists []string, album string) bool {
	if strings.Contains(title, "-") || strings.ContainsAny(album+strings.Join(artists, ""), "()") {
		return false
	}
	if !slices.Equal(models.SplitArtists(strings.Join(artists, ", ")), artists) {
		return false
	}
	line := DelimitedLine(title, artists, album)
	return !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}")
}

// DelimitedLine formats "title - artist[, artist] (album)"; the album part is omitted when blank.
func DelimitedLine(title string, artists []string, album string) string {
	line := fmt.Sprintf("%s - %s", title, strings.Join(artists, ", "))
	if album != "" {
		line += fmt.Sprintf(" (%s)", album)
	}
	return line
}

// ExportFilename is the default export file name for the given day and extension.
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("MelodyLog_Export_%s.%s", now.Format(time.DateOnly), strings.TrimPrefix(ext, "."))
}

// WriteExport writes data to path, defaulting to [ExportFilename] with ext for today.
func WriteExport(data []byte, path, ext string) (string, error) {
	if path == "" {
		path = ExportFilename(time.Now(), ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
