package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// richLine is the JSON import shape produced for rows that the delimited grammar cannot carry.
type richLine struct {
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       *string  `json:"album,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"`
	CoverURL    *string  `json:"coverUrl,omitempty"`
	AddedAt     string   `json:"addedAt,omitempty"`
}

// CSVToLines converts an exported CSV (standard or rich shape) into import lines.
//
// The first record is always treated as the header. Rows without a title or an artist are
// dropped. A row becomes a delimited "title - artist (album)" line when that grammar can carry
// it, otherwise a JSON line.
func CSVToLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(bom))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	lines := []string{}
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		if first {
			continue
		}

		line, ok, err := recordToLine(record)
		if err != nil {
			return nil, err
		}
		if ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func recordToLine(record []string) (string, bool, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	title, artists, album := field(1), models.SplitArtists(field(2)), field(3)
	if title == "" || len(artists) == 0 {
		return "", false, nil
	}

	released, cover, addedAt := field(5), field(6), field(7)
	rich := released != "" || cover != "" || addedAt != ""
	if !rich && delimitable(title, artists, album) {
		return DelimitedLine(title, artists, album), true, nil
	}

	data, err := json.Marshal(richLine{
		Title:       title,
		Artists:     artists,
		Album:       models.NonBlank(album),
		ReleaseDate: models.NonBlank(released),
		CoverURL:    models.NonBlank(cover),
		AddedAt:     addedAt,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to encode import line: %w", err)
	}
	return string(data), true, nil
}
