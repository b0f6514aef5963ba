package tasks

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

func TestParseLine(t *testing.T) {
	t.Run("delimited", func(t *testing.T) {
		tc := []struct {
			name    string
			line    string
			title   string
			artists []string
			album   string
		}{
			{name: "title and artist", line: "七里香 - 周杰伦", title: "七里香", artists: []string{"周杰伦"}},
			{name: "trailing album", line: "晴天 - 周杰伦 (叶惠美)", title: "晴天", artists: []string{"周杰伦"}, album: "叶惠美"},
			{name: "multiple artists", line: "Song - A, B & C", title: "Song", artists: []string{"A", "B", "C"}},
			{name: "full-width separators", line: "歌 - 甲，乙、丙", title: "歌", artists: []string{"甲", "乙", "丙"}},
			{name: "splits on first dash", line: "A - B - C", title: "A", artists: []string{"B - C"}},
			{name: "surrounding whitespace", line: "   Song   -   Artist   ", title: "Song", artists: []string{"Artist"}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseLine(tt.line)
				if err != nil {
					t.Fatalf("ParseLine(%q) error = %v", tt.line, err)
				}
				if got.Title != tt.title {
					t.Errorf("title = %q, want %q", got.Title, tt.title)
				}
				if !reflect.DeepEqual(got.Artists, tt.artists) {
					t.Errorf("artists = %v, want %v", got.Artists, tt.artists)
				}
				if models.Deref(got.Album) != tt.album {
					t.Errorf("album = %q, want %q", models.Deref(got.Album), tt.album)
				}
				if got.AddedAt != 0 {
					t.Errorf("delimited lines carry no timestamp, got %d", got.AddedAt)
				}
			})
		}
	})

	t.Run("json", func(t *testing.T) {
		got, err := ParseLine(`{"title":"Song","artist":"A, B"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Title != "Song" || !reflect.DeepEqual(got.Artists, []string{"A", "B"}) {
			t.Errorf("unexpected parse %+v", got)
		}
		if got.Album != nil || got.CoverURL != nil || got.ReleaseDate != nil {
			t.Errorf("expected optional fields absent, got %+v", got)
		}
	})

	t.Run("json with all fields", func(t *testing.T) {
		line := `{"title":"Hey Jude","artist":"The Beatles","album":"Hey Jude","coverUrl":"https://c/x.jpg","releaseDate":"1968-08-26","addedAt":1700000000000,"duration":431}`
		got, err := ParseLine(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if models.Deref(got.Album) != "Hey Jude" || models.Deref(got.CoverURL) != "https://c/x.jpg" ||
			models.Deref(got.ReleaseDate) != "1968-08-26" || got.AddedAt != 1700000000000 || got.Duration != 431 {
			t.Errorf("unexpected parse %+v", got)
		}
	})

	t.Run("json artists array", func(t *testing.T) {
		got, err := ParseLine(`{"title":"Song","artists":[" A ","B"]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got.Artists, []string{"A", "B"}) {
			t.Errorf("artists = %v", got.Artists)
		}
	})

	t.Run("json artists array entries are not split", func(t *testing.T) {
		got, err := ParseLine(`{"title":"The Boxer","artists":["Simon & Garfunkel", " "]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got.Artists, []string{"Simon & Garfunkel"}) {
			t.Errorf("artists = %v", got.Artists)
		}
	})

	t.Run("json blank optional fields become absent", func(t *testing.T) {
		got, err := ParseLine(`{"title":"Song","artist":"A","coverUrl":"  ","album":""}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.CoverURL != nil || got.Album != nil {
			t.Errorf("expected blank fields dropped, got %+v", got)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		tc := []string{
			"just a title",
			" - Artist",
			"Title - ",
			"Title - (Album)",
			`{"title":"Song"`,
			`{"title":"","artist":"A"}`,
			`{"title":"Song","artist":""}`,
			`{"title":123,"artist":"A"}`,
		}
		for _, line := range tc {
			t.Run(line, func(t *testing.T) {
				_, err := ParseLine(line)
				if !errors.Is(err, shared.ErrMalformedLine) {
					t.Errorf("ParseLine(%q) error = %v, want ErrMalformedLine", line, err)
				}
			})
		}
	})
}

func TestParseAddedAt(t *testing.T) {
	iso := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tc := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "number", raw: `1700000000000`, want: 1700000000000},
		{name: "float", raw: `1700000000000.0`, want: 1700000000000},
		{name: "numeric string", raw: `"1700000000000"`, want: 1700000000000},
		{name: "rfc3339", raw: `"2024-03-01T12:30:00Z"`, want: iso.UnixMilli()},
		{name: "local datetime", raw: `"2024-03-01T12:30:00"`, want: iso.UnixMilli()},
		{name: "date only", raw: `"2024-03-01"`, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{name: "garbage", raw: `"yesterday"`, want: 0},
		{name: "null", raw: `null`, want: 0},
		{name: "empty", raw: ``, want: 0},
		{name: "object", raw: `{}`, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAddedAt(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("ParseAddedAt(%s) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
