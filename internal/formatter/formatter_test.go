package formatter

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/tasks"
	th "github.com/desertthunder/melodylog/internal/testing"
)

func sampleSongs(t *testing.T) []models.Song {
	a := th.SampleSong(t, "s1", "七里香", "周杰伦")
	a.Album = models.Ptr("七里香")
	a.ReleaseDate = models.Ptr("2004-08-03")
	a.CoverURL = models.Ptr("https://img.example/qlx.jpg")
	a.AddedAt = 1717243200000

	b := th.SampleSong(t, "s2", `Hello, "World"`, "A", "B")

	return []models.Song{a, b}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleSongs(t))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		if !bytes.HasPrefix(data, []byte("\uFEFF")) {
			t.Error("CSV missing byte order mark")
		}

		lines := strings.Split(strings.TrimPrefix(string(data), "\uFEFF"), "\n")
		want := []string{
			"序号,歌名,歌手,专辑,年份",
			"1,七里香,周杰伦,七里香,2004",
			`2,"Hello, ""World""",A/B,,`,
			"",
		}
		if len(lines) != len(want) {
			t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
			}
		}
	})

	t.Run("ExportToRichCSV", func(t *testing.T) {
		data, err := ExportToRichCSV(sampleSongs(t))
		if err != nil {
			t.Fatalf("ExportToRichCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, strings.Join(RichCSVHeader, ",")) {
			t.Errorf("rich CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "2004-08-03,https://img.example/qlx.jpg,1717243200000") {
			t.Errorf("rich CSV missing extra columns, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		output := string(ExportToMarkdown(sampleSongs(t), ""))

		for _, want := range []string{"# MelodyLog", "**Songs**: 2", "1. 七里香 - 周杰伦 (七里香) [2004]", "2. Hello, \"World\" - A, B\n"} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText round trips through the parser", func(t *testing.T) {
		songs := sampleSongs(t)[:1]
		data, err := ExportToText(songs)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 1 || lines[0] != "七里香 - 周杰伦 (七里香)" {
			t.Fatalf("unexpected text export %q", lines)
		}

		p, err := tasks.ParseLine(lines[0])
		if err != nil {
			t.Fatalf("ParseLine failed: %v", err)
		}
		if p.Title != "七里香" || p.Artists[0] != "周杰伦" || models.Deref(p.Album) != "七里香" {
			t.Errorf("unexpected parse %+v", p)
		}
	})

	t.Run("ExportToText falls back to json lines", func(t *testing.T) {
		tc := []struct {
			name    string
			title   string
			artists []string
			album   string
			json    bool
		}{
			{name: "plain", title: "Song", artists: []string{"A", "B"}, album: "Album"},
			{name: "dash in title", title: "Anti-Hero", artists: []string{"Taylor Swift"}, album: "Midnights", json: true},
			{name: "ampersand in artist", title: "The Boxer", artists: []string{"Simon & Garfunkel"}, json: true},
			{name: "slash in artist", title: "Song", artists: []string{"AC/DC"}, json: true},
			{name: "parenthesized album", title: "Song", artists: []string{"A"}, album: "Deluxe (Remastered)", json: true},
			{name: "parenthesized artist", title: "Song", artists: []string{"Prince (Live)"}, json: true},
			{name: "braced line", title: "{x}", artists: []string{"y}"}, json: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				song := th.SampleSong(t, "id", tt.title, tt.artists...)
				song.Album = models.NonBlank(tt.album)

				data, err := ExportToText([]models.Song{song})
				if err != nil {
					t.Fatalf("ExportToText failed: %v", err)
				}
				line := strings.TrimSpace(string(data))
				if isJSON := strings.HasPrefix(line, "{\"title\""); isJSON != tt.json {
					t.Errorf("json line = %v for %q", isJSON, line)
				}

				p, err := tasks.ParseLine(line)
				if err != nil {
					t.Fatalf("ParseLine(%q) failed: %v", line, err)
				}
				if p.Title != tt.title || !slices.Equal(p.Artists, tt.artists) || models.Deref(p.Album) != tt.album {
					t.Errorf("round trip of %q gave %+v", line, p)
				}
			})
		}
	})
}

func TestCSVToLines(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "exported sample",
			input: "\uFEFF序号,歌名,歌手,专辑,年份\n1,七里香,周杰伦,七里香,2004\n2,十年,陈奕迅,黑白灰,2003\n3,晴天,周杰伦,叶惠美,2003\n",
			want:  []string{"七里香 - 周杰伦 (七里香)", "十年 - 陈奕迅 (黑白灰)", "晴天 - 周杰伦 (叶惠美)"},
		},
		{
			name:  "header only",
			input: "序号,歌名,歌手,专辑,年份\n",
			want:  []string{},
		},
		{
			name:  "missing album and short rows",
			input: "h\n1,Song,Artist\n2,Lonely\n3,,Nobody,Album\n",
			want:  []string{"Song - Artist"},
		},
		{
			name:  "slash joined artists and quoted comma",
			input: "h\n1,\"Hello, World\",A/B,Album,2020\n",
			want:  []string{"Hello, World - A, B (Album)"},
		},
		{
			name:  "crlf line endings",
			input: "h\r\n1,Song,Artist,,\r\n",
			want:  []string{"Song - Artist"},
		},
		{
			name:  "title with dash becomes json",
			input: "h\n1,Anti-Hero,Taylor Swift,Midnights,2022\n",
			want:  []string{`{"title":"Anti-Hero","artists":["Taylor Swift"],"album":"Midnights"}`},
		},
		{
			name:  "rich row becomes json",
			input: "h\n1,Song,Artist,Album,2020,2020-05-01,https://c/x.jpg,1588291200000\n",
			want:  []string{`{"title":"Song","artists":["Artist"],"album":"Album","releaseDate":"2020-05-01","coverUrl":"https://c/x.jpg","addedAt":"1588291200000"}`},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CSVToLines(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("CSVToLines failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	t.Run("rich export round trips", func(t *testing.T) {
		songs := sampleSongs(t)
		data, err := ExportToRichCSV(songs)
		if err != nil {
			t.Fatalf("ExportToRichCSV failed: %v", err)
		}

		lines, err := CSVToLines(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("CSVToLines failed: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %q", lines)
		}

		p, err := tasks.ParseLine(lines[0])
		if err != nil {
			t.Fatalf("ParseLine failed: %v", err)
		}
		if p.AddedAt != songs[0].AddedAt || models.Deref(p.CoverURL) != songs[0].Cover() || models.Deref(p.ReleaseDate) != "2004-08-03" {
			t.Errorf("rich fields lost: %+v", p)
		}

		p, err = tasks.ParseLine(lines[1])
		if err != nil {
			t.Fatalf("ParseLine failed: %v", err)
		}
		if p.Title != `Hello, "World"` || len(p.Artists) != 2 {
			t.Errorf("unexpected parse %+v", p)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		if _, err := CSVToLines(&th.FCloser{}); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("ExportFilename", func(t *testing.T) {
		day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		if got := ExportFilename(day, ".csv"); got != "MelodyLog_Export_2025-06-01.csv" {
			t.Errorf("ExportFilename() = %q", got)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		got, err := WriteExport([]byte("data"), path, "csv")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); content != "data" {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("WriteExport to missing directory", func(t *testing.T) {
		if _, err := WriteExport(nil, filepath.Join(t.TempDir(), "nope", "out.csv"), "csv"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestRenderers(t *testing.T) {
	t.Run("RenderSongs", func(t *testing.T) {
		output := RenderSongs(sampleSongs(t))
		if !strings.Contains(output, "1. 七里香 - 周杰伦") || !strings.Contains(output, "2004") {
			t.Errorf("unexpected listing: %s", output)
		}
		if !strings.Contains(RenderSongs(nil), "No songs") {
			t.Error("expected empty message")
		}
	})

	t.Run("RenderSong", func(t *testing.T) {
		output := RenderSong(sampleSongs(t)[0])
		for _, want := range []string{"ID:", "s1", "Released:", "2004-08-03", "Cover:"} {
			if !strings.Contains(output, want) {
				t.Errorf("missing %q in %s", want, output)
			}
		}
	})

	t.Run("RenderReport", func(t *testing.T) {
		report := &models.ImportReport{
			SavedCount: 1,
			Errors:     []models.ImportError{{Line: 2, Reason: models.ReasonDuplicate, Detail: "七里香"}},
		}
		output := RenderReport(report, 10)
		if !strings.Contains(output, "Imported 1 songs") || !strings.Contains(output, "line 2: already exists - 七里香") {
			t.Errorf("unexpected report: %s", output)
		}

		empty := RenderReport(&models.ImportReport{}, 10)
		if !strings.Contains(empty, "No songs were imported") {
			t.Errorf("unexpected empty report: %s", empty)
		}
	})

	t.Run("RenderStats", func(t *testing.T) {
		songs := sampleSongs(t)
		output := RenderStats(models.Stats(songs), 1)
		for _, want := range []string{"2 songs", "3 artists", "1 albums", "Artists", "...and 2 more"} {
			if !strings.Contains(output, want) {
				t.Errorf("missing %q in %s", want, output)
			}
		}
	})

	t.Run("RenderCacheStatus", func(t *testing.T) {
		now := time.Now()
		tc := []struct {
			status models.CacheStatus
			want   string
		}{
			{models.CacheStatus{}, "No cache entry"},
			{models.CacheStatus{Present: true}, "unreadable"},
			{models.CacheStatus{Present: true, Valid: true, Timestamp: now.UnixMilli(), ExpireAt: now.Add(time.Hour).UnixMilli()}, "Valid"},
			{models.CacheStatus{Present: true, Timestamp: now.UnixMilli(), ExpireAt: now.UnixMilli()}, "Expired"},
		}
		for _, tt := range tc {
			if got := RenderCacheStatus(tt.status); !strings.Contains(got, tt.want) {
				t.Errorf("RenderCacheStatus(%+v) = %q, want %q", tt.status, got, tt.want)
			}
		}
	})

	t.Run("RenderProviderResults", func(t *testing.T) {
		output := RenderProviderResults([]models.ProviderSong{{Name: "晴天", Artist: "周杰伦", Album: "叶惠美", Source: "itunes"}})
		if !strings.Contains(output, "1. 晴天 - 周杰伦") || !strings.Contains(output, "itunes") {
			t.Errorf("unexpected results: %s", output)
		}
		if !strings.Contains(RenderProviderResults(nil), "No results") {
			t.Error("expected empty message")
		}
	})
}
