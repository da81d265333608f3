package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/models"
	th "github.com/desertthunder/chordsync/internal/testing"
)

func sampleExport() *Export {
	view := catalog.PlaylistView{
		Playlist: models.Playlist{ID: "sunday", OwnerUID: "u1", Name: "Sunday Set", Notes: "Capo 2 on the first"},
		Key:      "u1__sunday",
	}
	items := []catalog.Item{
		{Entry: models.Entry{SongID: "s1", Order: 10, Transpose: 2}, Song: models.Song{ID: "s1", Title: "Amazing Grace", Content: "[G]Amazing [C]grace\n"}},
		{Entry: models.Entry{SongID: "s2", Order: 20, Transpose: -1}, Song: models.Song{ID: "s2", Title: "Hallelujah", Content: "[C]Now I've heard"}},
		{Entry: models.Entry{SongID: "s3", Order: 30}, Song: models.Song{ID: "s3", Title: "Plain, \"quoted\"", Content: "words"}},
	}
	return NewExport(view, items, false)
}

func TestNewExport(t *testing.T) {
	t.Run("keeps content by default", func(t *testing.T) {
		export := sampleExport()
		if len(export.Songs) != 3 {
			t.Fatalf("expected 3 songs, got %d", len(export.Songs))
		}
		if export.Songs[0].Content != "[G]Amazing [C]grace\n" {
			t.Errorf("unexpected content: %q", export.Songs[0].Content)
		}
		if export.Role != "" {
			t.Errorf("owned playlists carry no role, got %q", export.Role)
		}
	})

	t.Run("applies transpose", func(t *testing.T) {
		view := catalog.PlaylistView{Playlist: models.Playlist{ID: "p", OwnerUID: "u1"}, Key: "u1__p", Shared: true, Role: models.RoleEditor}
		items := []catalog.Item{{Entry: models.Entry{SongID: "s1", Transpose: 2}, Song: models.Song{Title: "One", Content: "[G]la [D/F#]la"}}}

		export := NewExport(view, items, true)
		if export.Songs[0].Content != "[A]la [E/G#]la" {
			t.Errorf("unexpected transposed content: %q", export.Songs[0].Content)
		}
		if export.Name != "p" {
			t.Errorf("expected id as fallback name, got %q", export.Name)
		}
		if export.Role != "editor" {
			t.Errorf("expected editor role, got %q", export.Role)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Title,Order,Transpose\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "s1,Amazing Grace,10,2\n") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "s2,Hallelujah,20,-1\n") {
			t.Errorf("CSV missing second row, got: %s", output)
		}
		if !strings.Contains(output, `s3,"Plain, ""quoted""",30,0`) {
			t.Errorf("CSV should quote titles with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Sunday Set\n",
			"**Notes**: Capo 2 on the first",
			"**Songs**: 3",
			"**Access**: Owner",
			"## Songs",
			"### 1. Amazing Grace [+2]\n\n```\n[G]Amazing [C]grace\n```\n",
			"### 2. Hallelujah [-1]",
			"### 3. Plain, \"quoted\"\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Sunday Set\n") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Songs: 3\n") {
			t.Errorf("Text missing song count")
		}
		if !strings.Contains(output, "1. Amazing Grace [+2]\n2. Hallelujah [-1]\n") {
			t.Errorf("Text missing song list, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded Export
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Key != "u1__sunday" || len(decoded.Songs) != 3 {
			t.Errorf("unexpected decoded export: %+v", decoded)
		}
		if !strings.Contains(string(data), "\n  \"key\"") {
			t.Errorf("expected indented JSON")
		}
	})

	t.Run("AccessString", func(t *testing.T) {
		tests := []struct {
			export *Export
			want   string
		}{
			{&Export{}, "Owner"},
			{&Export{Shared: true, Role: "editor"}, "Shared (editor)"},
			{&Export{Shared: true, Role: "viewer"}, "Shared (viewer)"},
		}
		for _, tt := range tests {
			if got := AccessString(tt.export); got != tt.want {
				t.Errorf("AccessString() = %q, want %q", got, tt.want)
			}
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SongsFile != "u1_sunday_songs.csv" {
				t.Errorf("unexpected songs file: %s", result.SongsFile)
			}
			th.AssertFileExists(t, result.SongsFile)
			th.AssertFileExists(t, result.MetadataFile)

			if content := th.MustReadFile(t, result.MetadataFile); !strings.Contains(content, "Amazing Grace") {
				t.Errorf("metadata missing songs")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom")
			result, err := WriteCSVExport(sampleExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.SongsFile != base+"_songs.csv" {
				t.Errorf("unexpected songs file: %s", result.SongsFile)
			}
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("WithUnwritablePath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "missing", "dir", "custom")
			if _, err := WriteCSVExport(sampleExport(), base); err == nil {
				t.Error("expected error writing into a missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "set")
		path, err := WriteMarkdownExport(sampleExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected path: %s", path)
		}
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "# Sunday Set") {
			t.Errorf("unexpected README content:\n%s", content)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteTextExport(sampleExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != "u1_sunday_songs.txt" {
			t.Errorf("unexpected path: %s", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "set.json")
		got, err := WriteJSONExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		if got != path {
			t.Errorf("unexpected path: %s", got)
		}

		var decoded Export
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Songs) != 3 || decoded.Songs[1].Content != "[C]Now I've heard" {
			t.Errorf("unexpected songs: %+v", decoded.Songs)
		}
	})
}
