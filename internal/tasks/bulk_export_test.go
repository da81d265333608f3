package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// fakeLibrary serves playlists from memory and fails keys listed in broken.
type fakeLibrary struct {
	mu     sync.Mutex
	calls  int
	broken map[string]bool
}

func (f *fakeLibrary) fetch(ctx context.Context, key string) (catalog.PlaylistView, []catalog.Item, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.broken[key] {
		return catalog.PlaylistView{}, nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}

	id := strings.TrimPrefix(key, "u1__")
	view := catalog.PlaylistView{
		Playlist: models.Playlist{ID: id, OwnerUID: "u1", Name: "Set " + id},
		Key:      key,
	}
	items := []catalog.Item{
		{Entry: models.Entry{SongID: id + "-a", Order: 0, Transpose: 2}, Song: models.Song{ID: id + "-a", Title: "Song A", Content: "[G]one"}},
		{Entry: models.Entry{SongID: id + "-b", Order: 1}, Song: models.Song{ID: id + "-b", Title: "Song B", Content: "[C]two"}},
	}
	return view, items, nil
}

func keysN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("u1__set%d", i+1)
	}
	return out
}

func TestBulkExport(t *testing.T) {
	tests := []struct {
		name          string
		format        string
		playlistCount int
		wantFiles     int
		checkFile     func(t *testing.T, dir string)
	}{
		{
			name:          "single playlist json export",
			format:        "json",
			playlistCount: 1,
			wantFiles:     1,
			checkFile: func(t *testing.T, dir string) {
				data, err := os.ReadFile(filepath.Join(dir, "u1_set1.json"))
				if err != nil {
					t.Fatalf("JSON file not created: %v", err)
				}
				if !strings.Contains(string(data), "[G]one") {
					t.Errorf("expected song content in JSON export, got %s", data)
				}
			},
		},
		{
			name:          "multiple playlists csv export",
			format:        "csv",
			playlistCount: 3,
			wantFiles:     2,
			checkFile: func(t *testing.T, dir string) {
				if _, err := os.Stat(filepath.Join(dir, "u1_set3_songs.csv")); err != nil {
					t.Errorf("CSV file not created: %v", err)
				}
			},
		},
		{
			name:          "text export",
			format:        "text",
			playlistCount: 2,
			wantFiles:     1,
			checkFile: func(t *testing.T, dir string) {
				if _, err := os.Stat(filepath.Join(dir, "u1_set2_songs.txt")); err != nil {
					t.Errorf("text file not created: %v", err)
				}
			},
		},
		{
			name:          "markdown export",
			format:        "markdown",
			playlistCount: 2,
			wantFiles:     1,
			checkFile: func(t *testing.T, dir string) {
				if _, err := os.Stat(filepath.Join(dir, "u1_set1", "README.md")); err != nil {
					t.Errorf("README.md not created: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			lib := &fakeLibrary{}

			progressCh := make(chan ProgressUpdate, 100)
			result, err := BulkExport(context.Background(), progressCh, lib.fetch, keysN(tt.playlistCount), BulkExportOpts{
				Format:     tt.format,
				OutputDir:  dir,
				NumWorkers: 2,
				RateLimit:  1000,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.SuccessfulExports != tt.playlistCount || result.FailedExports != 0 {
				t.Errorf("expected %d successes and no failures, got %d/%d", tt.playlistCount, result.SuccessfulExports, result.FailedExports)
			}
			for i, res := range result.Results {
				if res.Key != fmt.Sprintf("u1__set%d", i+1) {
					t.Errorf("expected results in key order, got %s at %d", res.Key, i)
				}
				if len(res.Files) != tt.wantFiles {
					t.Errorf("expected %d files for %s, got %d", tt.wantFiles, res.Key, len(res.Files))
				}
			}
			tt.checkFile(t, dir)

			if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %q", result.ManifestPath)
			}
			if lib.calls != tt.playlistCount {
				t.Errorf("expected %d loads, got %d", tt.playlistCount, lib.calls)
			}
		})
	}
}

func TestBulkExportFailures(t *testing.T) {
	t.Run("one failed load does not stop the others", func(t *testing.T) {
		dir := t.TempDir()
		lib := &fakeLibrary{broken: map[string]bool{"u1__set2": true}}

		result, err := BulkExport(context.Background(), nil, lib.fetch, keysN(3), BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Fatalf("expected 2 successes and 1 failure, got %d/%d", result.SuccessfulExports, result.FailedExports)
		}
		broken := result.Results[1]
		if broken.Success || !errors.Is(broken.Error, shared.ErrPlaylistNotFound) {
			t.Errorf("expected the second playlist to fail with ErrPlaylistNotFound, got %+v", broken)
		}

		var manifest BulkExportResult
		data, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.FailedExports != 1 || manifest.Results[0].Files[0] != "u1_set1.json" {
			t.Errorf("unexpected manifest: %+v", manifest)
		}
		if manifest.Results[1].Message == "" {
			t.Error("expected the failure message in the manifest")
		}
	})

	t.Run("cancelled context fails every playlist", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := BulkExport(ctx, nil, (&fakeLibrary{}).fetch, keysN(3), BulkExportOpts{
			OutputDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.FailedExports != 3 {
			t.Errorf("expected 3 failures, got %d", result.FailedExports)
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		_, err := BulkExport(context.Background(), nil, (&fakeLibrary{}).fetch, keysN(1), BulkExportOpts{
			Format:    "pdf",
			OutputDir: t.TempDir(),
		})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("requires a fetcher", func(t *testing.T) {
		_, err := BulkExport(context.Background(), nil, nil, keysN(1), BulkExportOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestProgress(t *testing.T) {
	t.Run("reports every phase", func(t *testing.T) {
		progressCh := make(chan ProgressUpdate, 100)
		_, err := BulkExport(context.Background(), progressCh, (&fakeLibrary{}).fetch, keysN(2), BulkExportOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progressCh)

		seen := map[Phase]int{}
		var last ProgressUpdate
		for u := range progressCh {
			seen[u.Phase]++
			last = u
		}
		if seen[LoadPlaylist] != 2 || seen[ExportPlaylist] != 2 || seen[ExportComplete] != 1 {
			t.Errorf("unexpected phases: %v", seen)
		}
		if last.Phase != ExportComplete || last.Message != "Exported 2/2 playlists" {
			t.Errorf("unexpected final update: %+v", last)
		}
	})

	t.Run("never blocks on a full channel", func(t *testing.T) {
		full := make(chan ProgressUpdate)
		sendProgress(full, ProgressUpdate{Phase: LoadPlaylist})
		sendProgress(nil, ProgressUpdate{Phase: LoadPlaylist})
	})

	t.Run("phase names", func(t *testing.T) {
		for phase, want := range map[Phase]string{
			LoadPlaylist:   "load_playlist",
			ExportPlaylist: "export_playlist",
			ExportComplete: "export_complete",
			Phase(99):      "",
		} {
			if got := phase.String(); got != want {
				t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
			}
		}
	})
}
