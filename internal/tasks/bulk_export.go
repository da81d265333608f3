package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/formatter"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Fetcher loads a playlist and its entries by key.
type Fetcher func(ctx context.Context, key string) (catalog.PlaylistView, []catalog.Item, error)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, text
	OutputDir  string  // Base output directory (default: chordsync_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 4, max 8)
	RateLimit  float64 // Playlist loads per second (default: 10)
	Transposed bool    // Apply each entry's transpose to exported content
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Error   error    `json:"-"`
	Message string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	index  int
	export *formatter.Export
}

type indexedResult struct {
	index int
	PlaylistExportResult
}

// BulkExport exports the playlists at keys concurrently and writes a manifest to the output directory.
//
// Results keep the order of keys.
func BulkExport(ctx context.Context, prog chan<- ProgressUpdate, fetch Fetcher, keys []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if fetch == nil {
		return nil, fmt.Errorf("%w: fetcher", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = "json"
	}
	if !validFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("chordsync_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		TotalPlaylists:  len(keys),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, len(keys)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(keys))
	results := make(chan indexedResult, len(keys))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, key := range keys {
			if err := limiter.Wait(ctx); err != nil {
				results <- failed(i, key, key, err)
				continue
			}

			sendProgress(prog, loadingUpdate(i+1, len(keys), key))
			view, items, err := fetch(ctx, key)
			if err != nil {
				results <- failed(i, key, key, fmt.Errorf("failed to load playlist: %w", err))
				continue
			}
			jobs <- exportJob{index: i, export: formatter.NewExport(view, items, opts.Transposed)}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results[res.index] = res.PlaylistExportResult

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportedUpdate(completed, len(keys), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, failedUpdate(completed, len(keys), res.Name, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	sendProgress(prog, completeUpdate(result))
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it closes.
//
// Jobs received after cancellation are reported as failed so every key gets a result.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- indexedResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- failed(job.index, job.export.Key, job.export.Name, err)
			continue
		}
		results <- exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist writes one playlist in the configured format.
func exportSinglePlaylist(j exportJob, opts BulkExportOpts) indexedResult {
	export := j.export
	base := filepath.Join(opts.OutputDir, formatter.BaseName(export))
	res := indexedResult{
		index: j.index,
		PlaylistExportResult: PlaylistExportResult{
			Key:  export.Key,
			Name: export.Name,
		},
	}

	var err error
	switch opts.Format {
	case "csv":
		var csvRes *formatter.CSVExportResult
		if csvRes, err = formatter.WriteCSVExport(export, base); err == nil {
			res.Files = []string{csvRes.SongsFile, csvRes.MetadataFile}
		}
	case "markdown", "md":
		var path string
		if path, err = formatter.WriteMarkdownExport(export, base); err == nil {
			res.Files = []string{path}
		}
	case "text", "txt":
		var path string
		if path, err = formatter.WriteTextExport(export, base+"_songs.txt"); err == nil {
			res.Files = []string{path}
		}
	default:
		var path string
		if path, err = formatter.WriteJSONExport(export, base+".json"); err == nil {
			res.Files = []string{path}
		}
	}

	if err != nil {
		return failed(j.index, export.Key, export.Name, fmt.Errorf("%s export failed: %w", opts.Format, err))
	}
	res.Success = true
	return res
}

func failed(index int, key, name string, err error) indexedResult {
	return indexedResult{
		index: index,
		PlaylistExportResult: PlaylistExportResult{
			Key:     key,
			Name:    name,
			Error:   err,
			Message: err.Error(),
		},
	}
}

func validFormat(format string) bool {
	switch format {
	case "json", "csv", "markdown", "md", "text", "txt":
		return true
	default:
		return false
	}
}

// writeManifest records the export result, with files listed relative to the output directory.
func writeManifest(result *BulkExportResult, path string) error {
	manifest := *result
	manifest.Results = make([]PlaylistExportResult, len(result.Results))
	for i, r := range result.Results {
		files := make([]string, len(r.Files))
		for j, f := range r.Files {
			if rel, err := filepath.Rel(result.OutputDirectory, f); err == nil {
				f = rel
			}
			files[j] = f
		}
		sort.Strings(files)
		r.Files = files
		manifest.Results[i] = r
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
