package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/formatter"
	"github.com/desertthunder/chordsync/internal/shared"
	"github.com/desertthunder/chordsync/internal/tasks"
)

// playlistSummary is the JSON form of one row of `playlists list`.
type playlistSummary struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Notes    string `json:"notes,omitempty"`
	OwnerUID string `json:"ownerUid"`
	Shared   bool   `json:"shared"`
	Role     string `json:"role,omitempty"`
	From     string `json:"from,omitempty"`
}

// PlaylistsList prints every playlist visible to the user in selector order.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	cat, err := ws.catalog(ctx)
	if err != nil {
		return err
	}

	views := cat.Playlists()
	summaries := make([]playlistSummary, len(views))
	for i, v := range views {
		summaries[i] = playlistSummary{
			Key:      v.Key,
			Name:     v.DisplayName(),
			Notes:    v.Notes,
			OwnerUID: v.OwnerUID,
			Shared:   v.Shared,
		}
		if v.Shared {
			summaries[i].Role = string(v.Role)
		}
		if v.From != nil {
			summaries[i].From = v.From.Label()
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No playlists found.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(summaries)))
	for _, s := range summaries {
		access := "owner"
		if s.Shared {
			access = "shared, " + s.Role
		}
		r.writePlain("%-40s %s (%s)\n", s.Key, s.Name, access)
		if s.From != "" {
			r.writePlain("%-40s from %s\n", "", s.From)
		}
	}
	return nil
}

// PlaylistsEntries prints the songs of a playlist in order.
func (r *Runner) PlaylistsEntries(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	view, items, err := ws.playlist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	export := formatter.NewExport(view, items, false)
	if cmd.Bool("json") {
		return r.writeJSON(export, cmd.Bool("pretty"))
	}

	text, err := formatter.ExportToText(export)
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}

// PlaylistsExport writes a playlist to disk in the requested format.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	view, items, err := ws.playlist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	export := formatter.NewExport(view, items, cmd.Bool("transposed"))
	output := cmd.String("output")

	switch format := strings.ToLower(cmd.String("format")); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Songs written to %s\n", result.SongsFile)
		r.writePlain("✓ Metadata written to %s\n", result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Markdown written to %s\n", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Text written to %s\n", path)
	case "json":
		if output == "" {
			return r.writeJSON(export, true)
		}
		path, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ JSON written to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	r.logger.Info("exported playlist", "playlist", view.Key, "songs", len(export.Songs))
	return nil
}

// PlaylistsExportAll writes every playlist in the user's catalog to one directory with a manifest.
func (r *Runner) PlaylistsExportAll(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	cat, err := ws.catalog(ctx)
	if err != nil {
		return err
	}
	keys := cat.Keys()
	if len(keys) == 0 {
		return r.writePlain("No playlists found.\n")
	}

	fetch := func(ctx context.Context, key string) (catalog.PlaylistView, []catalog.Item, error) {
		view, ok := cat.Playlist(key)
		if !ok {
			return catalog.PlaylistView{}, nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
		}
		items, _, err := ws.loader.LoadEntries(ctx, cat, key, ws.user.UID)
		return view, items, err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.ExportPlaylist {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.BulkExport(ctx, progressCh, fetch, keys, tasks.BulkExportOpts{
		Format:     strings.ToLower(cmd.String("format")),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
		Transposed: cmd.Bool("transposed"),
	})
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	if result.FailedExports > 0 {
		r.writePlain("Failed:   %d\n", result.FailedExports)
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	r.logger.Info("bulk export finished", "dir", result.OutputDirectory, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return nil
}

// PlaylistsCreate creates an empty playlist owned by the user.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	key, err := ws.library.CreatePlaylist(ctx, ws.user.UID, name, cmd.String("notes"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %s (%s)\n", name, key)
}
