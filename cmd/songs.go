package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/shared"
)

// songSummary is the JSON form of a search hit.
type songSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Origin string `json:"origin"`
}

// SongsSave creates or updates a song. With --playlist the new song is appended to that playlist.
func (r *Runner) SongsSave(ctx context.Context, cmd *cli.Command) error {
	content := cmd.String("content")
	if file := cmd.String("file"); file != "" {
		if content != "" {
			return fmt.Errorf("%w: cannot specify both --content and --file", shared.ErrInvalidArgument)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read song file: %w", err)
		}
		content = string(data)
	}

	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	title := cmd.String("title")
	if key := cmd.String("playlist"); key != "" {
		if cmd.String("id") != "" {
			return fmt.Errorf("%w: --id cannot be combined with --playlist", shared.ErrInvalidArgument)
		}
		song, entry, err := ws.library.AddSongToPlaylist(ctx, ws.user.UID, key, title, content)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Added %s (%s) to %s at position %d\n", song.Title, song.ID, key, entry.Order)
	}

	song, err := ws.library.SaveSong(ctx, ws.user.UID, cmd.String("id"), title, content)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", song.Title, song.ID)
}

// SongsDelete removes a song from the library and from every playlist the user owns.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	if err := ws.library.DeleteSong(ctx, ws.user.UID, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// SongsSearch lists songs matching a term in their title or lyrics.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")

	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	cat, err := ws.catalog(ctx)
	if err != nil {
		return err
	}

	songs := catalog.Search(cat, term)
	hits := make([]songSummary, len(songs))
	for i, s := range songs {
		hits[i] = songSummary{ID: s.ID, Title: s.Title, Origin: s.Origin.String()}
	}

	if cmd.Bool("json") {
		return r.writeJSON(hits, cmd.Bool("pretty"))
	}

	if len(hits) == 0 {
		return r.writePlain("No songs match %q.\n", term)
	}
	for _, h := range hits {
		r.writePlain("%-36s %s [%s]\n", h.ID, h.Title, h.Origin)
	}
	return nil
}

// EntriesTranspose stores the transpose of a song on a playlist entry.
func (r *Runner) EntriesTranspose(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	key := cmd.String("playlist")
	cat, err := ws.catalog(ctx)
	if err != nil {
		return err
	}
	view, ok := cat.Playlist(key)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}

	songID := strings.TrimSpace(cmd.String("song"))
	semitones := int(cmd.Int("semitones"))
	if err := ws.library.SaveTranspose(ctx, view, ws.user.UID, songID, semitones); err != nil {
		return err
	}
	return r.writePlain("✓ Transpose of %s in %s set to %+d\n", songID, view.DisplayName(), semitones)
}
