package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// ShareCopy sends copies of every song in a playlist to another user's inbox.
func (r *Runner) ShareCopy(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	view, items, err := ws.playlist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	to := cmd.String("to")
	id, err := ws.library.ShareCopy(ctx, ws.user, to, view, items)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Sent %d songs from %s to %s (message %s)\n", len(items), view.DisplayName(), to, id)
}

// ShareLink gives another user viewer or editor access to a playlist.
func (r *Runner) ShareLink(ctx context.Context, cmd *cli.Command) error {
	role := cmd.String("role")
	if role != string(models.RoleViewer) && role != string(models.RoleEditor) {
		return fmt.Errorf("%w: role must be viewer or editor", shared.ErrInvalidArgument)
	}

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

	to := cmd.String("to")
	id, err := ws.library.ShareLink(ctx, ws.user, to, view, models.ParseRole(role))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Shared %s with %s as %s (message %s)\n", view.DisplayName(), to, role, id)
}
