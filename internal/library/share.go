package library

import (
	"context"
	"fmt"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// ShareCopy sends copies of items to recipientUID's inbox as a new playlist named after view.
// It returns the inbox message id.
func (l *Library) ShareCopy(ctx context.Context, from models.User, recipientUID string, view catalog.PlaylistView, items []catalog.Item) (string, error) {
	if from.UID == "" {
		return "", shared.ErrLoginRequired
	}
	if recipientUID == "" {
		return "", fmt.Errorf("%w: recipient", shared.ErrMissingArgument)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: playlist has no songs", shared.ErrInvalidArgument)
	}

	msg := models.CopyMessage{
		PlaylistName: view.DisplayName(),
		Notes:        view.Notes,
		From:         sender(from),
	}
	for _, it := range items {
		msg.Items = append(msg.Items, models.ShareItem{
			Title:     it.Song.Title,
			Content:   it.Song.Content,
			Transpose: it.Transpose,
		})
	}

	id, err := l.store.Add(ctx, l.paths.Inbox(recipientUID), msg.ToMap())
	if err != nil {
		return "", fmt.Errorf("failed to send playlist copy: %w", err)
	}
	l.logger.Info("shared playlist copy", "playlist", view.Key, "recipient", recipientUID, "message_id", id, "songs", len(items))
	return id, nil
}

// ShareLink grants recipientUID access to a playlist the sender owns.
func (l *Library) ShareLink(ctx context.Context, from models.User, recipientUID string, view catalog.PlaylistView, role models.Role) (string, error) {
	if from.UID == "" {
		return "", shared.ErrLoginRequired
	}
	if recipientUID == "" {
		return "", fmt.Errorf("%w: recipient", shared.ErrMissingArgument)
	}
	if view.Shared || view.OwnerUID != from.UID {
		return "", shared.ErrNotOwner
	}

	msg := models.LinkMessage{
		OwnerUID:     from.UID,
		PlaylistID:   view.ID,
		PlaylistName: view.DisplayName(),
		Role:         role,
		From:         sender(from),
	}

	id, err := l.store.Add(ctx, l.paths.Inbox(recipientUID), msg.ToMap())
	if err != nil {
		return "", fmt.Errorf("failed to send playlist link: %w", err)
	}
	l.logger.Info("shared playlist link", "playlist", view.Key, "recipient", recipientUID, "role", role, "message_id", id)
	return id, nil
}

func sender(u models.User) models.Sender {
	return models.Sender{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}
}
