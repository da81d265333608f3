package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/chordsync/internal/shared"
)

// InboxMessage is a decoded share inbox document, either a [CopyMessage] or a [LinkMessage].
type InboxMessage interface {
	MessageID() string
	Meta() MessageMeta
}

// MessageMeta carries the retry bookkeeping stored on every inbox document.
type MessageMeta struct {
	ID        string
	Attempts  int
	LastError string
}

// MessageID returns the inbox document id.
func (m MessageMeta) MessageID() string { return m.ID }

// Meta returns the bookkeeping fields.
func (m MessageMeta) Meta() MessageMeta { return m }

// ShareItem is a song carried inside a copy message.
type ShareItem struct {
	Title     string
	Content   string
	Transpose int
}

// CopyMessage asks the recipient to import copies of the carried songs as a new playlist.
type CopyMessage struct {
	MessageMeta
	PlaylistName string
	Notes        string
	From         Sender
	Items        []ShareItem
}

// LinkMessage asks the recipient to add a reference to a playlist owned by someone else.
type LinkMessage struct {
	MessageMeta
	OwnerUID     string
	PlaylistID   string
	PlaylistName string
	Role         Role
	From         Sender
}

// DecodeInboxMessage turns an inbox document into its tagged variant.
// A document is a link when it carries a playlist id and no items array. Anything else decodes as a copy.
func DecodeInboxMessage(id string, data map[string]any) (InboxMessage, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: message %s has no data", shared.ErrMalformedMessage, id)
	}

	meta := MessageMeta{
		ID:        id,
		Attempts:  getInt(data, "attempts"),
		LastError: getString(data, "lastError"),
	}

	_, hasItems := data["items"]
	pid := firstString(data, "playlistId", "pid")
	if pid != "" && !hasItems {
		return LinkMessage{
			MessageMeta:  meta,
			OwnerUID:     firstString(data, "fromUid", "ownerUid"),
			PlaylistID:   pid,
			PlaylistName: firstString(data, "playlistName", "name"),
			Role:         ParseRole(getString(data, "role")),
			From: Sender{
				UID:         getString(data, "fromUid"),
				Email:       getString(data, "fromEmail"),
				DisplayName: getString(data, "fromDisplayName"),
			},
		}, nil
	}

	msg := CopyMessage{
		MessageMeta:  meta,
		PlaylistName: getString(data, "playlistName"),
		Notes:        getString(data, "notes"),
		From: Sender{
			UID:         getString(data, "fromUid"),
			Email:       getString(data, "fromEmail"),
			DisplayName: getString(data, "fromDisplayName"),
		},
	}

	for _, item := range getMaps(data, "items") {
		msg.Items = append(msg.Items, ShareItem{
			Title:     getString(item, "title"),
			Content:   getString(item, "content"),
			Transpose: getInt(item, "transpose"),
		})
	}
	return msg, nil
}

// ToMap encodes a copy message for the recipient's inbox.
func (m CopyMessage) ToMap() map[string]any {
	items := make([]any, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, map[string]any{
			"title":     it.Title,
			"content":   it.Content,
			"transpose": it.Transpose,
		})
	}
	return map[string]any{
		"processed":       false,
		"items":           items,
		"playlistName":    m.PlaylistName,
		"notes":           m.Notes,
		"fromUid":         m.From.UID,
		"fromEmail":       m.From.Email,
		"fromDisplayName": m.From.DisplayName,
	}
}

// ToMap encodes a link message for the recipient's inbox.
func (m LinkMessage) ToMap() map[string]any {
	return map[string]any{
		"processed":       false,
		"playlistId":      m.PlaylistID,
		"ownerUid":        m.OwnerUID,
		"fromUid":         m.From.UID,
		"fromEmail":       m.From.Email,
		"fromDisplayName": m.From.DisplayName,
		"playlistName":    m.PlaylistName,
		"role":            string(m.Role),
	}
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(getString(data, k)); s != "" {
			return s
		}
	}
	return ""
}
