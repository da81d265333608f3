package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/chordsync/internal/catalog"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [catalog.PlaylistView] to implement [list.Item].
type playlistItem struct {
	view catalog.PlaylistView
}

func (i playlistItem) FilterValue() string { return i.view.DisplayName() }
func (i playlistItem) Title() string       { return i.view.DisplayName() }
func (i playlistItem) Description() string {
	desc := "Owner"
	if i.view.Shared {
		desc = fmt.Sprintf("Shared (%s)", i.view.Role)
	}
	if i.view.From != nil {
		desc = fmt.Sprintf("%s • from %s", desc, i.view.From.Label())
	}
	if i.view.Notes != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.view.Notes)
	}
	return desc
}

func playlistItems(cat catalog.Catalog) []list.Item {
	views := cat.Playlists()
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = playlistItem{view: v}
	}
	return items
}
