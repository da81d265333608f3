// Package ui implements the terminal chord viewer using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [PlaylistListView] : Browse the playlists visible to the signed in user
//  2. [SongView] : Read the selected song, step through the playlist and transpose
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Viewer operations run as commands so storage round trips never block rendering. Session changes and notifications
// reach the model through [Events], which the viewer is configured with as its notifier and change hook.
//
// When following a live session the song view shows the broadcast song instead of the local selection.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
