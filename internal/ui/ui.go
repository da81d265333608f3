package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/chordsync/internal/chords"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
	"github.com/desertthunder/chordsync/internal/viewer"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	SongView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	viewer       *viewer.Viewer
	events       *Events
	user         models.User
	width        int
	height       int
	playlistList list.Model
	listKey      string
	song         viewport.Model
	session      viewer.Session
	loggedIn     bool
	toast        *toast
	toastSeq     int
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. v must have been created with events as its notifier and
// events.SessionChanged as its change hook.
func NewModel(ctx context.Context, v *viewer.Viewer, events *Events, user models.User) *Model {
	playlists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "Playlists"

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		viewer:       v,
		events:       events,
		user:         user,
		playlistList: playlists,
		song:         viewport.New(0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init signs the user in and starts listening for viewer events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.login(), m.events.wait())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.song.Width = msg.Width - 4
		m.song.Height = msg.Height - 8
		m.renderSong()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !m.playlistList.SettingFilter() {
			return m, tea.Quit
		}
		if !m.loggedIn {
			return m, nil
		}
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case SongView:
			return m.handleSongKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoggedIn:
		if err := errOf(msg); err != nil {
			m.err = err
			return m, nil
		}
		m.loggedIn = true
		m.sync()
		if m.session.CurrentKey != "" {
			m.view = SongView
		}
		return m, nil

	case MsgSessionChanged:
		m.sync()
		return m, m.events.wait()

	case MsgActionDone:
		if err := errOf(msg); err != nil && !errors.Is(err, shared.ErrReadOnly) {
			return m, m.showToast(shared.LevelError, err.Error())
		}
		return m, nil

	case MsgToast:
		t := msg.data.(toast)
		return m, tea.Batch(m.showToast(t.level, t.message), m.events.wait())

	case MsgToastExpired:
		if m.toast != nil && m.toast.id == msg.data.(int) {
			m.toast = nil
		}
		return m, nil
	}
	return m, nil
}

// sync copies the viewer session into the model and rebuilds what depends on it.
func (m *Model) sync() {
	m.session = m.viewer.Session()

	key := strings.Join(m.session.Catalog.Keys(), "\x00")
	if key != m.listKey {
		m.listKey = key
		m.playlistList.SetItems(playlistItems(m.session.Catalog))
	}
	m.renderSong()
}

func (m *Model) showToast(level shared.Level, message string) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &toast{id: id, level: level, message: message}
	return tea.Tick(toastLifetime, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.SettingFilter() {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.view = SongView
			return m, m.run(func(ctx context.Context) error { return m.viewer.SelectPlaylist(ctx, pl.view.Key) })
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.session.CurrentKey != "" {
			m.view = SongView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.run(m.viewer.Refresh)
	case key.Matches(msg, m.keys.follow):
		return m, m.toggleFollow()
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.run(m.viewer.Next)
	case key.Matches(msg, m.keys.prev):
		return m, m.run(m.viewer.Prev)
	case key.Matches(msg, m.keys.sharpen):
		return m, m.transpose(m.session.Transpose + 1)
	case key.Matches(msg, m.keys.flatten):
		return m, m.transpose(m.session.Transpose - 1)
	case key.Matches(msg, m.keys.reset):
		return m, m.transpose(0)
	case key.Matches(msg, m.keys.follow):
		return m, m.toggleFollow()
	case key.Matches(msg, m.keys.refresh):
		return m, m.run(m.viewer.Refresh)
	}

	var cmd tea.Cmd
	m.song, cmd = m.song.Update(msg)
	return m, cmd
}

func (m *Model) transpose(n int) tea.Cmd {
	return m.run(func(ctx context.Context) error { return m.viewer.SetTranspose(ctx, n) })
}

func (m *Model) toggleFollow() tea.Cmd {
	if m.session.Following {
		m.viewer.Unfollow()
		m.sync()
		return nil
	}
	m.view = SongView
	return m.run(func(ctx context.Context) error { return m.viewer.Follow(ctx, nil) })
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case SongView:
		m.song, cmd = m.song.Update(msg)
	}
	return m, cmd
}

func (m *Model) login() tea.Cmd {
	return func() tea.Msg {
		return loggedInMsg(m.viewer.Login(m.ctx, m.user))
	}
}

// run executes a viewer operation off the update loop.
func (m *Model) run(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(op(m.ctx))
	}
}

// showingLive reports whether the song view shows the live session instead of the local selection.
func (m *Model) showingLive() bool {
	return m.session.Following && m.session.Live.IsActive
}

func (m *Model) renderSong() {
	var text string
	if m.showingLive() {
		text = chords.TransposeText(m.session.Live.SongContent, m.session.Live.Transpose)
	} else {
		text = m.session.Text()
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if chords.IsChordLine(line) {
			lines[i] = styles.chord.Render(line)
		}
	}
	m.song.SetContent(strings.Join(lines, "\n"))
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.loggedIn {
		return styles.help.Render("Signing in...")
	}

	var body string
	switch m.view {
	case PlaylistListView:
		body = m.renderPlaylistList()
	case SongView:
		body = m.renderSongView()
	}

	if m.toast != nil {
		body = fmt.Sprintf("%s\n%s", body, styles.Toast(m.toast.level, m.toast.message))
	}
	return body
}

func (m *Model) renderPlaylistList() string {
	if len(m.playlistList.Items()) == 0 {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.follow, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No playlists yet."), helpView)
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.follow, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderSongView() string {
	var title, info string

	if m.showingLive() {
		title = fmt.Sprintf("%s %s%s", styles.live.Render("LIVE"), m.session.Live.SongTitle, transposeLabel(m.session.Live.Transpose))
		info = "Following the live session"
	} else if song, ok := m.session.Song(); ok {
		title = song.Title + transposeLabel(m.session.Transpose)
		info = m.position()
	} else {
		title = "No song selected"
		if m.session.Following {
			info = "Waiting for the live session to start"
		}
	}

	if m.session.IsAdmin {
		info = strings.TrimSpace(info + " • " + styles.ok.Render("broadcasting"))
	}

	helpKeys := []key.Binding{m.keys.next, m.keys.prev, m.keys.sharpen, m.keys.flatten, m.keys.follow, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", styles.title.Render(title), styles.help.Render(info), m.song.View(), helpView)
}

// position describes where the current song sits in the playlist.
func (m *Model) position() string {
	view, ok := m.session.Playlist()
	if !ok {
		return ""
	}
	for i, it := range m.session.Entries {
		if it.SongID == m.session.CurrentSongID {
			return fmt.Sprintf("%s • %d/%d", view.DisplayName(), i+1, len(m.session.Entries))
		}
	}
	return view.DisplayName()
}

func transposeLabel(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf(" [+%d]", n)
	case n < 0:
		return fmt.Sprintf(" [%d]", n)
	default:
		return ""
	}
}
