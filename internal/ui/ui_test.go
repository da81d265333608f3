package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
	"github.com/desertthunder/chordsync/internal/viewer"
)

var paths = docstore.Paths{AppID: "app"}

func newTestModel(t *testing.T) (*Model, *viewer.Viewer) {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	user := models.User{UID: "admin", Email: "admin@example.com"}
	if err := store.Set(ctx, paths.Playlist(user.UID, "setlist"), map[string]any{"name": "Sunday"}); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	for i, id := range []string{"s1", "s2"} {
		if err := store.Set(ctx, paths.Song(user.UID, id), map[string]any{"title": "Song " + id, "content": "[G]la la\nC G"}); err != nil {
			t.Fatalf("failed to seed song: %v", err)
		}
		if err := store.Set(ctx, paths.Entry(user.UID, "setlist", id), map[string]any{"order": (i + 1) * 10, "transpose": i}); err != nil {
			t.Fatalf("failed to seed entry: %v", err)
		}
	}

	events := NewEvents()
	v := viewer.New(store, viewer.Options{
		Paths:      paths,
		AdminEmail: user.Email,
		RateLimit:  100,
		Notifier:   events,
		Logger:     shared.NewLogger(nil),
		OnChange:   events.SessionChanged,
	})
	t.Cleanup(v.Logout)

	m := NewModel(ctx, v, events, user)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return m, v
}

// press sends a key and runs the command it returns, feeding the result back in.
func press(m *Model, msg tea.KeyMsg) {
	_, cmd := m.Update(msg)
	if cmd != nil {
		m.Update(cmd())
	}
	m.Update(sessionChangedMsg())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEvents(t *testing.T) {
	t.Run("duplicate notifications are suppressed", func(t *testing.T) {
		events := NewEvents()
		events.Notify(shared.LevelWarn, "Shared playlist is read-only (viewer).")
		events.Notify(shared.LevelWarn, "Shared playlist is read-only (viewer).")

		if got := len(events.ch); got != 1 {
			t.Errorf("expected 1 queued toast, got %d", got)
		}
	})

	t.Run("session changes collapse", func(t *testing.T) {
		events := NewEvents()
		events.SessionChanged(viewer.Session{})
		events.SessionChanged(viewer.Session{})

		msg := events.wait()().(Msg)
		if msg.kind != MsgSessionChanged {
			t.Errorf("expected session change, got %v", msg.kind)
		}
		if len(events.changed) != 0 {
			t.Error("expected the second change to be collapsed into the first")
		}
	})
}

func TestModel(t *testing.T) {
	t.Run("login opens the first playlist", func(t *testing.T) {
		m, _ := newTestModel(t)
		if !strings.Contains(m.View(), "Signing in") {
			t.Errorf("expected sign in placeholder, got %q", m.View())
		}

		m.Update(m.login()())

		if m.view != SongView {
			t.Fatalf("expected song view, got %v", m.view)
		}
		view := m.View()
		if !strings.Contains(view, "Song s1") {
			t.Errorf("expected first song title in view:\n%s", view)
		}
		if !strings.Contains(view, "Sunday • 1/2") {
			t.Errorf("expected playlist position in view:\n%s", view)
		}
	})

	t.Run("next and transpose", func(t *testing.T) {
		m, v := newTestModel(t)
		m.Update(m.login()())

		press(m, runes("l"))
		if got := v.Session().CurrentSongID; got != "s2" {
			t.Fatalf("expected s2, got %q", got)
		}
		if !strings.Contains(m.View(), "Song s2 [+1]") {
			t.Errorf("expected stored transpose in title:\n%s", m.View())
		}

		press(m, runes("+"))
		if got := v.Session().Transpose; got != 2 {
			t.Errorf("expected transpose 2, got %d", got)
		}
		if !strings.Contains(m.View(), "[A]la la") {
			t.Errorf("expected transposed content:\n%s", m.View())
		}

		press(m, runes("0"))
		if got := v.Session().Transpose; got != 0 {
			t.Errorf("expected transpose reset, got %d", got)
		}

		press(m, runes("h"))
		if got := v.Session().CurrentSongID; got != "s1" {
			t.Errorf("expected s1, got %q", got)
		}
	})

	t.Run("escape returns to playlists", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(m.login()())

		press(m, tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != PlaylistListView {
			t.Fatalf("expected playlist view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Sunday") {
			t.Errorf("expected playlist in list:\n%s", m.View())
		}
	})

	t.Run("toasts expire", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(m.login()())

		m.Update(toastMsg(shared.LevelWarn, "Heads up"))
		if !strings.Contains(m.View(), "Heads up") {
			t.Fatalf("expected toast in view:\n%s", m.View())
		}

		m.Update(toastExpiredMsg(m.toast.id - 1))
		if m.toast == nil {
			t.Fatal("expected a stale expiry to keep the toast")
		}

		m.Update(toastExpiredMsg(m.toast.id))
		if strings.Contains(m.View(), "Heads up") {
			t.Errorf("expected toast to be gone:\n%s", m.View())
		}
	})

	t.Run("login errors are shown", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(loggedInMsg(shared.ErrNotApproved))
		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
