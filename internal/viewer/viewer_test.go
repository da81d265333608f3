package viewer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
	tu "github.com/desertthunder/chordsync/internal/testing"
)

const adminEmail = "admin@example.com"

var (
	paths = docstore.Paths{AppID: "app"}
	admin = models.User{UID: "admin", Email: adminEmail}
	guest = models.User{UID: "u2", Email: "guest@example.com"}
	owner = models.User{UID: "u1", Email: "owner@example.com", DisplayName: "Olive"}
)

type harness struct {
	store *docstore.MemoryStore
	notes *tu.RecordingNotifier
	prefs *shared.Prefs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := docstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), paths.ApprovedUser(guest.UID), map[string]any{"email": guest.Email}))
	return &harness{store: store, notes: &tu.RecordingNotifier{}, prefs: shared.NewPrefs("")}
}

func (h *harness) viewer() *Viewer {
	return New(h.store, Options{
		Paths:      paths,
		AdminEmail: adminEmail,
		RateLimit:  100,
		Prefs:      h.prefs,
		Notifier:   h.notes,
		Logger:     shared.NewLogger(nil),
	})
}

func (h *harness) playlist(t *testing.T, ownerUID, pid, name string, songs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, paths.Playlist(ownerUID, pid), map[string]any{"name": name}))
	for i, id := range songs {
		require.NoError(t, h.store.Set(ctx, paths.Song(ownerUID, id), map[string]any{
			"title":   "Song " + id,
			"content": fmt.Sprintf("[C]%s line", id),
			"userId":  ownerUID,
		}))
		require.NoError(t, h.store.Set(ctx, paths.Entry(ownerUID, pid, id), map[string]any{
			"order":     (i + 1) * 10,
			"transpose": i,
		}))
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unapproved user is rejected", func(t *testing.T) {
		h := newHarness(t)
		v := h.viewer()
		err := v.Login(ctx, models.User{UID: "stranger", Email: "x@example.com"})
		assert.ErrorIs(t, err, shared.ErrNotApproved)
		assert.False(t, v.Session().LoggedIn())
		assert.Equal(t, []string{"Not approved yet. Contact admin."}, h.notes.Messages(shared.LevelError))
	})

	t.Run("missing uid", func(t *testing.T) {
		assert.ErrorIs(t, newHarness(t).viewer().Login(ctx, models.User{}), shared.ErrLoginRequired)
	})

	t.Run("admin skips approval", func(t *testing.T) {
		h := newHarness(t)
		v := h.viewer()
		require.NoError(t, v.Login(ctx, admin))
		defer v.Logout()
		assert.True(t, v.Session().IsAdmin)
	})

	t.Run("admin match is case-sensitive", func(t *testing.T) {
		h := newHarness(t)
		err := h.viewer().Login(ctx, models.User{UID: "admin", Email: "Admin@example.com"})
		assert.ErrorIs(t, err, shared.ErrNotApproved)
	})

	t.Run("opens the remembered playlist", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, guest.UID, "p1", "Alpha", "a1")
		h.playlist(t, guest.UID, "p2", "Beta", "b1", "b2")
		require.NoError(t, h.prefs.SetLastPlaylist(guest.UID, "u2__p2"))

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()

		s := v.Session()
		assert.Equal(t, "u2__p2", s.CurrentKey)
		assert.Equal(t, "b1", s.CurrentSongID)
		assert.Len(t, s.Entries, 2)
	})

	t.Run("opens the first playlist otherwise", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, guest.UID, "p2", "Beta", "b1")
		h.playlist(t, guest.UID, "p1", "Alpha", "a1")

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()
		assert.Equal(t, "u2__p1", v.Session().CurrentKey)
	})

	t.Run("imports pending messages", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, guest.UID, "p1", "Alpha", "a1")
		msg := models.CopyMessage{
			PlaylistName: "Gift",
			From:         models.Sender{UID: owner.UID},
			Items:        []models.ShareItem{{Title: "Given", Content: "[D]x", Transpose: 4}},
		}
		require.NoError(t, h.store.Set(ctx, paths.InboxMessage(guest.UID, "m1"), msg.ToMap()))

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()

		s := v.Session()
		assert.True(t, s.Catalog.HasPlaylist("u2__shared-m1"))
		assert.Equal(t, "u2__shared-m1", s.CurrentKey)
		assert.Equal(t, 4, s.Transpose)
		song, ok := s.Song()
		require.True(t, ok)
		assert.Equal(t, "Given", song.Title)

		last, err := h.prefs.LastPlaylist(guest.UID)
		require.NoError(t, err)
		assert.Equal(t, "u2__shared-m1", last)
		assert.Contains(t, h.notes.Messages(shared.LevelSuccess), `Imported "Gift" from inbox.`)
	})

	t.Run("watcher links playlists while signed in", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, owner.UID, "p9", "Olive's Set", "o1", "o2")

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()

		link := models.LinkMessage{OwnerUID: owner.UID, PlaylistID: "p9", PlaylistName: "Olive's Set", Role: models.RoleViewer}
		require.NoError(t, h.store.Set(ctx, paths.InboxMessage(guest.UID, "m2"), link.ToMap()))

		require.Eventually(t, func() bool {
			s := v.Session()
			return s.CurrentKey == "u1__p9" && len(s.Entries) == 2
		}, 2*time.Second, 10*time.Millisecond)

		s := v.Session()
		view, ok := s.Playlist()
		require.True(t, ok)
		assert.True(t, view.Shared)
		song, ok := s.Song()
		require.True(t, ok)
		assert.Equal(t, models.OriginShared, song.Origin)
	})
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.playlist(t, guest.UID, "p1", "Alpha", "s1", "s2", "s3")

	v := h.viewer()
	require.NoError(t, v.Login(ctx, guest))
	defer v.Logout()

	current := func() (string, int) {
		s := v.Session()
		return s.CurrentSongID, s.Transpose
	}

	id, tr := current()
	assert.Equal(t, "s1", id)
	assert.Equal(t, 0, tr)

	require.NoError(t, v.Next(ctx))
	id, tr = current()
	assert.Equal(t, "s2", id)
	assert.Equal(t, 1, tr)

	require.NoError(t, v.Next(ctx))
	require.NoError(t, v.Next(ctx))
	id, _ = current()
	assert.Equal(t, "s1", id, "next wraps to the first song")

	require.NoError(t, v.Prev(ctx))
	id, tr = current()
	assert.Equal(t, "s3", id, "prev wraps to the last song")
	assert.Equal(t, 2, tr)
	assert.Equal(t, "[D]s3 line", v.Session().Text())

	assert.ErrorIs(t, v.SelectSong(ctx, "missing"), shared.ErrSongNotFound)
	assert.ErrorIs(t, v.SelectPlaylist(ctx, "u2__missing"), shared.ErrPlaylistNotFound)
}

func TestSetTranspose(t *testing.T) {
	ctx := context.Background()

	t.Run("owner persists", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, guest.UID, "p1", "Alpha", "s1")
		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()

		require.NoError(t, v.SetTranspose(ctx, 5))
		assert.Equal(t, 5, v.Session().Transpose)
		assert.Equal(t, 5, v.Session().Entries[0].Transpose)

		doc, _ := h.store.Get(ctx, paths.Entry(guest.UID, "p1", "s1"))
		assert.Equal(t, 5, doc.Data["transpose"])
	})

	t.Run("viewer grant is read-only", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, owner.UID, "p9", "Olive's Set", "o1")
		grant := models.Grant{OwnerUID: owner.UID, PlaylistID: "p9", PlaylistName: "Olive's Set", Role: models.RoleViewer}
		require.NoError(t, h.store.Set(ctx, paths.Grant(guest.UID, "u1__p9"), grant.ToMap()))

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()
		require.Equal(t, "u1__p9", v.Session().CurrentKey)

		assert.ErrorIs(t, v.SetTranspose(ctx, 3), shared.ErrReadOnly)
		assert.Equal(t, 3, v.Session().Transpose)

		doc, _ := h.store.Get(ctx, paths.Entry(owner.UID, "p9", "o1"))
		assert.Equal(t, 0, doc.Data["transpose"])
		assert.Equal(t, []string{"Shared playlist is read-only (viewer)."}, h.notes.Messages(shared.LevelWarn))
	})

	t.Run("editor grant writes under the owner", func(t *testing.T) {
		h := newHarness(t)
		h.playlist(t, owner.UID, "p9", "Olive's Set", "o1")
		grant := models.Grant{OwnerUID: owner.UID, PlaylistID: "p9", Role: models.RoleEditor}
		require.NoError(t, h.store.Set(ctx, paths.Grant(guest.UID, "u1__p9"), grant.ToMap()))

		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()

		require.NoError(t, v.SetTranspose(ctx, -2))
		doc, _ := h.store.Get(ctx, paths.Entry(owner.UID, "p9", "o1"))
		assert.Equal(t, -2, doc.Data["transpose"])
	})

	t.Run("requires a song", func(t *testing.T) {
		h := newHarness(t)
		v := h.viewer()
		require.NoError(t, v.Login(ctx, guest))
		defer v.Logout()
		assert.ErrorIs(t, v.SetTranspose(ctx, 1), shared.ErrNoSong)
		assert.ErrorIs(t, v.Next(ctx), shared.ErrNoPlaylist)
	})
}

func TestLiveSync(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.playlist(t, admin.UID, "set", "Tonight", "t1", "t2")

	stage := h.viewer()
	require.NoError(t, stage.Login(ctx, admin))
	defer stage.Logout()

	audience := h.viewer()
	require.NoError(t, audience.Login(ctx, guest))
	defer audience.Logout()
	require.NoError(t, audience.Follow(ctx, nil))
	assert.True(t, audience.Session().Following)

	require.NoError(t, stage.Next(ctx))
	require.Eventually(t, func() bool {
		st := audience.Session().Live
		return st.IsActive && st.SongID == "t2" && st.Transpose == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stage.SetTranspose(ctx, 7))
	require.Eventually(t, func() bool {
		return audience.Session().Live.Transpose == 7
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, audience.EndLive(ctx), shared.ErrNotAdmin)
	require.NoError(t, stage.EndLive(ctx))
	require.Eventually(t, func() bool {
		return !audience.Session().Live.IsActive
	}, 2*time.Second, 10*time.Millisecond)

	audience.Unfollow()
	assert.False(t, audience.Session().Following)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	v := h.viewer()
	require.NoError(t, v.Login(ctx, guest))

	v.Logout()
	assert.False(t, v.Session().LoggedIn())
	_, err := v.Importer()
	assert.ErrorIs(t, err, shared.ErrLoginRequired)

	msg := models.CopyMessage{PlaylistName: "Late", Items: []models.ShareItem{{Title: "x", Content: "y"}}}
	require.NoError(t, h.store.Set(ctx, paths.InboxMessage(guest.UID, "m1"), msg.ToMap()))
	time.Sleep(50 * time.Millisecond)

	doc, _ := h.store.Get(ctx, paths.InboxMessage(guest.UID, "m1"))
	assert.True(t, doc.Exists, "signed out viewers do not import")
}
