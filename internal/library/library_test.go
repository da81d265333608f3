package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
	tu "github.com/desertthunder/chordsync/internal/testing"
)

var paths = docstore.Paths{AppID: "app"}

func newLibrary(t *testing.T) (*Library, *docstore.MemoryStore, *tu.FlakyStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	flaky := tu.NewFlakyStore(store)
	lib := New(flaky, paths, shared.NewLogger(nil))
	lib.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })
	return lib, store, flaky
}

func TestSaveSong(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and updates", func(t *testing.T) {
		lib, store, _ := newLibrary(t)

		song, err := lib.SaveSong(ctx, "u1", "", "  Hallelujah ", "[C]Now I've heard")
		require.NoError(t, err)
		require.NotEmpty(t, song.ID)
		assert.Equal(t, "Hallelujah", song.Title)
		assert.Equal(t, int64(1700000000000), song.Timestamp)

		_, err = lib.SaveSong(ctx, "u1", song.ID, "Hallelujah", "[G]Now I've heard")
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len(paths.Songs("u1")))

		doc, err := store.Get(ctx, paths.Song("u1", song.ID))
		require.NoError(t, err)
		got, ok := models.SongFromMap(doc.ID, doc.Data)
		require.True(t, ok)
		assert.Equal(t, "[G]Now I've heard", got.Content)
		assert.Equal(t, "u1", got.OwnerUID)
	})

	t.Run("preconditions abort before writing", func(t *testing.T) {
		lib, _, flaky := newLibrary(t)

		_, err := lib.SaveSong(ctx, "", "", "Title", "body")
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		_, err = lib.SaveSong(ctx, "u1", "", " ", "body")
		assert.ErrorIs(t, err, shared.ErrMissingTitle)
		_, err = lib.SaveSong(ctx, "u1", "", "Title", "\n\n")
		assert.ErrorIs(t, err, shared.ErrEmptySong)

		assert.Zero(t, flaky.Calls(tu.OpAdd))
		assert.Zero(t, flaky.Calls(tu.OpSet))
	})
}

func TestDeleteSong(t *testing.T) {
	ctx := context.Background()
	lib, store, _ := newLibrary(t)

	for _, owner := range []string{"u1", "u2"} {
		require.NoError(t, store.Set(ctx, paths.Song(owner, "s1"), map[string]any{"title": "One", "content": "x"}))
		require.NoError(t, store.Set(ctx, paths.Playlist(owner, "p1"), map[string]any{"name": "Set", "songs": []any{"s1", "s2"}}))
		require.NoError(t, store.Set(ctx, paths.Entry(owner, "p1", "s1"), map[string]any{"order": 10, "transpose": 0}))
		require.NoError(t, store.Set(ctx, paths.Entry(owner, "p1", "s2"), map[string]any{"order": 20, "transpose": 0}))
	}
	require.NoError(t, store.Set(ctx, paths.Playlist("u1", "p2"), map[string]any{"name": "Other"}))

	require.NoError(t, lib.DeleteSong(ctx, "u1", "s1"))

	doc, _ := store.Get(ctx, paths.Song("u1", "s1"))
	assert.False(t, doc.Exists)
	doc, _ = store.Get(ctx, paths.Entry("u1", "p1", "s1"))
	assert.False(t, doc.Exists)
	doc, _ = store.Get(ctx, paths.Playlist("u1", "p1"))
	assert.Equal(t, []string{"s2"}, models.PlaylistFromMap(doc.ID, "u1", doc.Data).SongIDs)
	doc, _ = store.Get(ctx, paths.Playlist("u1", "p2"))
	assert.NotContains(t, doc.Data, "songs")

	t.Run("other owners are untouched", func(t *testing.T) {
		doc, _ := store.Get(ctx, paths.Song("u2", "s1"))
		assert.True(t, doc.Exists)
		doc, _ = store.Get(ctx, paths.Entry("u2", "p1", "s1"))
		assert.True(t, doc.Exists)
		doc, _ = store.Get(ctx, paths.Playlist("u2", "p1"))
		assert.Equal(t, []string{"s1", "s2"}, models.PlaylistFromMap(doc.ID, "u2", doc.Data).SongIDs)
	})

	t.Run("entry cleanup failures are skipped", func(t *testing.T) {
		lib, store, flaky := newLibrary(t)
		require.NoError(t, store.Set(ctx, paths.Song("u1", "s1"), map[string]any{"title": "One", "content": "x"}))
		require.NoError(t, store.Set(ctx, paths.Playlist("u1", "p1"), map[string]any{"name": "Set"}))
		flaky.FailOn(tu.OpDelete, "/entries/", -1)

		assert.NoError(t, lib.DeleteSong(ctx, "u1", "s1"))
	})
}

func TestSaveTranspose(t *testing.T) {
	ctx := context.Background()
	owned := catalog.PlaylistView{Playlist: models.Playlist{ID: "p1", OwnerUID: "u1"}, Key: "u1__p1"}
	editor := catalog.PlaylistView{Playlist: models.Playlist{ID: "p1", OwnerUID: "u1"}, Key: "u1__p1", Shared: true, Role: models.RoleEditor}
	viewer := catalog.PlaylistView{Playlist: models.Playlist{ID: "p1", OwnerUID: "u1"}, Key: "u1__p1", Shared: true, Role: models.RoleViewer}

	t.Run("owner writes", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		require.NoError(t, lib.SaveTranspose(ctx, owned, "u1", "s1", 3))
		doc, _ := store.Get(ctx, paths.Entry("u1", "p1", "s1"))
		assert.Equal(t, 3, doc.Data["transpose"])
	})

	t.Run("editor writes under the owner", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		require.NoError(t, store.Set(ctx, paths.Entry("u1", "p1", "s1"), map[string]any{"order": 10, "transpose": 0}))
		require.NoError(t, lib.SaveTranspose(ctx, editor, "u2", "s1", -2))
		doc, _ := store.Get(ctx, paths.Entry("u1", "p1", "s1"))
		assert.Equal(t, -2, doc.Data["transpose"])
		assert.Equal(t, 10, doc.Data["order"])
	})

	t.Run("viewer is read-only before storage", func(t *testing.T) {
		lib, _, flaky := newLibrary(t)
		assert.ErrorIs(t, lib.SaveTranspose(ctx, viewer, "u2", "s1", 1), shared.ErrReadOnly)
		assert.Zero(t, flaky.Calls(tu.OpSet))
	})

	t.Run("non-owner of an unshared playlist is read-only", func(t *testing.T) {
		lib, _, _ := newLibrary(t)
		assert.ErrorIs(t, lib.SaveTranspose(ctx, owned, "u2", "s1", 1), shared.ErrReadOnly)
	})
}

func TestAddSongToPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("appends after the highest order", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		require.NoError(t, store.Set(ctx, paths.Playlist("u1", "p1"), map[string]any{"name": "Set", "songs": []any{"a"}}))
		require.NoError(t, store.Set(ctx, paths.Entry("u1", "p1", "a"), map[string]any{"order": 10, "transpose": 0}))
		require.NoError(t, store.Set(ctx, paths.Entry("u1", "p1", "b"), map[string]any{"order": 35, "transpose": 0}))

		song, entry, err := lib.AddSongToPlaylist(ctx, "u1", "u1__p1", "New", "[D]words")
		require.NoError(t, err)
		assert.Equal(t, 45, entry.Order)
		assert.Equal(t, song.ID, entry.SongID)

		doc, _ := store.Get(ctx, paths.Playlist("u1", "p1"))
		assert.Equal(t, []string{"a", song.ID}, models.PlaylistFromMap("p1", "u1", doc.Data).SongIDs)
	})

	t.Run("first entry gets order 10", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		require.NoError(t, store.Set(ctx, paths.Playlist("u1", "p1"), map[string]any{"name": "Set"}))
		_, entry, err := lib.AddSongToPlaylist(ctx, "u1", "p1", "New", "body")
		require.NoError(t, err)
		assert.Equal(t, 10, entry.Order)
	})

	t.Run("owner only", func(t *testing.T) {
		lib, _, flaky := newLibrary(t)
		_, _, err := lib.AddSongToPlaylist(ctx, "u2", "u1__p1", "New", "body")
		assert.ErrorIs(t, err, shared.ErrNotOwner)
		assert.Zero(t, flaky.Calls(tu.OpAdd))
	})

	t.Run("missing playlist", func(t *testing.T) {
		lib, _, _ := newLibrary(t)
		_, _, err := lib.AddSongToPlaylist(ctx, "u1", "u1__nope", "New", "body")
		assert.ErrorIs(t, err, shared.ErrPlaylistNotFound)
	})
}

func TestCreatePlaylist(t *testing.T) {
	ctx := context.Background()
	lib, store, _ := newLibrary(t)

	key, err := lib.CreatePlaylist(ctx, "u1", "Sunday Morning!", "")
	require.NoError(t, err)
	assert.Equal(t, "u1__sunday-morning", key)

	key, err = lib.CreatePlaylist(ctx, "u1", "sunday morning", "")
	require.NoError(t, err)
	assert.Equal(t, "u1__sunday-morning-2", key)
	assert.Equal(t, 2, store.Len(paths.Playlists("u1")))

	_, err = lib.CreatePlaylist(ctx, "u1", "  ", "")
	assert.ErrorIs(t, err, shared.ErrMissingArgument)
}

func TestShare(t *testing.T) {
	ctx := context.Background()
	sam := models.User{UID: "u1", Email: "sam@example.com", DisplayName: "Sam"}
	view := catalog.PlaylistView{Playlist: models.Playlist{ID: "p1", OwnerUID: "u1", Name: "Sunday", Notes: "capo"}, Key: "u1__p1"}

	t.Run("copy message decodes on the recipient side", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		items := []catalog.Item{
			{Entry: models.Entry{SongID: "s1", Order: 10, Transpose: 2}, Song: models.Song{ID: "s1", Title: "One", Content: "[C]a"}},
			{Entry: models.Entry{SongID: "s2", Order: 20}, Song: models.Song{ID: "s2", Title: "Two", Content: "[D]b"}},
		}

		id, err := lib.ShareCopy(ctx, sam, "u2", view, items)
		require.NoError(t, err)

		doc, err := store.Get(ctx, paths.InboxMessage("u2", id))
		require.NoError(t, err)
		msg, err := models.DecodeInboxMessage(doc.ID, doc.Data)
		require.NoError(t, err)
		copyMsg, ok := msg.(models.CopyMessage)
		require.True(t, ok)
		assert.Equal(t, "Sunday", copyMsg.PlaylistName)
		assert.Equal(t, "capo", copyMsg.Notes)
		assert.Equal(t, "u1", copyMsg.From.UID)
		require.Len(t, copyMsg.Items, 2)
		assert.Equal(t, 2, copyMsg.Items[0].Transpose)
		assert.Equal(t, "Two", copyMsg.Items[1].Title)
	})

	t.Run("empty copy is rejected", func(t *testing.T) {
		lib, _, _ := newLibrary(t)
		_, err := lib.ShareCopy(ctx, sam, "u2", view, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("link message decodes on the recipient side", func(t *testing.T) {
		lib, store, _ := newLibrary(t)
		id, err := lib.ShareLink(ctx, sam, "u2", view, models.RoleEditor)
		require.NoError(t, err)

		doc, _ := store.Get(ctx, paths.InboxMessage("u2", id))
		msg, err := models.DecodeInboxMessage(doc.ID, doc.Data)
		require.NoError(t, err)
		link, ok := msg.(models.LinkMessage)
		require.True(t, ok)
		assert.Equal(t, "u1", link.OwnerUID)
		assert.Equal(t, "p1", link.PlaylistID)
		assert.Equal(t, models.RoleEditor, link.Role)
	})

	t.Run("only owners share links", func(t *testing.T) {
		lib, _, _ := newLibrary(t)
		linked := view
		linked.Shared = true
		linked.Role = models.RoleEditor
		_, err := lib.ShareLink(ctx, models.User{UID: "u3"}, "u2", linked, models.RoleViewer)
		assert.ErrorIs(t, err, shared.ErrNotOwner)
	})
}
