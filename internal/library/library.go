package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/keys"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

const orderStep = 10

// Library performs song and playlist writes for signed in users.
type Library struct {
	store  docstore.Store
	paths  docstore.Paths
	logger *log.Logger
	now    func() time.Time
}

// New creates a library over store.
func New(store docstore.Store, paths docstore.Paths, logger *log.Logger) *Library {
	return &Library{
		store:  store,
		paths:  paths,
		logger: logger.With("component", "library"),
		now:    time.Now,
	}
}

// SetClock overrides the clock used for song timestamps.
func (l *Library) SetClock(now func() time.Time) { l.now = now }

// SaveSong creates a song when id is empty and merges over the existing song otherwise.
func (l *Library) SaveSong(ctx context.Context, uid, id, title, content string) (models.Song, error) {
	if uid == "" {
		return models.Song{}, shared.ErrLoginRequired
	}

	song := models.Song{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		Timestamp: l.now().UnixMilli(),
		OwnerUID:  uid,
	}
	if err := song.Validate(); err != nil {
		return models.Song{}, err
	}

	if id == "" {
		newID, err := l.store.Add(ctx, l.paths.Songs(uid), song.ToMap())
		if err != nil {
			return models.Song{}, fmt.Errorf("failed to create song: %w", err)
		}
		song.ID = newID
		l.logger.Info("song created", "song_id", newID, "title", song.Title)
	} else {
		if err := l.store.Set(ctx, l.paths.Song(uid, id), song.ToMap(), docstore.Merge); err != nil {
			return models.Song{}, fmt.Errorf("failed to save song: %w", err)
		}
		l.logger.Info("song saved", "song_id", id, "title", song.Title)
	}

	song.Origin = models.OriginUser
	return song, nil
}

// DeleteSong removes uid's copy of a song and cleans it out of every playlist uid owns.
// Playlists of other users are never touched. Cleanup failures are logged and skipped.
func (l *Library) DeleteSong(ctx context.Context, uid, songID string) error {
	if uid == "" {
		return shared.ErrLoginRequired
	}
	if songID == "" {
		return shared.ErrNoSong
	}

	if err := l.store.Delete(ctx, l.paths.Song(uid, songID)); err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	playlists, err := l.store.Query(ctx, l.paths.Playlists(uid), docstore.Query{})
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	for _, d := range playlists {
		if err := l.store.Delete(ctx, l.paths.Entry(uid, d.ID, songID)); err != nil {
			l.logger.Warn("failed to delete entry", "playlist", d.ID, "song_id", songID, "error", err)
		}

		p := models.PlaylistFromMap(d.ID, uid, d.Data)
		if !contains(p.SongIDs, songID) {
			continue
		}
		err := l.store.Set(ctx, l.paths.Playlist(uid, d.ID), map[string]any{
			"songs": docstore.ArrayRemove(songID),
		}, docstore.Merge)
		if err != nil {
			l.logger.Warn("failed to update playlist songs", "playlist", d.ID, "song_id", songID, "error", err)
		}
	}

	l.logger.Info("song deleted", "song_id", songID, "playlists", len(playlists))
	return nil
}

// SaveTranspose stores the transpose of a song within a playlist. The owner and editors of a shared
// playlist may write; viewers get [shared.ErrReadOnly].
func (l *Library) SaveTranspose(ctx context.Context, view catalog.PlaylistView, uid, songID string, semitones int) error {
	if uid == "" {
		return shared.ErrLoginRequired
	}
	if songID == "" {
		return shared.ErrNoSong
	}
	if !view.CanEdit(uid) {
		return shared.ErrReadOnly
	}

	err := l.store.Set(ctx, l.paths.Entry(view.OwnerUID, view.ID, songID), map[string]any{
		"transpose": semitones,
	}, docstore.Merge)
	if err != nil {
		return fmt.Errorf("failed to save transpose: %w", err)
	}
	return nil
}

// AddSongToPlaylist creates a song and appends it to the playlist at key. Only the owner may add songs.
func (l *Library) AddSongToPlaylist(ctx context.Context, uid, key, title, content string) (models.Song, models.Entry, error) {
	if uid == "" {
		return models.Song{}, models.Entry{}, shared.ErrLoginRequired
	}
	owner, pid := keys.ParseKey(key, uid)
	if pid == "" {
		return models.Song{}, models.Entry{}, shared.ErrNoPlaylist
	}
	if owner != uid {
		return models.Song{}, models.Entry{}, shared.ErrNotOwner
	}

	playlist, err := l.store.Get(ctx, l.paths.Playlist(uid, pid))
	if err != nil {
		return models.Song{}, models.Entry{}, fmt.Errorf("failed to read playlist: %w", err)
	}
	if !playlist.Exists {
		return models.Song{}, models.Entry{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}

	entries, err := l.store.Query(ctx, l.paths.Entries(uid, pid), docstore.Query{})
	if err != nil {
		return models.Song{}, models.Entry{}, fmt.Errorf("failed to read entries: %w", err)
	}
	maxOrder := 0
	for _, d := range entries {
		maxOrder = max(maxOrder, models.EntryFromMap(d.ID, d.Data).Order)
	}

	song, err := l.SaveSong(ctx, uid, "", title, content)
	if err != nil {
		return models.Song{}, models.Entry{}, err
	}

	entry := models.Entry{SongID: song.ID, Order: maxOrder + orderStep}
	if err := l.store.Set(ctx, l.paths.Entry(uid, pid, song.ID), entry.ToMap(), docstore.Merge); err != nil {
		return song, models.Entry{}, fmt.Errorf("failed to add entry: %w", err)
	}

	err = l.store.Set(ctx, l.paths.Playlist(uid, pid), map[string]any{
		"songs": docstore.ArrayUnion(song.ID),
	}, docstore.Merge)
	if err != nil {
		return song, entry, fmt.Errorf("failed to update playlist songs: %w", err)
	}

	l.logger.Info("song added to playlist", "playlist", key, "song_id", song.ID, "order", entry.Order)
	return song, entry, nil
}

// CreatePlaylist creates an empty playlist whose id is derived from name.
func (l *Library) CreatePlaylist(ctx context.Context, uid, name, notes string) (string, error) {
	if uid == "" {
		return "", shared.ErrLoginRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	base := keys.Slugify(name)
	pid := base
	for i := 2; ; i++ {
		doc, err := l.store.Get(ctx, l.paths.Playlist(uid, pid))
		if err != nil {
			return "", fmt.Errorf("failed to check playlist: %w", err)
		}
		if !doc.Exists {
			break
		}
		pid = fmt.Sprintf("%s-%d", base, i)
	}

	err := l.store.Set(ctx, l.paths.Playlist(uid, pid), map[string]any{
		"name":      name,
		"notes":     notes,
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	key := keys.MakeKey(uid, pid)
	l.logger.Info("playlist created", "playlist", key)
	return key, nil
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
