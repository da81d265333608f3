package catalog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/keys"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Loader reads catalogs and playlist entries from a store.
type Loader struct {
	store  docstore.Store
	paths  docstore.Paths
	logger *log.Logger
}

func NewLoader(store docstore.Store, paths docstore.Paths, logger *log.Logger) *Loader {
	return &Loader{store: store, paths: paths, logger: logger.With("component", "catalog")}
}

// Load reads owned playlists, owned songs, public songs and grants in parallel and builds the catalog.
func (l *Loader) Load(ctx context.Context, uid string) (Catalog, error) {
	if uid == "" {
		return Catalog{}, shared.ErrLoginRequired
	}

	src := Sources{UID: uid}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		docs, err := l.store.Query(gctx, l.paths.Playlists(uid), docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to load playlists: %w", err)
		}
		src.Playlists = docs
		return nil
	})
	g.Go(func() error {
		docs, err := l.store.Query(gctx, l.paths.Songs(uid), docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to load songs: %w", err)
		}
		src.Songs = docs
		return nil
	})
	g.Go(func() error {
		docs, err := l.store.Query(gctx, l.paths.PublicSongs(), docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to load public songs: %w", err)
		}
		src.PublicSongs = docs
		return nil
	})
	g.Go(func() error {
		docs, err := l.store.Query(gctx, l.paths.Grants(uid), docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to load grants: %w", err)
		}
		src.Grants = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	cat := Build(src)
	l.logger.Debug("catalog loaded", "uid", uid, "songs", cat.SongCount(), "playlists", len(cat.playlists))
	return cat, nil
}

// Item is a playlist entry with its resolved song.
type Item struct {
	models.Entry
	Song models.Song
}

// LoadEntries reads the ordered entries of the playlist at key. Songs missing from cat are fetched from the
// playlist owner's library when the owner is someone else; entries whose song cannot be found are skipped.
// The songs it fetched are returned so the caller can add them to its catalog.
func (l *Loader) LoadEntries(ctx context.Context, cat Catalog, key, currentUID string) ([]Item, []models.Song, error) {
	owner, pid := keys.ParseKey(key, currentUID)
	if owner == "" || pid == "" {
		return nil, nil, fmt.Errorf("%w: %q", shared.ErrNoPlaylist, key)
	}

	docs, err := l.store.Query(ctx, l.paths.Entries(owner, pid), docstore.Query{}.Order("order"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entries: %w", err)
	}

	items := make([]Item, 0, len(docs))
	var fetched []models.Song
	for _, d := range docs {
		entry := models.EntryFromMap(d.ID, d.Data)

		song, ok := cat.Song(entry.SongID)
		if !ok && owner != currentUID {
			song, ok = l.fetchSong(ctx, owner, entry.SongID)
			if ok {
				fetched = append(fetched, song)
			}
		}
		if !ok {
			l.logger.Warn("skipping entry without song", "playlist", key, "song_id", entry.SongID)
			continue
		}
		items = append(items, Item{Entry: entry, Song: song})
	}
	return items, fetched, nil
}

func (l *Loader) fetchSong(ctx context.Context, owner, songID string) (models.Song, bool) {
	doc, err := l.store.Get(ctx, l.paths.Song(owner, songID))
	if err != nil {
		l.logger.Warn("failed to fetch shared song", "owner", owner, "song_id", songID, "error", err)
		return models.Song{}, false
	}
	if !doc.Exists {
		return models.Song{}, false
	}

	song, ok := models.SongFromMap(doc.ID, doc.Data)
	if !ok {
		return models.Song{}, false
	}
	song.Origin = models.OriginShared
	if song.OwnerUID == "" {
		song.OwnerUID = owner
	}
	return song, true
}
