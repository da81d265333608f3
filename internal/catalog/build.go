package catalog

import (
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/keys"
	"github.com/desertthunder/chordsync/internal/models"
)

// Sources are the raw documents a catalog is assembled from.
type Sources struct {
	UID         string
	Playlists   []docstore.Doc
	Songs       []docstore.Doc
	PublicSongs []docstore.Doc
	Grants      []docstore.Doc
}

// Build assembles a catalog. Owned songs replace public songs with the same id.
func Build(src Sources) Catalog {
	cat := New(src.UID)

	for _, d := range src.Playlists {
		p := models.PlaylistFromMap(d.ID, src.UID, d.Data)
		key := keys.MakeKey(src.UID, d.ID)
		cat.playlists[key] = PlaylistView{Playlist: p, Key: key}
	}

	for _, d := range src.Grants {
		g := models.GrantFromMap(d.Data)
		if g.OwnerUID == "" || g.PlaylistID == "" {
			continue
		}
		view := GrantView(g)
		if _, owned := cat.playlists[view.Key]; owned {
			continue
		}
		cat.playlists[view.Key] = view
	}

	addSongs(cat, src.PublicSongs, models.OriginPublic)
	addSongs(cat, src.Songs, models.OriginUser)
	return cat
}

// GrantView is the catalog entry of a linked playlist.
func GrantView(g models.Grant) PlaylistView {
	name := g.PlaylistName
	if name == "" {
		name = g.PlaylistID
	}
	from := g.From
	return PlaylistView{
		Playlist: models.Playlist{
			ID:       g.PlaylistID,
			OwnerUID: g.OwnerUID,
			Name:     name,
			From:     &from,
		},
		Key:    keys.MakeKey(g.OwnerUID, g.PlaylistID),
		Shared: true,
		Role:   g.Role,
	}
}

func addSongs(cat Catalog, docs []docstore.Doc, origin models.Origin) {
	for _, d := range docs {
		song, ok := models.SongFromMap(d.ID, d.Data)
		if !ok {
			continue
		}
		song.Origin = origin
		cat.songs[song.ID] = song
	}
}
