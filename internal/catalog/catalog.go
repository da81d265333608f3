package catalog

import (
	"sort"
	"strings"

	"github.com/desertthunder/chordsync/internal/keys"
	"github.com/desertthunder/chordsync/internal/models"
)

// PlaylistView is a selectable playlist.
type PlaylistView struct {
	models.Playlist
	Key    string
	Shared bool
	Role   models.Role
}

// DisplayName is the name shown in the selector.
func (v PlaylistView) DisplayName() string {
	if strings.TrimSpace(v.Name) != "" {
		return v.Name
	}
	return v.ID
}

// CanEdit reports whether uid may change entries of the playlist.
func (v PlaylistView) CanEdit(uid string) bool {
	if !v.Shared {
		return v.OwnerUID == uid
	}
	return v.Role == models.RoleEditor
}

// Catalog is an immutable snapshot of the songs and playlists visible to a user.
type Catalog struct {
	uid       string
	songs     map[string]models.Song
	playlists map[string]PlaylistView
}

// New returns an empty catalog for uid.
func New(uid string) Catalog {
	return Catalog{
		uid:       uid,
		songs:     map[string]models.Song{},
		playlists: map[string]PlaylistView{},
	}
}

// UID is the user the catalog was built for.
func (c Catalog) UID() string { return c.uid }

func (c Catalog) Song(id string) (models.Song, bool) {
	s, ok := c.songs[id]
	return s, ok
}

// Songs returns every song sorted by title then id.
func (c Catalog) Songs() []models.Song {
	out := make([]models.Song, 0, len(c.songs))
	for _, s := range c.songs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c Catalog) SongCount() int { return len(c.songs) }

func (c Catalog) Playlist(key string) (PlaylistView, bool) {
	p, ok := c.playlists[key]
	return p, ok
}

func (c Catalog) HasPlaylist(key string) bool {
	_, ok := c.playlists[key]
	return ok
}

// Keys returns playlist keys in selector order: display name, then key.
func (c Catalog) Keys() []string {
	out := make([]string, 0, len(c.playlists))
	for k := range c.playlists {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		ni := strings.ToLower(c.playlists[out[i]].DisplayName())
		nj := strings.ToLower(c.playlists[out[j]].DisplayName())
		if ni != nj {
			return ni < nj
		}
		return out[i] < out[j]
	})
	return out
}

// Playlists returns the views in selector order.
func (c Catalog) Playlists() []PlaylistView {
	keys := c.Keys()
	out := make([]PlaylistView, len(keys))
	for i, k := range keys {
		out[i] = c.playlists[k]
	}
	return out
}

// InitialKey picks the playlist to open: last if it is still visible, else the first in selector order.
func (c Catalog) InitialKey(last string) string {
	if last != "" && c.HasPlaylist(last) {
		return last
	}
	if keys := c.Keys(); len(keys) > 0 {
		return keys[0]
	}
	return ""
}

// WithPlaylist returns a copy with v added or replaced. An empty key is derived from owner and id.
func (c Catalog) WithPlaylist(v PlaylistView) Catalog {
	if v.Key == "" {
		v.Key = keys.MakeKey(v.OwnerUID, v.ID)
	}
	out := c.clone()
	out.playlists[v.Key] = v
	return out
}

// WithSongs returns a copy with songs added or replaced.
func (c Catalog) WithSongs(songs ...models.Song) Catalog {
	if len(songs) == 0 {
		return c
	}
	out := c.clone()
	for _, s := range songs {
		out.songs[s.ID] = s
	}
	return out
}

// WithoutSong returns a copy without the song.
func (c Catalog) WithoutSong(id string) Catalog {
	out := c.clone()
	delete(out.songs, id)
	return out
}

func (c Catalog) clone() Catalog {
	out := Catalog{
		uid:       c.uid,
		songs:     make(map[string]models.Song, len(c.songs)),
		playlists: make(map[string]PlaylistView, len(c.playlists)+1),
	}
	for k, v := range c.songs {
		out.songs[k] = v
	}
	for k, v := range c.playlists {
		out.playlists[k] = v
	}
	return out
}
