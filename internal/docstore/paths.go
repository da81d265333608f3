package docstore

import (
	"fmt"
	"strings"
)

// Join builds a path from its segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Split returns the collection path and document id of a document path.
func Split(docPath string) (collPath, id string, err error) {
	i := strings.LastIndex(docPath, "/")
	if i <= 0 || i == len(docPath)-1 {
		return "", "", fmt.Errorf("invalid document path %q", docPath)
	}
	collPath, id = docPath[:i], docPath[i+1:]
	if strings.Count(docPath, "/")%2 == 0 {
		return "", "", fmt.Errorf("invalid document path %q: odd number of segments", docPath)
	}
	return collPath, id, nil
}

// Paths builds the document paths of one application namespace.
type Paths struct {
	AppID string
}

func (p Paths) user(uid string) string {
	return Join("artifacts", p.AppID, "users", uid)
}

func (p Paths) Songs(uid string) string { return Join(p.user(uid), "songs") }
func (p Paths) Song(uid, songID string) string { return Join(p.Songs(uid), songID) }
func (p Paths) Playlists(uid string) string { return Join(p.user(uid), "playlists") }
func (p Paths) Playlist(uid, pid string) string { return Join(p.Playlists(uid), pid) }
func (p Paths) Inbox(uid string) string { return Join(p.user(uid), "inboxShared") }
func (p Paths) InboxMessage(uid, id string) string { return Join(p.Inbox(uid), id) }
func (p Paths) Grants(uid string) string { return Join(p.user(uid), "grants") }
func (p Paths) Grant(uid, id string) string { return Join(p.Grants(uid), id) }

// Entries is the per-song ordering collection of a playlist, always under the playlist owner.
func (p Paths) Entries(ownerUID, pid string) string {
	return Join(p.Playlist(ownerUID, pid), "entries")
}

func (p Paths) Entry(ownerUID, pid, songID string) string {
	return Join(p.Entries(ownerUID, pid), songID)
}

// PublicSongs is the read-only collection of songs published to every user.
func (p Paths) PublicSongs() string {
	return Join("artifacts", p.AppID, "public", "data", "songs")
}

// LiveSessions is the collection holding live session documents.
func (p Paths) LiveSessions() string {
	return Join("artifacts", p.AppID, "public", "data", "liveSession")
}

func (p Paths) LiveSession(sessionID string) string {
	if sessionID == "" {
		sessionID = "current"
	}
	return Join(p.LiveSessions(), sessionID)
}

// ApprovedUser is the allow-list document of a non-admin user. It lives outside the app namespace.
func (p Paths) ApprovedUser(uid string) string {
	return Join("approvedUsers", uid)
}
