package keys

import (
	"regexp"
	"strings"
)

// Separator joins owner uid and playlist id in a composite key.
const Separator = "__"

const maxSlugLength = 60

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonSlug    = regexp.MustCompile(`[^a-z0-9-]`)
)

// MakeKey returns the composite key of a playlist.
func MakeKey(ownerUID, playlistID string) string {
	return ownerUID + Separator + playlistID
}

// ParseKey splits a composite key on its first separator. Keys without a separator belong to currentUID.
func ParseKey(key, currentUID string) (ownerUID, playlistID string) {
	owner, pid, ok := strings.Cut(key, Separator)
	if !ok {
		return currentUID, key
	}
	return owner, pid
}

// SharedPlaylistID is the deterministic id of the playlist a copy message imports into.
func SharedPlaylistID(messageID string) string {
	return "shared-" + messageID
}

// GrantID is the document id of the grant for a linked playlist.
func GrantID(ownerUID, playlistID string) string {
	return MakeKey(ownerUID, playlistID)
}

// Slugify turns a playlist name into an id-safe slug, falling back to "shared".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespace.ReplaceAllString(s, "-")
	s = nonSlug.ReplaceAllString(s, "")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	if s == "" {
		return "shared"
	}
	return s
}
