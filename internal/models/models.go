// package models defines the data model for the chord library
package models

import (
	"strings"
	"time"

	"github.com/desertthunder/chordsync/internal/shared"
)

// Role is the access level a grant gives on a shared playlist.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// ParseRole returns [RoleEditor] for "editor" and [RoleViewer] for everything else.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleEditor)) {
		return RoleEditor
	}
	return RoleViewer
}

// Origin records which collection a song in the catalog was loaded from.
type Origin int

const (
	OriginPublic Origin = iota
	OriginUser
	OriginShared
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginShared:
		return "shared"
	default:
		return "public"
	}
}

// SourceInboxShared marks songs created by importing a copy share.
const SourceInboxShared = "inboxShared"

// User is the authenticated identity of a session.
type User struct {
	UID         string
	Email       string
	DisplayName string
}

// Song is a titled lyrics/chord text.
type Song struct {
	ID        string
	Title     string
	Content   string
	Timestamp int64 // milliseconds since epoch
	OwnerUID  string
	Source    string
	FromUID   string
	Origin    Origin
}

// Validate checks the fields required before a song can be saved.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return shared.ErrMissingTitle
	}
	if strings.TrimSpace(s.Content) == "" {
		return shared.ErrEmptySong
	}
	return nil
}

// Sender identifies who shared a playlist.
type Sender struct {
	UID         string
	Email       string
	DisplayName string
}

// Label returns the most readable identifier of the sender.
func (s Sender) Label() string {
	switch {
	case s.DisplayName != "":
		return s.DisplayName
	case s.Email != "":
		return s.Email
	default:
		return s.UID
	}
}

// Playlist is a user's named collection of songs.
type Playlist struct {
	ID             string
	OwnerUID       string
	Name           string
	Notes          string
	From           *Sender
	CreatedByShare bool
	CreatedAt      time.Time
	SongIDs        []string // legacy membership array kept alongside entries
}

// Entry is a song's position and transpose inside a playlist.
type Entry struct {
	SongID    string
	Order     int
	Transpose int
}

// Grant is a persisted reference to another user's playlist.
type Grant struct {
	OwnerUID     string
	PlaylistID   string
	PlaylistName string
	Role         Role
	From         Sender
}

// LiveState is the broadcast state of a live performance session.
type LiveState struct {
	IsActive    bool
	SongID      string
	SongTitle   string
	SongContent string
	Transpose   int
	UpdatedAt   time.Time
}
