package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig  = fmt.Errorf("configuration not found")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrUnknownBackend = fmt.Errorf("unknown store backend")

	// Session errors
	ErrLoginRequired = fmt.Errorf("login required")
	ErrNotApproved   = fmt.Errorf("user not approved")
	ErrNoPlaylist    = fmt.Errorf("no playlist selected")
	ErrNoSong        = fmt.Errorf("no song selected")

	// Access errors
	ErrReadOnly = fmt.Errorf("shared playlist is read-only")
	ErrNotOwner = fmt.Errorf("playlist is owned by another user")
	ErrNotAdmin = fmt.Errorf("live session is admin only")

	// Data errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrSongNotFound     = fmt.Errorf("song not found")
	ErrEmptySong        = fmt.Errorf("cannot save an empty song")
	ErrMissingTitle     = fmt.Errorf("song title is required")
	ErrMalformedMessage = fmt.Errorf("malformed inbox message")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
