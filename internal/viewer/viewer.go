package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/chords"
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/inbox"
	"github.com/desertthunder/chordsync/internal/library"
	"github.com/desertthunder/chordsync/internal/live"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Session is a snapshot of the viewer state.
type Session struct {
	User          models.User
	IsAdmin       bool
	Catalog       catalog.Catalog
	CurrentKey    string
	CurrentSongID string
	Transpose     int
	Entries       []catalog.Item
	Following     bool
	Live          models.LiveState
}

// LoggedIn reports whether a user is signed in.
func (s Session) LoggedIn() bool { return s.User.UID != "" }

// Playlist returns the selected playlist.
func (s Session) Playlist() (catalog.PlaylistView, bool) {
	if s.CurrentKey == "" {
		return catalog.PlaylistView{}, false
	}
	return s.Catalog.Playlist(s.CurrentKey)
}

// Song returns the selected song.
func (s Session) Song() (models.Song, bool) {
	if s.CurrentSongID == "" {
		return models.Song{}, false
	}
	return s.Catalog.Song(s.CurrentSongID)
}

// Text returns the selected song's content with the current transpose applied.
func (s Session) Text() string {
	song, ok := s.Song()
	if !ok {
		return ""
	}
	return chords.TransposeText(song.Content, s.Transpose)
}

// Options configure a [Viewer].
type Options struct {
	Paths       docstore.Paths
	AdminEmail  string
	SessionID   string
	MaxAttempts int
	RateLimit   float64
	Prefs       *shared.Prefs
	Notifier    shared.Notifier
	Logger      *log.Logger
	// OnChange is called with a snapshot after every state change, without the viewer lock held.
	OnChange func(Session)
}

// Viewer is the session orchestrator.
type Viewer struct {
	store    docstore.Store
	paths    docstore.Paths
	loader   *catalog.Loader
	library  *library.Library
	prefs    *shared.Prefs
	notifier shared.Notifier
	logger   *log.Logger
	opts     Options

	mu          sync.Mutex
	session     Session
	importer    *inbox.Importer
	watcher     *inbox.Watcher
	broadcaster *live.Broadcaster
	listener    *live.Listener
}

// New creates a signed out viewer.
func New(store docstore.Store, opts Options) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = shared.NewLogNotifier(logger)
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = shared.NewPrefs("")
	}

	return &Viewer{
		store:    store,
		paths:    opts.Paths,
		loader:   catalog.NewLoader(store, opts.Paths, logger),
		library:  library.New(store, opts.Paths, logger),
		prefs:    prefs,
		notifier: notifier,
		logger:   logger.With("component", "viewer"),
		opts:     opts,
	}
}

// Session returns a snapshot of the current state.
func (v *Viewer) Session() Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *Viewer) snapshot() Session {
	s := v.session
	s.Entries = append([]catalog.Item(nil), v.session.Entries...)
	return s
}

func (v *Viewer) changed() {
	if v.opts.OnChange != nil {
		v.opts.OnChange(v.Session())
	}
}

// Login signs user in. Non-admin users must have an approved user document.
func (v *Viewer) Login(ctx context.Context, user models.User) error {
	if user.UID == "" {
		return shared.ErrLoginRequired
	}

	isAdmin := live.IsAdmin(user.Email, v.opts.AdminEmail)
	if !isAdmin {
		doc, err := v.store.Get(ctx, v.paths.ApprovedUser(user.UID))
		if err != nil {
			v.notifier.Notify(shared.LevelError, "Error during startup: "+err.Error())
			return fmt.Errorf("failed to check approval: %w", err)
		}
		if !doc.Exists {
			v.logger.Warn("user not approved", "uid", user.UID)
			v.notifier.Notify(shared.LevelError, "Not approved yet. Contact admin.")
			return shared.ErrNotApproved
		}
	}

	v.Logout()

	importer := inbox.NewImporter(v.store, v.paths, user, v.notifier, v.logger, inbox.Options{MaxAttempts: v.opts.MaxAttempts})
	importer.SetHost(v)

	v.mu.Lock()
	v.session = Session{User: user, IsAdmin: isAdmin, Catalog: catalog.New(user.UID)}
	v.importer = importer
	v.watcher = inbox.NewWatcher(importer, v.opts.RateLimit)
	v.broadcaster = live.NewBroadcaster(v.store, v.paths.LiveSession(v.opts.SessionID), isAdmin, v.logger)
	watcher := v.watcher
	v.mu.Unlock()

	v.logger.Info("logged in", "uid", user.UID, "admin", isAdmin)

	if err := v.Refresh(ctx); err == nil {
		last, err := v.prefs.LastPlaylist(user.UID)
		if err != nil {
			v.logger.Warn("failed to read last playlist", "error", err)
		}
		if key := v.Catalog().InitialKey(last); key != "" {
			if err := v.SelectPlaylist(ctx, key); err != nil {
				v.logger.Warn("failed to select initial playlist", "playlist", key, "error", err)
			}
		}
	}

	if _, err := importer.Sweep(ctx, nil); err != nil {
		v.logger.Warn("inbox sweep failed", "error", err)
	}

	if err := watcher.Start(ctx); err != nil {
		v.notifier.Notify(shared.LevelError, "Inbox listener error: "+err.Error())
		v.logger.Error("failed to start inbox watcher", "error", err)
	}

	v.changed()
	return nil
}

// Logout stops every listener and clears the session.
func (v *Viewer) Logout() {
	v.mu.Lock()
	watcher, listener, broadcaster := v.watcher, v.listener, v.broadcaster
	wasLoggedIn := v.session.LoggedIn()
	v.watcher, v.listener, v.broadcaster, v.importer = nil, nil, nil, nil
	v.session = Session{}
	v.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	if listener != nil {
		listener.Stop()
	}
	broadcaster.Wait()

	if wasLoggedIn {
		v.logger.Info("logged out")
		v.changed()
	}
}

// Importer returns the inbox importer of the signed in user.
func (v *Viewer) Importer() (*inbox.Importer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.importer == nil {
		return nil, shared.ErrLoginRequired
	}
	return v.importer, nil
}

// Library returns the write side used for the signed in user.
func (v *Viewer) Library() *library.Library { return v.library }

// Catalog returns the current catalog.
func (v *Viewer) Catalog() catalog.Catalog {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Catalog
}

// Refresh rebuilds the catalog. On failure the previous catalog stays in place.
func (v *Viewer) Refresh(ctx context.Context) error {
	uid := v.uid()
	if uid == "" {
		return shared.ErrLoginRequired
	}

	cat, err := v.loader.Load(ctx, uid)
	if err != nil {
		v.logger.Error("failed to load catalog", "error", err)
		v.notifier.Notify(shared.LevelError, "Failed to load library: "+err.Error())
		return err
	}

	v.mu.Lock()
	if v.session.User.UID != uid {
		v.mu.Unlock()
		return shared.ErrLoginRequired
	}
	for _, it := range v.session.Entries {
		if _, ok := cat.Song(it.SongID); !ok && it.Song.Origin == models.OriginShared {
			cat = cat.WithSongs(it.Song)
		}
	}
	v.session.Catalog = cat
	if v.session.CurrentKey != "" && !cat.HasPlaylist(v.session.CurrentKey) {
		v.session.CurrentKey = ""
		v.session.Entries = nil
	}
	v.mu.Unlock()

	v.changed()
	return nil
}

// AddPlaylist inserts a playlist into the catalog without reloading it.
func (v *Viewer) AddPlaylist(view catalog.PlaylistView) {
	v.mu.Lock()
	v.session.Catalog = v.session.Catalog.WithPlaylist(view)
	v.mu.Unlock()
	v.changed()
}

// RememberPlaylist persists key as the last viewed playlist.
func (v *Viewer) RememberPlaylist(key string) {
	uid := v.uid()
	if uid == "" || key == "" {
		return
	}
	if err := v.prefs.SetLastPlaylist(uid, key); err != nil {
		v.logger.Warn("failed to remember playlist", "playlist", key, "error", err)
	}
}

// SelectPlaylist makes key current, loads its entries and selects the first song.
func (v *Viewer) SelectPlaylist(ctx context.Context, key string) error {
	v.mu.Lock()
	uid := v.session.User.UID
	cat := v.session.Catalog
	v.mu.Unlock()

	if uid == "" {
		return shared.ErrLoginRequired
	}
	if !cat.HasPlaylist(key) {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}

	items, fetched, err := v.loader.LoadEntries(ctx, cat, key, uid)
	if err != nil {
		v.notifier.Notify(shared.LevelError, "Failed to load playlist: "+err.Error())
		return err
	}

	v.mu.Lock()
	v.session.Catalog = v.session.Catalog.WithSongs(fetched...)
	v.session.CurrentKey = key
	v.session.Entries = items
	v.session.CurrentSongID = ""
	v.session.Transpose = 0
	if len(items) > 0 {
		v.session.CurrentSongID = items[0].SongID
		v.session.Transpose = items[0].Transpose
	}
	v.mu.Unlock()

	v.RememberPlaylist(key)
	v.broadcast(ctx)
	v.changed()
	return nil
}

// SelectSong shows songID with the transpose stored for it in the current playlist.
func (v *Viewer) SelectSong(ctx context.Context, songID string) error {
	v.mu.Lock()
	if !v.session.LoggedIn() {
		v.mu.Unlock()
		return shared.ErrLoginRequired
	}
	if _, ok := v.session.Catalog.Song(songID); !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	v.session.CurrentSongID = songID
	v.session.Transpose = 0
	for _, it := range v.session.Entries {
		if it.SongID == songID {
			v.session.Transpose = it.Transpose
			break
		}
	}
	v.mu.Unlock()

	v.broadcast(ctx)
	v.changed()
	return nil
}

// Next selects the following song of the playlist, wrapping to the first.
func (v *Viewer) Next(ctx context.Context) error { return v.step(ctx, 1) }

// Prev selects the preceding song of the playlist, wrapping to the last.
func (v *Viewer) Prev(ctx context.Context) error { return v.step(ctx, -1) }

func (v *Viewer) step(ctx context.Context, delta int) error {
	v.mu.Lock()
	entries := v.session.Entries
	current := v.session.CurrentSongID
	v.mu.Unlock()

	if len(entries) == 0 {
		return shared.ErrNoPlaylist
	}

	idx := -1
	for i, it := range entries {
		if it.SongID == current {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = ((idx+delta)%len(entries) + len(entries)) % len(entries)
	}
	return v.SelectSong(ctx, entries[next].SongID)
}

// SetTranspose changes the transpose of the selected song and stores it on the playlist entry.
//
// The shown transpose always changes. On a playlist shared read-only nothing is stored and
// [shared.ErrReadOnly] is returned.
func (v *Viewer) SetTranspose(ctx context.Context, semitones int) error {
	v.mu.Lock()
	uid := v.session.User.UID
	songID := v.session.CurrentSongID
	view, hasPlaylist := v.session.Playlist()
	if songID == "" {
		v.mu.Unlock()
		return shared.ErrNoSong
	}
	v.session.Transpose = semitones
	v.mu.Unlock()

	v.broadcast(ctx)
	defer v.changed()

	if !hasPlaylist {
		return nil
	}
	if err := v.library.SaveTranspose(ctx, view, uid, songID, semitones); err != nil {
		if errors.Is(err, shared.ErrReadOnly) {
			v.notifier.Notify(shared.LevelWarn, "Shared playlist is read-only (viewer).")
		} else {
			v.logger.Warn("failed to save transpose", "song_id", songID, "error", err)
		}
		return err
	}

	v.mu.Lock()
	for i := range v.session.Entries {
		if v.session.Entries[i].SongID == songID {
			v.session.Entries[i].Transpose = semitones
		}
	}
	v.mu.Unlock()
	return nil
}

// Follow starts listening to the live session. onState may be nil.
func (v *Viewer) Follow(ctx context.Context, onState func(models.LiveState)) error {
	v.mu.Lock()
	if !v.session.LoggedIn() {
		v.mu.Unlock()
		return shared.ErrLoginRequired
	}
	if v.listener == nil {
		v.listener = live.NewListener(v.store, v.paths.LiveSessions(), v.opts.SessionID, v.notifier, v.logger)
	}
	listener := v.listener
	v.mu.Unlock()

	err := listener.Start(ctx, func(state models.LiveState) {
		v.mu.Lock()
		v.session.Live = state
		v.mu.Unlock()
		if onState != nil {
			onState(state)
		}
		v.changed()
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.session.Following = true
	v.mu.Unlock()
	return nil
}

// Unfollow stops listening to the live session.
func (v *Viewer) Unfollow() {
	v.mu.Lock()
	listener := v.listener
	v.session.Following = false
	v.mu.Unlock()

	if listener != nil {
		listener.Stop()
	}
}

// EndLive marks the live session inactive. Only the admin may end it.
func (v *Viewer) EndLive(ctx context.Context) error {
	v.mu.Lock()
	b := v.broadcaster
	v.mu.Unlock()
	if !b.Enabled() {
		return shared.ErrNotAdmin
	}
	return b.End(ctx)
}

// WaitBroadcasts blocks until pending live broadcasts finish.
func (v *Viewer) WaitBroadcasts() {
	v.mu.Lock()
	b := v.broadcaster
	v.mu.Unlock()
	b.Wait()
}

func (v *Viewer) broadcast(ctx context.Context) {
	v.mu.Lock()
	b := v.broadcaster
	song, ok := v.session.Song()
	transpose := v.session.Transpose
	v.mu.Unlock()

	if !ok || !b.Enabled() {
		return
	}
	b.Publish(ctx, models.LiveState{
		SongID:      song.ID,
		SongTitle:   song.Title,
		SongContent: song.Content,
		Transpose:   transpose,
	})
}

func (v *Viewer) uid() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.User.UID
}

var _ inbox.Host = (*Viewer)(nil)
