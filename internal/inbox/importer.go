package inbox

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/keys"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

const (
	defaultPlaylistName = "Shared"
	defaultSongTitle    = "Untitled"
	orderStep           = 10
	importCompleteField = "importComplete"
)

// Host is the session an importer reports successful imports to.
type Host interface {
	// Catalog returns the current catalog.
	Catalog() catalog.Catalog
	// Refresh rebuilds the catalog from storage.
	Refresh(ctx context.Context) error
	// AddPlaylist inserts a playlist into the current catalog without reloading.
	AddPlaylist(view catalog.PlaylistView)
	// RememberPlaylist persists key as the last viewed playlist.
	RememberPlaylist(key string)
	// SelectPlaylist makes key current and loads its entries.
	SelectPlaylist(ctx context.Context, key string) error
}

// Options tune an [Importer].
type Options struct {
	// MaxAttempts dead-letters a message after this many failures. Zero retries forever.
	MaxAttempts int
	// Now overrides the clock used for song timestamps.
	Now func() time.Time
}

// Importer processes share inbox messages for one user.
type Importer struct {
	store       docstore.Store
	paths       docstore.Paths
	user        models.User
	notifier    shared.Notifier
	logger      *log.Logger
	maxAttempts int
	now         func() time.Time

	mu   sync.Mutex
	host Host
}

// NewImporter creates an importer writing into user's library.
func NewImporter(store docstore.Store, paths docstore.Paths, user models.User, notifier shared.Notifier, logger *log.Logger, opts Options) *Importer {
	if notifier == nil {
		notifier = shared.NotifierFunc(func(shared.Level, string) {})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Importer{
		store:       store,
		paths:       paths,
		user:        user,
		notifier:    notifier,
		logger:      logger.With("component", "inbox", "uid", user.UID),
		maxAttempts: opts.MaxAttempts,
		now:         now,
	}
}

// SetHost attaches the session that receives catalog updates. A nil host disables them.
func (im *Importer) SetHost(h Host) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.host = h
}

// Process imports one inbox document. Calls are serialized per importer.
func (im *Importer) Process(ctx context.Context, doc docstore.Doc) Result {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.user.UID == "" {
		return Result{MessageID: doc.ID, Outcome: Failed, Err: shared.ErrLoginRequired}
	}

	msg, err := models.DecodeInboxMessage(doc.ID, doc.Data)
	if err != nil {
		im.logger.Warn("discarding malformed message", "message_id", doc.ID, "error", err)
		im.consume(ctx, doc.ID)
		return Result{MessageID: doc.ID, Outcome: Invalid, Err: err}
	}

	switch m := msg.(type) {
	case models.CopyMessage:
		return im.importCopy(ctx, m)
	case models.LinkMessage:
		return im.importLink(ctx, m)
	default:
		im.consume(ctx, doc.ID)
		return Result{MessageID: doc.ID, Outcome: Invalid, Err: fmt.Errorf("%w: unknown message type %T", shared.ErrMalformedMessage, msg)}
	}
}

func (im *Importer) importCopy(ctx context.Context, m models.CopyMessage) Result {
	uid := im.user.UID
	pid := keys.SharedPlaylistID(m.ID)
	key := keys.MakeKey(uid, pid)
	name := strings.TrimSpace(m.PlaylistName)
	if name == "" {
		name = defaultPlaylistName
	}
	res := Result{MessageID: m.ID, PlaylistKey: key, Name: name}

	existing, err := im.store.Get(ctx, im.paths.Playlist(uid, pid))
	if err != nil {
		return im.fail(ctx, m, res, fmt.Errorf("failed to check playlist: %w", err))
	}

	// A completed import is never resumed, so songs the recipient removed afterwards stay removed.
	if existing.Exists && existing.Data[importCompleteField] == true {
		im.logger.Debug("message already imported", "message_id", m.ID, "playlist", key)
		im.consume(ctx, m.ID)
		res.Outcome = Duplicate
		return res
	}

	done := map[int]bool{}
	if existing.Exists {
		done, err = im.importedOrders(ctx, uid, pid)
		if err != nil {
			return im.fail(ctx, m, res, err)
		}
		if len(done) >= len(m.Items) {
			if err := im.markComplete(ctx, uid, pid); err != nil {
				return im.fail(ctx, m, res, err)
			}
			im.logger.Debug("message already imported", "message_id", m.ID, "playlist", key)
			im.consume(ctx, m.ID)
			res.Outcome = Duplicate
			return res
		}
		im.logger.Info("resuming partial import", "message_id", m.ID, "playlist", key, "entries", len(done))
	}

	if len(m.Items) == 0 {
		im.logger.Info("discarding empty message", "message_id", m.ID)
		im.consume(ctx, m.ID)
		res.Outcome = Invalid
		res.Err = fmt.Errorf("%w: message has no items", shared.ErrMalformedMessage)
		return res
	}

	var fromUID any
	if m.From.UID != "" {
		fromUID = m.From.UID
	}

	err = im.store.Set(ctx, im.paths.Playlist(uid, pid), map[string]any{
		"name":  name,
		"notes": m.Notes,
		"from": map[string]any{
			"uid":         fromUID,
			"email":       m.From.Email,
			"displayName": m.From.DisplayName,
		},
		"createdByShare": true,
		"createdAt":      docstore.ServerTimestamp,
	}, docstore.Merge)
	if err != nil {
		return im.fail(ctx, m, res, fmt.Errorf("failed to write playlist: %w", err))
	}

	for i, item := range m.Items {
		order := (i + 1) * orderStep
		if done[order] {
			continue
		}

		title := item.Title
		if strings.TrimSpace(title) == "" {
			title = defaultSongTitle
		}

		// Song ids derive from the message and position so a retry overwrites rather than duplicates.
		songID := pid + "-" + strconv.Itoa(order)
		err := im.store.Set(ctx, im.paths.Song(uid, songID), map[string]any{
			"title":     title,
			"content":   item.Content,
			"timestamp": im.now().UnixMilli(),
			"userId":    uid,
			"_source":   models.SourceInboxShared,
			"_fromUid":  fromUID,
		}, docstore.Merge)
		if err != nil {
			return im.fail(ctx, m, res, fmt.Errorf("failed to add song %q: %w", title, err))
		}

		entry := models.Entry{SongID: songID, Order: order, Transpose: item.Transpose}
		if err := im.store.Set(ctx, im.paths.Entry(uid, pid, songID), entry.ToMap(), docstore.Merge); err != nil {
			return im.fail(ctx, m, res, fmt.Errorf("failed to write entry for %q: %w", title, err))
		}
	}

	if err := im.markComplete(ctx, uid, pid); err != nil {
		return im.fail(ctx, m, res, err)
	}
	im.consume(ctx, m.ID)

	if h := im.host; h != nil {
		if err := h.Refresh(ctx); err != nil {
			im.logger.Warn("failed to refresh catalog after import", "error", err)
		}
		if err := h.SelectPlaylist(ctx, key); err != nil {
			im.logger.Warn("failed to select imported playlist", "playlist", key, "error", err)
		}
	}

	im.logger.Info("imported shared playlist", "message_id", m.ID, "playlist", key, "songs", len(m.Items))
	im.notifier.Notify(shared.LevelSuccess, fmt.Sprintf("Imported \"%s\" from inbox.", name))
	res.Outcome = Imported
	return res
}

// importedOrders returns the entry orders already written to a shared playlist.
func (im *Importer) markComplete(ctx context.Context, uid, pid string) error {
	if err := im.store.Set(ctx, im.paths.Playlist(uid, pid), map[string]any{importCompleteField: true}, docstore.Merge); err != nil {
		return fmt.Errorf("failed to mark playlist complete: %w", err)
	}
	return nil
}

func (im *Importer) importedOrders(ctx context.Context, uid, pid string) (map[int]bool, error) {
	docs, err := im.store.Query(ctx, im.paths.Entries(uid, pid), docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to read existing entries: %w", err)
	}
	out := make(map[int]bool, len(docs))
	for _, d := range docs {
		out[models.EntryFromMap(d.ID, d.Data).Order] = true
	}
	return out, nil
}

func (im *Importer) importLink(ctx context.Context, m models.LinkMessage) Result {
	name := strings.TrimSpace(m.PlaylistName)
	if name == "" {
		name = defaultPlaylistName
	}
	res := Result{MessageID: m.ID, Name: name}

	if m.OwnerUID == "" || m.PlaylistID == "" {
		im.logger.Info("discarding link without owner or playlist", "message_id", m.ID)
		im.consume(ctx, m.ID)
		res.Outcome = Invalid
		res.Err = fmt.Errorf("%w: link is missing owner or playlist id", shared.ErrMalformedMessage)
		return res
	}

	key := keys.MakeKey(m.OwnerUID, m.PlaylistID)
	res.PlaylistKey = key

	if im.host != nil && im.host.Catalog().HasPlaylist(key) {
		im.consume(ctx, m.ID)
		res.Outcome = Duplicate
		return res
	}

	grantPath := im.paths.Grant(im.user.UID, keys.GrantID(m.OwnerUID, m.PlaylistID))
	existing, err := im.store.Get(ctx, grantPath)
	if err != nil {
		return im.fail(ctx, m, res, fmt.Errorf("failed to check grant: %w", err))
	}
	if existing.Exists {
		im.consume(ctx, m.ID)
		res.Outcome = Duplicate
		return res
	}

	grant := models.Grant{
		OwnerUID:     m.OwnerUID,
		PlaylistID:   m.PlaylistID,
		PlaylistName: name,
		Role:         m.Role,
		From:         m.From,
	}
	if grant.From.UID == "" {
		grant.From.UID = m.OwnerUID
	}
	if err := im.store.Set(ctx, grantPath, grant.ToMap(), docstore.Merge); err != nil {
		return im.fail(ctx, m, res, fmt.Errorf("failed to write grant: %w", err))
	}

	if h := im.host; h != nil {
		h.AddPlaylist(catalog.GrantView(grant))
		h.RememberPlaylist(key)
		if err := h.SelectPlaylist(ctx, key); err != nil {
			im.logger.Warn("failed to select linked playlist", "playlist", key, "error", err)
		}
	}

	im.consume(ctx, m.ID)

	im.logger.Info("linked shared playlist", "message_id", m.ID, "playlist", key, "role", grant.Role)
	im.notifier.Notify(shared.LevelSuccess, fmt.Sprintf("Linked shared playlist \"%s\".", name))
	res.Outcome = Imported
	return res
}

// consume deletes a handled message, falling back to marking it processed.
func (im *Importer) consume(ctx context.Context, id string) {
	path := im.paths.InboxMessage(im.user.UID, id)
	err := im.store.Delete(ctx, path)
	if err == nil {
		return
	}

	im.logger.Debug("failed to delete message, marking processed", "message_id", id, "error", err)
	err = im.store.Set(ctx, path, map[string]any{
		"processed":   true,
		"processedAt": im.now().UnixMilli(),
	}, docstore.Merge)
	if err != nil {
		im.logger.Error("failed to consume message", "message_id", id, "error", err)
	}
}

// fail records a failed attempt and leaves the message pending, or dead-letters it once attempts reach the maximum.
func (im *Importer) fail(ctx context.Context, msg models.InboxMessage, res Result, cause error) Result {
	meta := msg.Meta()
	attempts := meta.Attempts + 1
	path := im.paths.InboxMessage(im.user.UID, meta.ID)

	im.logger.Error("import failed", "message_id", meta.ID, "attempt", attempts, "error", cause)
	im.notifier.Notify(shared.LevelError, "Import failed: "+cause.Error())

	res.Err = cause
	res.Outcome = Failed
	update := map[string]any{
		"attempts":  attempts,
		"lastError": cause.Error(),
	}

	if im.maxAttempts > 0 && attempts >= im.maxAttempts {
		update["processed"] = true
		update["failed"] = true
		update["processedAt"] = im.now().UnixMilli()
		res.Outcome = DeadLettered
		im.logger.Warn("giving up on message", "message_id", meta.ID, "attempts", attempts)
	}

	if err := im.store.Set(ctx, path, update, docstore.Merge); err != nil {
		im.logger.Warn("failed to record attempt", "message_id", meta.ID, "error", err)
	}
	return res
}

// Sweep processes every pending message once, in listing order. Per-message failures never stop the sweep.
func (im *Importer) Sweep(ctx context.Context, updates chan<- ProgressUpdate) (SweepResult, error) {
	var result SweepResult
	if im.user.UID == "" {
		return result, shared.ErrLoginRequired
	}

	sendProgress(updates, fetchPendingUpdate())
	docs, err := im.store.Query(ctx, im.paths.Inbox(im.user.UID), docstore.Where("processed", false))
	if err != nil {
		return result, fmt.Errorf("failed to list inbox: %w", err)
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendProgress(updates, processingUpdate(i+1, len(docs), doc.ID))
		res := im.Process(ctx, doc)
		result.add(res)
		sendProgress(updates, processedUpdate(i+1, len(docs), res))
	}

	sendProgress(updates, sweepCompleteUpdate(result))
	return result, nil
}
