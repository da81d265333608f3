package inbox

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/shared"
)

// DefaultRateLimit is the number of messages the watcher imports per second.
const DefaultRateLimit = 4.0

// Watcher imports pending messages as they arrive.
//
// Each delivery imports the documents it adds, then retries every other pending document it did not touch.
// Documents whose only change is a modification are skipped, so the attempt counter written on failure does not
// re-trigger an import by itself. A failed message is retried by later deliveries and by [Importer.Sweep] until
// it succeeds or is dead-lettered.
type Watcher struct {
	importer *Importer
	store    docstore.Store
	inbox    string
	limiter  *rate.Limiter
	notifier shared.Notifier
	logger   *log.Logger

	startMu sync.Mutex
	mu      sync.Mutex
	unsub   docstore.Unsubscribe
}

// NewWatcher creates a watcher on the importer's inbox. A non-positive limit uses [DefaultRateLimit].
func NewWatcher(importer *Importer, limit float64) *Watcher {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &Watcher{
		importer: importer,
		store:    importer.store,
		inbox:    importer.paths.Inbox(importer.user.UID),
		limiter:  rate.NewLimiter(rate.Limit(limit), 1),
		notifier: importer.notifier,
		logger:   importer.logger.With("component", "inbox-watcher"),
	}
}

// Start subscribes to pending messages, stopping any previous subscription first.
func (w *Watcher) Start(ctx context.Context) error {
	w.startMu.Lock()
	defer w.startMu.Unlock()

	w.Stop()

	if w.importer.user.UID == "" {
		return shared.ErrLoginRequired
	}

	ctx, cancel := context.WithCancel(ctx)
	unsub, err := w.store.Subscribe(ctx, w.inbox, docstore.Where("processed", false),
		func(snap docstore.Snapshot) { w.handle(ctx, snap) },
		func(err error) {
			w.logger.Error("inbox listener error", "error", err)
			w.notifier.Notify(shared.LevelError, "Inbox listener error: "+err.Error())
		},
	)
	if err != nil {
		cancel()
		return err
	}

	w.mu.Lock()
	w.unsub = func() {
		cancel()
		unsub()
	}
	w.mu.Unlock()

	w.logger.Debug("inbox watcher started", "collection", w.inbox)
	return nil
}

// Stop unsubscribes. Calling Stop on a stopped watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	unsub := w.unsub
	w.unsub = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
		w.logger.Debug("inbox watcher stopped")
	}
}

// Running reports whether a subscription is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unsub != nil
}

func (w *Watcher) handle(ctx context.Context, snap docstore.Snapshot) {
	seen := make(map[string]bool, len(snap.Changes))
	var pending []docstore.Doc
	for _, ch := range snap.Changes {
		seen[ch.Doc.ID] = true
		if ch.Kind == docstore.Added {
			pending = append(pending, ch.Doc)
		}
	}
	for _, doc := range snap.Docs {
		if !seen[doc.ID] {
			pending = append(pending, doc)
		}
	}

	for _, doc := range pending {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		res := w.importer.Process(ctx, doc)
		w.logger.Debug("processed inbox message", "message_id", res.MessageID, "outcome", res.Outcome)
	}
}
