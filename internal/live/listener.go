package live

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Listener follows the live session document.
type Listener struct {
	store     docstore.Store
	coll      string
	sessionID string
	notifier  shared.Notifier
	logger    *log.Logger

	startMu sync.Mutex
	mu      sync.Mutex
	unsub   docstore.Unsubscribe
	state   models.LiveState
}

// NewListener returns a listener for the document sessionID in the collection coll.
func NewListener(store docstore.Store, coll, sessionID string, notifier shared.Notifier, logger *log.Logger) *Listener {
	if notifier == nil {
		notifier = shared.NotifierFunc(func(shared.Level, string) {})
	}
	if sessionID == "" {
		sessionID = "current"
	}
	return &Listener{
		store:     store,
		coll:      coll,
		sessionID: sessionID,
		notifier:  notifier,
		logger:    logger.With("component", "live-listener", "session", sessionID),
	}
}

// Start subscribes to the session, stopping any previous subscription. The store has no single document
// subscription, so Start watches the whole session collection and drops deliveries that do not touch the
// session document. onState receives the whole state on the first snapshot and on every change to the
// session document; a missing document is reported as an inactive session.
func (l *Listener) Start(ctx context.Context, onState func(models.LiveState)) error {
	l.startMu.Lock()
	defer l.startMu.Unlock()

	l.Stop()

	first := true
	unsub, err := l.store.Subscribe(ctx, l.coll, docstore.Query{},
		func(snap docstore.Snapshot) {
			if !first && !l.touched(snap) {
				return
			}
			first = false
			state := l.pick(snap)
			l.mu.Lock()
			l.state = state
			l.mu.Unlock()
			if onState != nil {
				onState(state)
			}
		},
		func(err error) {
			l.logger.Error("live listener error", "error", err)
			l.notifier.Notify(shared.LevelError, "Live session error: "+err.Error())
		},
	)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.unsub = unsub
	l.mu.Unlock()
	return nil
}

// Stop unsubscribes. It is safe to call on a stopped listener.
func (l *Listener) Stop() {
	l.mu.Lock()
	unsub := l.unsub
	l.unsub = nil
	l.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Running reports whether a subscription is active.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unsub != nil
}

// State returns the last state received.
func (l *Listener) State() models.LiveState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listener) touched(snap docstore.Snapshot) bool {
	for _, ch := range snap.Changes {
		if ch.Doc.ID == l.sessionID {
			return true
		}
	}
	return false
}

func (l *Listener) pick(snap docstore.Snapshot) models.LiveState {
	for _, d := range snap.Docs {
		if d.ID == l.sessionID {
			return models.LiveStateFromMap(d.Data)
		}
	}
	return models.LiveState{}
}
