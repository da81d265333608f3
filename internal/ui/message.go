package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/chordsync/internal/shared"
	"github.com/desertthunder/chordsync/internal/viewer"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg         = Msg{}
	_ shared.Notifier = (*Events)(nil)
)

const (
	MsgLoggedIn MsgKind = iota
	MsgSessionChanged
	MsgActionDone
	MsgToast
	MsgToastExpired
)

// toast is a notification shown under the current view until it expires.
type toast struct {
	id      int
	level   shared.Level
	message string
}

// toastLifetime is how long a toast stays on screen.
const toastLifetime = 3 * time.Second

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, data: err}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg() Msg {
	return Msg{kind: MsgSessionChanged}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(err error) Msg {
	return Msg{kind: MsgActionDone, data: err}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(level shared.Level, message string) Msg {
	return Msg{kind: MsgToast, data: toast{level: level, message: message}}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}

func errOf(msg Msg) error {
	err, _ := msg.data.(error)
	return err
}

// Events carries viewer callbacks into the bubbletea program.
//
// Pass it as the viewer's notifier and its SessionChanged method as the change hook. Messages are
// buffered; when the buffer is full new notifications are dropped and session changes collapse into
// the one already queued.
type Events struct {
	dedup   *shared.Dedup
	ch      chan Msg
	changed chan struct{}
}

// NewEvents returns an event bridge with identical notifications suppressed for [shared.DedupWindow].
func NewEvents() *Events {
	return &Events{
		dedup:   shared.NewDedup(shared.DedupWindow, nil),
		ch:      make(chan Msg, 32),
		changed: make(chan struct{}, 1),
	}
}

// Notify queues a toast.
func (e *Events) Notify(level shared.Level, message string) {
	if !e.dedup.Allow(level, message) {
		return
	}
	select {
	case e.ch <- toastMsg(level, message):
	default:
	}
}

// SessionChanged signals that the model should re-read the viewer session.
func (e *Events) SessionChanged(viewer.Session) {
	select {
	case e.changed <- struct{}{}:
	default:
	}
}

// wait returns a command that delivers the next event.
func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.changed:
			return sessionChangedMsg()
		}
	}
}
