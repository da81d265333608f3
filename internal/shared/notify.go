package shared

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level is the severity of a user facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows short messages to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// DedupWindow is how long an identical notification is suppressed after it was shown.
const DedupWindow = 800 * time.Millisecond

// Dedup suppresses repeats of the same notification inside a window.
type Dedup struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   string
	lastAt time.Time
}

func NewDedup(window time.Duration, now func() time.Time) *Dedup {
	if now == nil {
		now = time.Now
	}
	return &Dedup{window: window, now: now}
}

// Allow reports whether the notification should be shown and records it.
func (d *Dedup) Allow(level Level, message string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := level.String() + "|" + message
	at := d.now()
	if key == d.last && at.Sub(d.lastAt) < d.window {
		return false
	}
	d.last, d.lastAt = key, at
	return true
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
	dedup  *Dedup
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger, dedup: NewDedup(DedupWindow, nil)}
}

func (n *LogNotifier) Notify(level Level, message string) {
	if !n.dedup.Allow(level, message) {
		return
	}

	switch level {
	case LevelError:
		n.logger.Error(message)
	case LevelWarn:
		n.logger.Warn(message)
	case LevelSuccess:
		n.logger.Info(message, "status", "success")
	default:
		n.logger.Info(message)
	}
}
