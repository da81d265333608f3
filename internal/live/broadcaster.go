package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/models"
)

// IsAdmin reports whether email is the configured admin. The match is exact and case-sensitive.
func IsAdmin(email, adminEmail string) bool {
	return adminEmail != "" && email == adminEmail
}

// Broadcaster publishes the admin's current song to the live session document.
//
// Background publishes are written one at a time in call order. When writes fall behind only the
// latest state is kept.
type Broadcaster struct {
	store   docstore.Store
	path    string
	enabled bool
	logger  *log.Logger

	mu      sync.Mutex
	pending *models.LiveState
	running bool
	wg      sync.WaitGroup
}

// NewBroadcaster returns a broadcaster for the session document at path. A disabled broadcaster never writes.
func NewBroadcaster(store docstore.Store, path string, enabled bool, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		store:   store,
		path:    path,
		enabled: enabled,
		logger:  logger.With("component", "live", "session", path),
	}
}

// Enabled reports whether publishing is allowed.
func (b *Broadcaster) Enabled() bool { return b != nil && b.enabled }

// Publish writes state in the background. Failures are logged at debug level and dropped.
func (b *Broadcaster) Publish(ctx context.Context, state models.LiveState) {
	if !b.Enabled() || state.SongID == "" {
		return
	}

	b.mu.Lock()
	b.pending = &state
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.wg.Add(1)
	b.mu.Unlock()

	go b.drain(context.WithoutCancel(ctx))
}

func (b *Broadcaster) drain(ctx context.Context) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		state := b.pending
		b.pending = nil
		if state == nil {
			b.running = false
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		if err := b.write(ctx, *state); err != nil {
			b.logger.Debug("live broadcast failed", "song_id", state.SongID, "error", err)
		}
	}
}

// PublishSync writes state and returns the storage error, if any.
func (b *Broadcaster) PublishSync(ctx context.Context, state models.LiveState) error {
	if !b.Enabled() {
		return fmt.Errorf("broadcaster is disabled")
	}
	return b.write(ctx, state)
}

// End marks the session inactive.
func (b *Broadcaster) End(ctx context.Context) error {
	if !b.Enabled() {
		return fmt.Errorf("broadcaster is disabled")
	}
	b.Wait()
	err := b.store.Set(ctx, b.path, map[string]any{
		"isActive":  false,
		"updatedAt": docstore.ServerTimestamp,
	}, docstore.Merge)
	if err != nil {
		return fmt.Errorf("failed to end live session: %w", err)
	}
	b.logger.Info("live session ended")
	return nil
}

// Wait blocks until in-flight background publishes finish.
func (b *Broadcaster) Wait() {
	if b == nil {
		return
	}
	b.wg.Wait()
}

func (b *Broadcaster) write(ctx context.Context, state models.LiveState) error {
	data := state.ToMap()
	data["isActive"] = true
	data["updatedAt"] = docstore.ServerTimestamp

	if err := b.store.Set(ctx, b.path, data, docstore.Merge); err != nil {
		return fmt.Errorf("failed to write live session: %w", err)
	}
	return nil
}
