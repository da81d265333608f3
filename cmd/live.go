package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/chords"
	"github.com/desertthunder/chordsync/internal/live"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/server"
	"github.com/desertthunder/chordsync/internal/shared"
)

// broadcaster returns the session broadcaster, enabled only for the configured admin.
func (r *Runner) broadcaster(ws *workspace) (*live.Broadcaster, error) {
	if !live.IsAdmin(ws.user.Email, r.config.Live.AdminEmail) {
		return nil, fmt.Errorf("%w: pass the admin --email", shared.ErrNotAdmin)
	}
	return live.NewBroadcaster(ws.store, ws.paths.LiveSession(r.config.Live.SessionID), true, r.logger), nil
}

// LiveBroadcast publishes a song of a playlist to the live session.
func (r *Runner) LiveBroadcast(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	b, err := r.broadcaster(ws)
	if err != nil {
		return err
	}

	_, items, err := ws.playlist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	songID := cmd.String("song")
	for _, it := range items {
		if it.SongID != songID {
			continue
		}

		transpose := it.Transpose
		if cmd.IsSet("transpose") {
			transpose = int(cmd.Int("transpose"))
		}
		state := models.LiveState{
			SongID:      it.SongID,
			SongTitle:   it.Song.Title,
			SongContent: it.Song.Content,
			Transpose:   transpose,
		}
		if err := b.PublishSync(ctx, state); err != nil {
			return err
		}
		return r.writePlain("✓ Live: %s (%+d)\n", state.SongTitle, transpose)
	}

	return fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
}

// LiveEnd marks the session inactive.
func (r *Runner) LiveEnd(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	b, err := r.broadcaster(ws)
	if err != nil {
		return err
	}

	if err := b.End(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Live session ended\n")
}

// LiveFollow prints every session change until the context is cancelled.
func (r *Runner) LiveFollow(ctx context.Context, cmd *cli.Command) error {
	store, err := r.backend(ctx)
	if err != nil {
		return err
	}

	asJSON, pretty := cmd.Bool("json"), cmd.Bool("pretty")
	listener := live.NewListener(store, r.paths().LiveSessions(), r.config.Live.SessionID, shared.NewLogNotifier(r.logger), r.logger)

	err = listener.Start(ctx, func(state models.LiveState) {
		if asJSON {
			if err := r.writeJSON(server.NewStateMessage(state), pretty); err != nil {
				r.logger.Warn("failed to write state", "error", err)
			}
			return
		}
		r.printState(state)
	})
	if err != nil {
		return err
	}
	defer listener.Stop()

	<-ctx.Done()
	return nil
}

func (r *Runner) printState(state models.LiveState) {
	if !state.IsActive {
		r.writePlain("\n(live session inactive)\n")
		return
	}

	title := state.SongTitle
	if state.Transpose != 0 {
		title = fmt.Sprintf("%s [%+d]", title, state.Transpose)
	}
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("%s\n", chords.TransposeText(state.SongContent, state.Transpose))
}

// LiveServe relays the session over HTTP and websockets until the context is cancelled.
func (r *Runner) LiveServe(ctx context.Context, cmd *cli.Command) error {
	store, err := r.backend(ctx)
	if err != nil {
		return err
	}

	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	listener := live.NewListener(store, r.paths().LiveSessions(), r.config.Live.SessionID, shared.NewLogNotifier(r.logger), r.logger)
	srv := server.NewServer(listener, r.logger)

	httpServer := &http.Server{
		Addr: net.JoinHostPort(host, strconv.Itoa(port)),
		Handler: srv.Router(
			middleware.RequestID,
			middleware.RealIP,
			server.RequestLogger(r.logger),
			middleware.Recoverer,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Run(ctx) }()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	r.logger.Info("live relay listening", "addr", httpServer.Addr)
	r.writePlain("Live relay on http://%s (ws at /ws). Press Ctrl+C to stop.\n", httpServer.Addr)

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		r.logger.Warn("failed to shut down live relay", "error", shutdownErr)
	}
	return err
}
