package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/chordsync/internal/live"
	"github.com/desertthunder/chordsync/internal/models"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// StateMessage is the JSON form of a live session state.
type StateMessage struct {
	Type        string    `json:"type"`
	IsActive    bool      `json:"isActive"`
	SongID      string    `json:"songId,omitempty"`
	SongTitle   string    `json:"songTitle,omitempty"`
	SongContent string    `json:"songContent,omitempty"`
	Transpose   int       `json:"transpose"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// NewStateMessage converts a session state for the wire.
func NewStateMessage(state models.LiveState) StateMessage {
	return StateMessage{
		Type:        "state",
		IsActive:    state.IsActive,
		SongID:      state.SongID,
		SongTitle:   state.SongTitle,
		SongContent: state.SongContent,
		Transpose:   state.Transpose,
		UpdatedAt:   state.UpdatedAt,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Audience pages are served from anywhere on the local network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server relays one live session to websocket clients.
type Server struct {
	hub      *Hub
	listener *live.Listener
	logger   *log.Logger
}

// NewServer returns a server that follows listener.
func NewServer(listener *live.Listener, logger *log.Logger) *Server {
	logger = logger.With("component", "server")
	return &Server{
		hub:      NewHub(logger),
		listener: listener,
		logger:   logger,
	}
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run starts the hub and the session listener and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	err := s.listener.Start(ctx, func(state models.LiveState) {
		s.hub.Broadcast(NewStateMessage(state))
	})
	if err != nil {
		return err
	}
	defer s.listener.Stop()

	<-ctx.Done()
	return nil
}

// Router builds the chi router with the relay routes.
func (s *Server) Router(middlewares ...Middleware) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/live", s.handleLive)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "chordsync-live",
		"clients": s.hub.Len(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateMessage(s.listener.State()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(s.hub, conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// RequestLogger logs every request at debug level once it completes.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
