// Package server exposes the player over HTTP and a websocket state stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"TemplePlayer/core/player"
	"TemplePlayer/core/provider"
	"TemplePlayer/logger"
	"TemplePlayer/model"

	"github.com/gorilla/mux"
)

// Player is the part of the playback controller the server drives.
type Player interface {
	State() model.PlayerState
	SubscribeState(fn func(model.PlayerState)) (unsubscribe func())
	SubscribeError(fn func(player.ErrorEvent)) (unsubscribe func())

	LoadQueue(ctx context.Context, tracks []model.Track)
	Play(ctx context.Context)
	Pause()
	Toggle(ctx context.Context)
	Next(ctx context.Context)
	Previous(ctx context.Context)
	Seek(ms int64)
	SetVolume(v float64)
	SetMuted(muted bool)
}

// HistoryLister lists recent plays, newest first.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]model.PlayRecord, error)
}

// Options configures a Server. History may be nil when history is disabled.
// An empty JWTSecret disables authentication.
type Options struct {
	Player    Player
	Registry  *provider.Registry
	History   HistoryLister
	JWTSecret string
}

// Server 远程控制服务
type Server struct {
	player   Player
	registry *provider.Registry
	history  HistoryLister
	secret   []byte

	hub     *Hub
	handler http.Handler
	unsubs  []func()
}

// New builds the router and starts forwarding player and registry events to
// websocket clients. Call Close to stop forwarding.
func New(opts Options) *Server {
	s := &Server{
		player:   opts.Player,
		registry: opts.Registry,
		history:  opts.History,
		hub:      NewHub(),
	}
	if opts.JWTSecret != "" {
		s.secret = []byte(opts.JWTSecret)
	}

	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/player/{action:play|pause|toggle|next|previous}", s.handleTransport).Methods(http.MethodPost)
	api.HandleFunc("/player/seek", s.handleSeek).Methods(http.MethodPost)
	api.HandleFunc("/player/volume", s.handleVolume).Methods(http.MethodPost)
	api.HandleFunc("/player/muted", s.handleMuted).Methods(http.MethodPost)
	api.HandleFunc("/queue", s.handleQueue).Methods(http.MethodPost)
	api.HandleFunc("/providers", s.handleProviders).Methods(http.MethodGet)
	api.HandleFunc("/providers/{id}/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/providers/{id}/auth", s.handleBeginAuth).Methods(http.MethodPost)
	api.HandleFunc("/providers/{id}/auth", s.handleEndAuth).Methods(http.MethodDelete)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	router.Handle("/ws", s.authMiddleware(http.HandlerFunc(s.handleWebSocket))).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests never reach route matching
	s.handler = corsMiddleware(router)

	s.unsubs = append(s.unsubs,
		s.player.SubscribeState(func(st model.PlayerState) {
			s.hub.Broadcast(Message{Type: MsgTypeState, Data: st})
		}),
		s.player.SubscribeError(func(ev player.ErrorEvent) {
			s.hub.Broadcast(Message{Type: MsgTypeError, Data: newErrorPayload(ev)})
		}),
		s.registry.SubscribeAuthStateChanged(func(ev provider.AuthStateEvent) {
			s.hub.Broadcast(Message{Type: MsgTypeAuth, Data: ev})
		}),
		s.registry.SubscribeProviderError(func(ev provider.ProviderErrorEvent) {
			s.hub.Broadcast(Message{Type: MsgTypeProviderError, Data: newProviderErrorPayload(ev)})
		}),
	)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.handler }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close stops event forwarding and disconnects every websocket client.
func (s *Server) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.hub.Close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Server] shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// corsMiddleware 跨域处理
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
