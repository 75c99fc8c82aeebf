// Package web exposes the duel hub over HTTP: a JSON lifecycle API for
// creating and driving sessions and a websocket stream of session events
// for browser renderers.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

// MatchReader is the read side of the match archive. *storage.Store
// satisfies it.
type MatchReader interface {
	RecentMatches(limit int) ([]storage.DuelMatch, error)
	PlayerHistory(playerID string, limit int) ([]storage.DuelMatch, error)
	MatchByID(matchID string) (*storage.DuelMatch, error)
	Leaderboard(limit int) ([]storage.LeaderboardEntry, error)
}

// Server bundles the router, the hub it drives and the optional archive.
type Server struct {
	r       *chi.Mux
	hub     *multiplayer.Hub
	archive MatchReader
	logger  *log.Logger

	clientOrigin   string
	sweepPeriod    time.Duration
	requestTimeout time.Duration
	eventBuffer    int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithArchive serves finished matches from a.
func WithArchive(a MatchReader) Option {
	return func(s *Server) {
		s.archive = a
	}
}

// WithClientOrigin sets the single origin allowed by CORS and the
// websocket origin check.
func WithClientOrigin(origin string) Option {
	return func(s *Server) {
		s.clientOrigin = origin
	}
}

// WithSweepPeriod sets how often presence and turn clocks are checked.
func WithSweepPeriod(d time.Duration) Option {
	return func(s *Server) {
		s.sweepPeriod = d
	}
}

// New constructs a Server, installs middleware and registers routes.
func New(hub *multiplayer.Hub, opts ...Option) *Server {
	s := &Server{
		r:              chi.NewRouter(),
		hub:            hub,
		logger:         log.Default(),
		clientOrigin:   "http://localhost:5173",
		sweepPeriod:    time.Second,
		requestTimeout: 10 * time.Second,
		eventBuffer:    64,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger(s.logger))
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/sessions", func(r chi.Router) {
		// The event stream is long-lived and must not run under the timeout.
		r.Get("/{id}/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.requestTimeout))
			r.Use(jsonContentType)

			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Post("/{id}/swaps", s.handleSwap)
			r.Post("/{id}/powerups", s.handlePowerUp)
			r.Put("/{id}/presence", s.handlePresence)
			r.Post("/{id}/abort", s.handleAbort)
			r.Post("/{id}/forfeit", s.handleForfeit)
		})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.requestTimeout))
		r.Use(jsonContentType)

		r.Get("/matches", s.handleMatches)
		r.Get("/matches/{id}", s.handleMatch)
		r.Get("/leaderboard", s.handleLeaderboard)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})

	return s
}

// Router exposes the router for tests and embedding.
func (s *Server) Router() http.Handler { return s.r }

// Run serves on addr and sweeps the hub until ctx is cancelled, then shuts
// the listener down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", addr)
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

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range s.hub.Sweep(now) {
				s.logger.Debug("sweep ended match", "match", id)
			}
		}
	}
}
