// Package server exposes game rooms over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	"github.com/lox/schocken/internal/broadcast"
	"github.com/lox/schocken/internal/room"
	"github.com/lox/schocken/internal/rules"
)

// RuleCatalog lists and expands rulesets. *rules.Repository implements it.
type RuleCatalog interface {
	List() []rules.Summary
	Resolve(id string) (*rules.Ruleset, error)
	Expand(id string) ([]rules.Rule, error)
}

// Server is the HTTP front of the room manager
type Server struct {
	rooms     *room.Manager
	rules     RuleCatalog
	hub       *broadcast.Hub
	logger    *log.Logger
	rateLimit int
	handler   http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithRateLimit caps requests per minute and client IP on the API. Zero
// disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// New creates a server. hub may be nil, which disables /ws.
func New(rooms *room.Manager, catalog RuleCatalog, hub *broadcast.Hub, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		rooms:  rooms,
		rules:  catalog,
		hub:    hub,
		logger: logger.WithPrefix("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
		}

		r.Get("/rulesets", s.handleListRulesets)
		r.Get("/rulesets/{id}", s.handleGetRuleset)

		r.Post("/game", s.handleCreateGame)
		r.Get("/game/{key}", s.handleGetGame)
		r.Post("/game/{key}/{action}", s.handleAction)
	})

	if s.hub != nil {
		r.Get("/ws/{key}", s.handleWebSocket)
	}
	return r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.hub != nil {
		_ = s.hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Debug("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
