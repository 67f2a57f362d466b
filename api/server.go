// Package api exposes the session controller over local HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/session"
)

// Recorder is the controller surface used by the API.
type Recorder interface {
	Start(session.Request) (*session.Session, error)
	Pause() error
	Resume() error
	Stop() error
	State() session.State
	Session() *session.Session
	Elapsed() time.Duration
	Outcome() (session.Outcome, bool)
	Preview(stream string) *capture.Frame
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	rec     Recorder
	store   *session.Store
	refresh time.Duration
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewServer creates a Server. refresh is the WebSocket push cadence.
func NewServer(rec Recorder, store *session.Store, refresh time.Duration, logger *slog.Logger) *Server {
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	return &Server{
		rec:     rec,
		store:   store,
		refresh: refresh,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// Routes configures all HTTP routes.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.guard)

	// Control endpoints (rate limited)
	api.Handle("/session", s.rateLimit(http.HandlerFunc(s.StartSession))).Methods(http.MethodPost)
	api.Handle("/session/pause", s.rateLimit(s.control(s.rec.Pause))).Methods(http.MethodPost)
	api.Handle("/session/resume", s.rateLimit(s.control(s.rec.Resume))).Methods(http.MethodPost)
	api.Handle("/session/stop", s.rateLimit(s.control(s.rec.Stop))).Methods(http.MethodPost)

	// Polling endpoints
	api.HandleFunc("/session", s.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/session/preview", s.GetPreview).Methods(http.MethodGet)
	api.HandleFunc("/session/ws", s.StreamSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.ListSessions).Methods(http.MethodGet)

	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves Routes on addr until ctx ends, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	if s.logger != nil {
		s.logger.Info("api listening", "addr", addr)
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.logger != nil {
			s.logger.Debug("api request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
		}
	})
}
