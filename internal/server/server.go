// Package server exposes the habit tracker as a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/view"
)

type Server struct {
	tracker *tracker.Service
	views   *view.Service
	metrics *metrics.Metrics
	limiter *limiter
	cfg     config.ServerConfig
	router  *mux.Router
}

// New wires the routes. The tracker should be built with the same metrics as its
// recorder so domain counters and HTTP counters share one registry.
func New(tr *tracker.Service, views *view.Service, m *metrics.Metrics, cfg config.ServerConfig) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = constants.DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = constants.DefaultRateBurst
	}

	trusted, err := cfg.TrustedPrefixes()
	if err != nil {
		logger.Warn("Ignoring trusted proxies", "error", err)
		trusted = nil
	}

	s := &Server{
		tracker: tr,
		views:   views,
		metrics: m,
		limiter: newLimiter(cfg.RateLimit, cfg.RateBurst, trusted, m.RateLimited),
		cfg:     cfg,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.metrics.Middleware)
	r.Use(s.limiter.Middleware)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(requestTimeout(constants.RequestTimeout))
	api.Use(requireUser)

	api.HandleFunc("/habits", s.listHabits).Methods(http.MethodGet)
	api.HandleFunc("/habits", s.createHabit).Methods(http.MethodPost)
	api.HandleFunc("/habits/{id}", s.updateHabit).Methods(http.MethodPatch)
	api.HandleFunc("/habits/{id}", s.deleteHabit).Methods(http.MethodDelete)
	api.HandleFunc("/habits/{id}/restore", s.restoreHabit).Methods(http.MethodPost)
	api.HandleFunc("/habits/{id}/logs/{date}", s.setLog).Methods(http.MethodPut)
	api.HandleFunc("/habits/{id}/logs/{date}", s.undoLog).Methods(http.MethodDelete)
	api.HandleFunc("/habits/{id}/stats", s.habitStats).Methods(http.MethodGet)
	api.HandleFunc("/today", s.today).Methods(http.MethodGet)
	api.HandleFunc("/analytics", s.analytics).Methods(http.MethodGet)
	api.HandleFunc("/missed-days", s.missedDays).Methods(http.MethodPost)
	api.HandleFunc("/data", s.resetAll).Methods(http.MethodDelete)
}

// Handler returns the router wrapped with CORS and panic recovery
func (s *Server) Handler() http.Handler {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", constants.UserIDHeader}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.limiter.cleanup(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", s.cfg.Addr)
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

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": constants.AppName,
		"version": constants.Version,
	})
}
