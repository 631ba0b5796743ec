package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"SodiumWatch/pkg/config"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end of the gateway.
type Server struct {
	router   *gin.Engine
	srv      *http.Server
	sessions *sessions.CookieStore
	log      zerolog.Logger
}

// NewServer builds the router with logging, recovery and session middleware
// and mounts every route.
func NewServer(cfg *config.Config, handlers *Handlers, registry *prometheus.Registry, log zerolog.Logger) *Server {
	if cfg.App.Env != "dev" && cfg.App.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	log = log.With().Str("component", "api").Logger()
	router := gin.New()
	router.Use(requestLogger(log))
	router.Use(recovery(log))

	store := sessions.NewCookieStore([]byte(cfg.API.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.App.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	}
	router.Use(sessionUser(store, cfg.API.SessionName))

	s := &Server{
		router:   router,
		sessions: store,
		log:      log,
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.API.Port),
			Handler:      router,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
		},
	}
	s.setupRoutes(handlers, registry)
	return s
}

func (s *Server) setupRoutes(h *Handlers, registry *prometheus.Registry) {
	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/ready", h.ReadinessCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	sodium := s.router.Group("/api/sodium")
	{
		sodium.POST("/add-meal", h.AddMeal)
		sodium.GET("/today-summary", h.TodaySummary)
		sodium.GET("/weekly-summary", h.WeeklySummary)
		sodium.GET("/alerts", h.Alerts)
		sodium.POST("/alerts/:id/read", h.MarkAlertRead)
		sodium.GET("/meals/today", h.TodayMeals)
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions is the cookie store holding the session user id.
func (s *Server) Sessions() *sessions.CookieStore {
	return s.sessions
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("API server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown failed: %w", err)
	}
	s.log.Info().Msg("API server stopped")
	return nil
}
