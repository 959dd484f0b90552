// Package server exposes the fire map over HTTP: the page, its JSON
// payload and server-side snapshots.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// PayloadPath serves the refresh payload the page polls.
	PayloadPath = "/api/locations"

	shutdownTimeout = 5 * time.Second
)

// Server serves one store. The store is shared read-only between requests;
// every snapshot builds its own dashboard.
type Server struct {
	cfg    *config.Config
	store  *fetcher.Store
	logger zerolog.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg *config.Config, store *fetcher.Store, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "server").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors())

	r.GET("/health", s.health)
	r.GET("/", s.page)

	api := r.Group("/api")
	{
		api.GET("/locations", s.payload)
		api.GET("/stats", s.stats)
	}

	r.GET("/render.png", s.render)
	r.GET("/render.svg", s.render)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
