// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dreamstate/guest-assistant/cmd/guest-assistant-api/handlers"
	"github.com/dreamstate/guest-assistant/cmd/guest-assistant-api/middleware"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// RouterConfig holds the settings the router needs.
type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter creates the API router. snapshots may be nil when no dataset is configured.
func NewRouter(logger *observability.Logger, cfg RouterConfig, engine handlers.Answerer, snapshots handlers.SnapshotSource) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TraceID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	health := handlers.NewHealthHandler(snapshots)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Handle("/api/chat", handlers.NewChatHandler(logger, engine))

	return r
}
