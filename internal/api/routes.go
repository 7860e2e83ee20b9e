package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured.
// When apiKey is empty the sync and runs endpoints are left open; that is
// intended for localhost use only.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Index)

	r.Route("/api/v1", func(r chi.Router) {
		// Public route (no auth required)
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			if h.apiKey != "" {
				r.Use(AuthMiddleware(h.apiKey))
			}
			r.Post("/sync", h.Sync)
			r.Get("/runs", h.Runs)
		})
	})

	return r
}
