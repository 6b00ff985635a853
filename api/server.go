/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:         Request logging
  2. Recoverer:      Panic recovery (500 instead of crash)
  3. RequestID:      Unique ID per request for tracing
  4. CORS:           Cross-origin requests for the admin frontend
  5. Authentication: Session token check on everything under /api
                     except /api/health and /api/seed/demo

ROUTE GROUPS:
  /api/scoreboard       Production leaderboard
  /api/agents/*         Roster, onboarding, downline, threads
  /api/deals/*          Deal tracking
  /api/threads/*        SMS conversation history
  /api/health           Liveness probe (public)
  /api/seed/demo        Demo data loader (dev only, public)

SEE ALSO:
  - handlers.go: Handler implementations
  - identity.go: Authentication middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, secret []byte, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)
		r.Post("/seed/demo", h.SeedDemo)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(Authentication(secret, log))

			r.Get("/scoreboard", h.Scoreboard)

			r.Route("/agents", func(r chi.Router) {
				r.Get("/", h.ListAgents)
				r.Post("/", h.CreateAgent)
				r.Get("/{id}", h.GetAgent)
				r.Get("/{id}/downline", h.GetDownline)
				r.Post("/{id}/advance", h.AdvanceAgent)
				r.Get("/{id}/threads", h.ListThreads)
			})

			r.Route("/deals", func(r chi.Router) {
				r.Get("/", h.ListDeals)
				r.Post("/", h.CreateDeal)
			})

			r.Route("/threads", func(r chi.Router) {
				r.Get("/{id}/messages", h.GetMessages)
				r.Post("/{id}/messages", h.PostMessage)
			})
		})
	})

	return r
}
