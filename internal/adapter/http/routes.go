package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	lkotel "github.com/Strob0t/lspkeeper/internal/adapter/otel"
	"github.com/Strob0t/lspkeeper/internal/middleware"
)

// NewRouter builds the control API router with its middleware stack.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Loopback)
	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(lkotel.HTTPMiddleware("lspkeeper"))

	MountRoutes(r, h)
	return r
}

// MountRoutes registers all control API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		r.Get("/status", h.Status)
		r.Post("/start", h.Start)
		r.Post("/stop", h.Stop)
		r.Post("/restart", h.Restart)

		r.Get("/commands", h.ListCommands)
		r.Post("/commands/{id}", h.ExecuteCommand)
	})
}
