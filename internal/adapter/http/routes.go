package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Orchestration
		r.Post("/orchestrate", h.Orchestrate)
		r.Post("/score", h.ScoreTask)

		// Decision log (append-only: no update or delete routes)
		r.Post("/decisions", h.MakeDecision)
		r.Get("/decisions/stats", h.DecisionStats)
		r.Get("/decisions/{id}", handleGet(h.Engine.GetDecision, "decision not found"))
		r.Get("/tasks/{id}/decisions", handleListByParam("id", h.Engine.ListByTask, "task not found"))

		// Task forces
		r.Post("/taskforces", handleCreate(h.Forces.Create))
		r.Get("/taskforces", handleList(h.Forces.List))
		r.Get("/taskforces/{id}", handleGet(h.Forces.Get, "task force not found"))
		r.Post("/taskforces/{id}/status", h.UpdateTaskForceStatus)
	})
}
