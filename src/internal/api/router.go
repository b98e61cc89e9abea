package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger)
	r.Use(PrivateSubnetOnly)
	r.Use(CORS)
	r.Use(JSONContentType)

	r.Route("/api/v1", func(r chi.Router) {
		// Global routing settings
		r.Get("/routing", h.GetRouting)
		r.Patch("/routing", h.UpdateRouting)
		r.Get("/routing/options", h.GetRoutingOptions)
		r.Get("/routing/warnings", h.GetRoutingWarnings)

		// Rules
		r.Get("/rules", h.GetRules)
		r.Post("/rules", h.CreateRule)
		r.Post("/rules/move", h.MoveRules)
		r.Post("/rules/remove", h.RemoveRules)
		r.Route("/rules/{id}", func(r chi.Router) {
			r.Get("/", h.GetRule)
			r.Patch("/", h.UpdateRule)
			r.Delete("/", h.DeleteRule)

			r.Post("/network", h.ToggleNetwork)
			r.Post("/protocol", h.ToggleProtocol)

			r.Get("/lists/{field}", h.GetList)
			r.Post("/lists/{field}", h.AddListValue)
			r.Post("/lists/{field}/remove", h.RemoveListValues)
			r.Post("/lists/{field}/move", h.MoveListValues)
		})

		r.Get("/outbounds", h.GetOutbounds)

		// Editing session
		r.Get("/editor", h.GetEditor)
		r.Post("/editor/commit", h.CommitEditor)
		r.Post("/editor/discard", h.DiscardEditor)

		// Tunnel session
		r.Get("/status", h.GetStatus)
		r.Post("/session", h.ControlSession)
		r.Post("/session/reconcile", h.Reconcile)

		r.Get("/health", h.CheckHealth)

		registerPprof(r)
	})

	return r
}
