package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers frontier routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/frontier", h.HandleFrontier)             // Monte-Carlo frontier
	r.Get("/portfolio/frontier/stream", h.HandleFrontierStream) // Same search over a websocket with progress
}
