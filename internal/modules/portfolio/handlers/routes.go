package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers portfolio simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/simulate", h.HandleSimulate) // Backtest one portfolio
	r.Post("/portfolio/compare", h.HandleCompare)   // Rank several portfolios
}
