// Package handlers provides HTTP handlers for technical indicators.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/modules/technical"
	"github.com/aristath/advisor/internal/utils"
)

// Handler handles indicator HTTP requests
type Handler struct {
	service *technical.Service
	log     zerolog.Logger
}

// NewHandler creates a new indicator handler
func NewHandler(service *technical.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "technical").Logger(),
	}
}

// RegisterRoutes registers indicator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/indicators/{symbol}", h.HandleGetIndicators)
}

// HandleGetIndicators returns SMA20/50, RSI14 and the MACD histogram for a symbol.
// Query: start, end (YYYY-MM-DD, optional).
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))

	start, err := utils.ParseOptionalDate("start", r.URL.Query().Get("start"))
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}
	end, err := utils.ParseOptionalDate("end", r.URL.Query().Get("end"))
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	result, err := h.service.GetIndicators(r.Context(), symbol, start, end)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, result))
}
