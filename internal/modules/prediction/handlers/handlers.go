// Package handlers provides HTTP handlers for trend predictions.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/prediction"
	"github.com/aristath/advisor/internal/utils"
)

// Query defaults.
const (
	DefaultDays            = 30
	DefaultConfidenceLevel = 0.8
)

// Handler handles prediction HTTP requests
type Handler struct {
	predictor *prediction.Predictor
	log       zerolog.Logger
}

// NewHandler creates a new prediction handler
func NewHandler(predictor *prediction.Predictor, log zerolog.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		log:       log.With().Str("handler", "prediction").Logger(),
	}
}

// RegisterRoutes registers prediction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/prediction/{symbol}", h.HandleGetPrediction)
}

// HandleGetPrediction scores the trend of one symbol.
// Query: days (default 30), confidence_level (default 0.8).
func (h *Handler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	query := r.URL.Query()

	days := DefaultDays
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, r, h.log, domain.InvalidRequest("days must be an integer"))
			return
		}
		days = parsed
	}

	level := DefaultConfidenceLevel
	if raw := query.Get("confidence_level"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.WriteError(w, r, h.log, domain.InvalidRequest("confidence_level must be a number"))
			return
		}
		level = parsed
	}

	result, err := h.predictor.Predict(r.Context(), symbol, days, level)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, result))
}
