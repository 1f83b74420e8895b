// Package handlers provides HTTP handlers for portfolio simulation.
package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/utils"
)

// MaxComparedPortfolios bounds one comparison request.
const MaxComparedPortfolios = 20

// SimulateRequest is the JSON body of a simulation.
type SimulateRequest struct {
	Symbols           []string  `json:"symbols"`
	Weights           []float64 `json:"weights"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date,omitempty"`
	InitialInvestment float64   `json:"initial_investment,omitempty"`
}

// CompareRequest is the JSON body of a comparison.
type CompareRequest struct {
	Portfolios []SimulateRequest `json:"portfolios"`
}

// ToSimulationRequest validates dates and normalises symbols.
func (req SimulateRequest) ToSimulationRequest() (portfolio.SimulationRequest, error) {
	start, err := utils.ParseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return portfolio.SimulationRequest{}, err
	}
	if start == nil {
		return portfolio.SimulationRequest{}, domain.InvalidRequest("start_date is required")
	}
	end, err := utils.ParseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return portfolio.SimulationRequest{}, err
	}

	return portfolio.SimulationRequest{
		Symbols:           utils.NormalizeSymbols(req.Symbols),
		Weights:           req.Weights,
		StartDate:         *start,
		EndDate:           end,
		InitialInvestment: req.InitialInvestment,
	}, nil
}

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleSimulate backtests one weighted portfolio.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var body SimulateRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	req, err := body.ToSimulationRequest()
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	result, err := h.service.Simulate(r.Context(), req)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, result))
}

// HandleCompare simulates several portfolios and ranks them. Portfolios that
// fail are listed under failures; the request itself only fails when the
// body is malformed.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}
	if len(body.Portfolios) == 0 {
		utils.WriteError(w, r, h.log, domain.InvalidRequest("at least one portfolio is required"))
		return
	}
	if len(body.Portfolios) > MaxComparedPortfolios {
		utils.WriteError(w, r, h.log, domain.InvalidRequest("at most %d portfolios can be compared", MaxComparedPortfolios))
		return
	}

	reqs := make([]portfolio.SimulationRequest, len(body.Portfolios))
	for i, p := range body.Portfolios {
		req, err := p.ToSimulationRequest()
		if err != nil {
			utils.WriteError(w, r, h.log, err)
			return
		}
		reqs[i] = req
	}

	started := time.Now()
	comparison, err := h.service.CompareRequests(r.Context(), reqs)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}
	h.log.Debug().
		Int("portfolios", len(reqs)).
		Int("failed", len(comparison.Failures)).
		Dur("duration", time.Since(started)).
		Msg("Comparison complete")

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, comparison))
}
