// Package handlers provides HTTP handlers for efficient-frontier search.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/utils"
)

// FrontierRequest is the JSON body of a frontier search.
type FrontierRequest struct {
	Symbols       []string `json:"symbols"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	NumPortfolios *int     `json:"num_portfolios,omitempty"`
}

// Handler handles frontier HTTP requests
type Handler struct {
	generator     *optimization.FrontierGenerator
	numPortfolios int
	log           zerolog.Logger
}

// NewHandler creates a new frontier handler. numPortfolios is used when a
// request does not specify one.
func NewHandler(generator *optimization.FrontierGenerator, numPortfolios int, log zerolog.Logger) *Handler {
	if numPortfolios <= 0 {
		numPortfolios = optimization.DefaultNumPortfolios
	}
	return &Handler{
		generator:     generator,
		numPortfolios: numPortfolios,
		log:           log.With().Str("handler", "optimization").Logger(),
	}
}

func (h *Handler) toRequest(body FrontierRequest) (optimization.FrontierRequest, error) {
	start, err := utils.ParseOptionalDate("start_date", body.StartDate)
	if err != nil {
		return optimization.FrontierRequest{}, err
	}
	if start == nil {
		return optimization.FrontierRequest{}, domain.InvalidRequest("start_date is required")
	}
	end, err := utils.ParseOptionalDate("end_date", body.EndDate)
	if err != nil {
		return optimization.FrontierRequest{}, err
	}

	n := h.numPortfolios
	if body.NumPortfolios != nil {
		n = *body.NumPortfolios
	}

	return optimization.FrontierRequest{
		Symbols:       utils.NormalizeSymbols(body.Symbols),
		StartDate:     *start,
		EndDate:       end,
		NumPortfolios: n,
	}, nil
}

// HandleFrontier runs a frontier search and returns every sample.
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var body FrontierRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	req, err := h.toRequest(body)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	result, err := h.generator.Create(r.Context(), req)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, result))
}
