package server

import (
	"net/http"

	"github.com/aristath/advisor/internal/utils"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"service": "advisor",
	}

	utils.WriteJSON(w, s.log, http.StatusOK, response)
}
