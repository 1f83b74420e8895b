package utils

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// StatusForError maps an error kind to its HTTP status.
func StatusForError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidWeights, domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindDataUnavailable:
		return http.StatusNotFound
	case domain.KindComputation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Envelope wraps a payload with response metadata.
func Envelope(r *http.Request, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data":     data,
		"metadata": Metadata(r),
	}
}

// Metadata returns the request id and timestamp attached to every response.
// The chi request id is used when present.
func Metadata(r *http.Request) map[string]interface{} {
	requestID := ""
	if r != nil {
		requestID = middleware.GetReqID(r.Context())
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return map[string]interface{}{
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
}

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes the structured error body {"error":{"kind","message"}}.
// Unclassified errors are logged with full detail and reported generically.
func WriteError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status := StatusForError(err)
	kind := domain.KindOf(err)

	event := log.Warn()
	if status == http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("kind", string(kind)).Int("status", status).Msg("Request failed")

	WriteJSON(w, log, status, map[string]interface{}{
		"error": map[string]interface{}{
			"kind":    kind,
			"message": domain.PublicMessage(err),
		},
		"metadata": Metadata(r),
	})
}

// DecodeJSON decodes the request body into v. Malformed bodies are
// InvalidRequest errors.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return domain.InvalidRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.InvalidRequest("invalid request body: %v", err)
	}
	return nil
}

// ParseOptionalDate parses a YYYY-MM-DD parameter. An empty value is nil.
func ParseOptionalDate(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return nil, domain.InvalidRequest("%s must be a YYYY-MM-DD date", name)
	}
	return &t, nil
}
