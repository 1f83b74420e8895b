package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/utils"
)

const (
	writeWait = 10 * time.Second
	// progressUpdates is roughly how many progress messages one run sends.
	progressUpdates = 100
)

// Stream message types.
const (
	MessageStarted  = "started"
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamError is the error payload of an error message.
type StreamError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// StreamMessage is one JSON text frame on the frontier stream.
type StreamMessage struct {
	Type    string                       `json:"type"`
	RunID   string                       `json:"run_id"`
	Current int                          `json:"current,omitempty"`
	Total   int                          `json:"total,omitempty"`
	Result  *optimization.FrontierResult `json:"result,omitempty"`
	Error   *StreamError                 `json:"error,omitempty"`
}

// HandleFrontierStream runs a frontier search over a websocket.
//
// Query: symbols (comma separated), start_date, end_date, num_portfolios.
// The server sends "started", then "progress" messages, then exactly one
// "result" or "error" message before closing the connection.
func (h *Handler) HandleFrontierStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	body := FrontierRequest{
		Symbols:   utils.ParseCSV(query.Get("symbols")),
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}
	if raw := query.Get("num_portfolios"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, r, h.log, domain.InvalidRequest("num_portfolios must be an integer"))
			return
		}
		body.NumPortfolios = &n
	}

	req, err := h.toRequest(body)
	if err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.CloseNow()

	// The client only listens; CloseRead cancels ctx when it goes away.
	ctx := conn.CloseRead(r.Context())
	runID := uuid.NewString()
	log := h.log.With().Str("run_id", runID).Logger()

	if err := writeMessage(ctx, conn, StreamMessage{Type: MessageStarted, RunID: runID, Total: req.NumPortfolios}); err != nil {
		log.Warn().Err(err).Msg("Failed to send start message")
		return
	}

	step := req.NumPortfolios / progressUpdates
	if step < 1 {
		step = 1
	}
	var writeErr error
	progress := func(current, total int, _ string) {
		if writeErr != nil || (current%step != 0 && current != total) {
			return
		}
		writeErr = writeMessage(ctx, conn, StreamMessage{Type: MessageProgress, RunID: runID, Current: current, Total: total})
	}

	result, err := h.generator.CreateWithProgress(ctx, req, progress)
	if writeErr != nil {
		log.Warn().Err(writeErr).Msg("Client stopped receiving progress")
		return
	}

	final := StreamMessage{Type: MessageResult, RunID: runID, Result: result}
	if err != nil {
		log.Warn().Err(err).Msg("Frontier run failed")
		final = StreamMessage{
			Type:  MessageError,
			RunID: runID,
			Error: &StreamError{Kind: domain.KindOf(err), Message: domain.PublicMessage(err)},
		}
	}
	if err := writeMessage(ctx, conn, final); err != nil {
		log.Warn().Err(err).Msg("Failed to send final message")
		return
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Type, err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send %s message: %w", msg.Type, err)
	}
	return nil
}
