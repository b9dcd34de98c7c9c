package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Rrens/fairway/internal/api/response"
	"github.com/Rrens/fairway/internal/service"
)

// SimulateHandler drives the intake flow with JSON instead of transport
// form posts, for local testing
type SimulateHandler struct {
	intake Intake
}

// NewSimulateHandler creates a new simulate handler
func NewSimulateHandler(intake Intake) *SimulateHandler {
	return &SimulateHandler{intake: intake}
}

// Message handles one simulated inbound message
func (h *SimulateHandler) Message(w http.ResponseWriter, r *http.Request) {
	var input service.InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validateStruct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	result, err := h.intake.HandleMessage(r.Context(), input)
	if err != nil {
		status, reply := replyForError(err)
		logIntakeError(err, input.From, status)
		response.Error(w, status, reply)
		return
	}

	response.OK(w, result)
}
