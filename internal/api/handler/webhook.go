package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/fairway/internal/api/response"
	"github.com/Rrens/fairway/internal/domain"
	"github.com/Rrens/fairway/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	msgUnauthorized = "❌ Numéro non autorisé. Veuillez contacter l'administrateur."
	msgServerError  = "❌ Erreur serveur. Veuillez réessayer plus tard."
	msgSaveError    = "❌ Erreur lors de l'enregistrement. Veuillez réessayer."
	msgBusy         = "⏳ Message précédent en cours de traitement. Réessayez dans un instant."
	msgBadRequest   = "❌ Message illisible."
)

// Intake handles one inbound message
type Intake interface {
	HandleMessage(ctx context.Context, msg service.InboundMessage) (*service.IntakeResult, error)
}

// WebhookHandler handles the messaging transport webhook
type WebhookHandler struct {
	intake Intake
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(intake Intake) *WebhookHandler {
	return &WebhookHandler{intake: intake}
}

// Receive handles an inbound message form post and answers with a reply envelope
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		response.TwiML(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	msg := inboundFromForm(r)
	result, err := h.handle(r.Context(), msg)
	if err != nil {
		status, reply := replyForError(err)
		logIntakeError(err, msg.From, status)
		response.TwiML(w, status, reply)
		return
	}

	response.TwiML(w, http.StatusOK, result.Reply)
}

func (h *WebhookHandler) handle(ctx context.Context, msg service.InboundMessage) (*service.IntakeResult, error) {
	if err := validateStruct(msg); err != nil {
		return nil, err
	}
	return h.intake.HandleMessage(ctx, msg)
}

// Status answers reachability probes from the transport console
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "whatsapp-webhook",
	})
}

// inboundFromForm reads the transport form fields. Only the first media
// attachment is kept.
func inboundFromForm(r *http.Request) service.InboundMessage {
	return service.InboundMessage{
		From:     strings.TrimSpace(r.PostForm.Get("From")),
		Body:     strings.TrimSpace(r.PostForm.Get("Body")),
		MediaURL: strings.TrimSpace(r.PostForm.Get("MediaUrl0")),
	}
}

func replyForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, msgBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, msgUnauthorized
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable, msgBusy
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, msgSaveError
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func logIntakeError(err error, from string, status int) {
	event := log.Error()
	if status < http.StatusInternalServerError {
		event = log.Warn()
	}
	event.Err(err).Str("from", from).Int("status", status).Msg("failed to handle inbound message")
}
