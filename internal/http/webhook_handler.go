package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/fjod/storefront/internal/payment"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	webhooks WebhookProcessor
}

func NewWebhookHandler(webhooks WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// POST /webhooks/payments
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	// the signature covers the exact bytes, so the body is never decoded here
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable_body", "request body unreadable or too large")
		return
	}

	res, err := h.webhooks.Handle(r.Context(), payload, r.Header.Get(payment.SignatureHeader))
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	case errors.Is(err, payment.ErrMalformedEvent):
		respondError(w, http.StatusBadRequest, "malformed_event", "webhook payload could not be parsed")
		return
	case err != nil:
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true, Outcome: string(res.Outcome)})
}
