package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
)

// WebhookHandler receives asynchronous payment notifications from the
// gateway. Missing/invalid input is a 400 so the gateway stops redelivering;
// verification and processing failures are 500 so it retries.
type WebhookHandler struct {
	subs *app.SubscriptionService
}

func NewWebhookHandler(subs *app.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{subs: subs}
}

type notificationBody struct {
	TransactionID string `json:"transactionId"`
	// gateway-native field name, same value
	CpmTransID string `json:"cpm_trans_id"`
}

func (b notificationBody) transactionID() string {
	if b.TransactionID != "" {
		return b.TransactionID
	}
	return b.CpmTransID
}

func (h *WebhookHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var body notificationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notification body", Details: err.Error()})
		return
	}

	message, err := h.subs.HandleNotification(r.Context(), body.transactionID())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingTransaction):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing transaction identifier"})
		case errors.Is(err, domain.ErrMissingUser):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "transaction has no user identifier"})
		case errors.Is(err, domain.ErrMissingVerification):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "verification response missing transaction status"})
		default:
			// verification round trip or user update failed; the gateway may retry
			log.Printf("payment notification %s: %v", body.transactionID(), err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "notification processing failed", Details: err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}
