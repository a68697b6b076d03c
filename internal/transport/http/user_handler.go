package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
)

// UserHandler serves subscription state (with lazy expiry) and attempt history.
type UserHandler struct {
	subs     *app.SubscriptionService
	attempts *app.AttemptService
}

func NewUserHandler(subs *app.SubscriptionService, attempts *app.AttemptService) *UserHandler {
	return &UserHandler{subs: subs, attempts: attempts}
}

func (h *UserHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	user, err := h.subs.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
			return
		}
		log.Printf("read subscription for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "subscription lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	attempts, err := h.attempts.History(r.Context(), userID)
	if err != nil {
		log.Printf("list attempts for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "attempt history lookup failed"})
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}
