package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"prepquiz-service/internal/app"
)

// NewRouter wires the REST and websocket surfaces.
func NewRouter(attempts *app.AttemptService, subs *app.SubscriptionService, generator *app.GeneratorService) *mux.Router {
	ws := NewWSHandler(attempts)
	webhook := NewWebhookHandler(subs)
	generate := NewGenerateHandler(generator)
	users := NewUserHandler(subs, attempts)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/attempt", ws.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/api/payments/notify", webhook.Notify).Methods(http.MethodPost)
	r.HandleFunc("/api/quizzes/generate", generate.Generate).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id}/subscription", users.Subscription).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}/attempts", users.Attempts).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}
