package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
)

// GenerateHandler exposes the AI quiz generator.
type GenerateHandler struct {
	generator *app.GeneratorService
}

func NewGenerateHandler(generator *app.GeneratorService) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req app.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	quiz, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrMissingTopic) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing topic"})
			return
		}
		if errors.Is(err, domain.ErrInvalidDifficulty) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown difficulty", Details: err.Error()})
			return
		}
		log.Printf("generate quiz for topic %q: %v", req.Topic, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz generation failed"})
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}
