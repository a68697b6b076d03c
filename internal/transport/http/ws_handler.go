package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
)

// WSHandler drives a live quiz attempt over a websocket: the client navigates
// and toggles answers, the server streams countdown ticks and, at the end,
// the scored result.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type togglePayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView hides the correct set from the client during the attempt.
type questionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type quizView struct {
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	DurationMinutes int            `json:"durationMinutes"`
	IsMockExam      bool           `json:"isMockExam"`
	Questions       []questionView `json:"questions"`
}

type startedPayload struct {
	SessionID string   `json:"sessionId"`
	Quiz      quizView `json:"quiz"`
	Index     int      `json:"index"`
	Remaining int      `json:"remaining"`
	Display   string   `json:"display"`
}

type statePayload struct {
	Index    int      `json:"index"`
	Selected []string `json:"selected"`
}

// ServeWS upgrades the request and runs one attempt for its lifetime. Closing
// the socket before finishing abandons the session and stops its timer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: startErrorMessage(err)}})
		return
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				msg, forward := translateEvent(event)
				if !forward {
					continue
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	index, remaining, _ := session.State()
	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		SessionID: session.ID(),
		Quiz:      viewOf(session.Quiz()),
		Index:     index,
		Remaining: remaining,
		Display:   app.FormatRemaining(remaining),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "next":
			idx := session.Next()
			send <- outboundMessage[any]{Type: "state", Payload: statePayload{Index: idx, Selected: session.Selected(idx)}}
		case "previous":
			idx := session.Previous()
			send <- outboundMessage[any]{Type: "state", Payload: statePayload{Index: idx, Selected: session.Selected(idx)}}
		case "toggle":
			var payload togglePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid toggle payload"}}
				continue
			}
			selected, err := session.Toggle(payload.Option)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			idx, _, _ := session.State()
			send <- outboundMessage[any]{Type: "state", Payload: statePayload{Index: idx, Selected: selected}}
		case "finish":
			// result arrives via the subscription as a "result" message
			if _, err := h.service.Finish(session.ID()); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	if _, _, finished := session.State(); !finished {
		h.service.Abandon(session.ID())
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// translateEvent maps session events to wire messages. State events are
// skipped: navigation and toggles already get direct responses.
func translateEvent(event app.Event) (outboundMessage[any], bool) {
	switch event.Type {
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: map[string]any{
			"remaining": event.Remaining,
			"display":   event.Display,
		}}, true
	case app.EventFinished:
		return outboundMessage[any]{Type: "result", Payload: event.Result}, true
	case app.EventNotice:
		return outboundMessage[any]{Type: "notice", Payload: errorPayload{Message: event.Message}}, true
	default:
		return outboundMessage[any]{}, false
	}
}

func viewOf(quiz domain.Quiz) quizView {
	questions := make([]questionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, questionView{Text: q.Text, Options: q.Options})
	}
	return quizView{
		Title:           quiz.Title,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		IsMockExam:      quiz.IsMockExam,
		Questions:       questions,
	}
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, domain.ErrEmptyQuiz):
		return "quiz has no questions"
	case errors.Is(err, domain.ErrPremiumRequired):
		return "premium subscription required"
	case errors.Is(err, domain.ErrExamNotOpen):
		return "mock exam not open yet"
	default:
		return err.Error()
	}
}
