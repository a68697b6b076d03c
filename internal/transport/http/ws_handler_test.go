package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
	"prepquiz-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	service := newWSTestService()
	handler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/attempt", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/attempt?quizId=quiz-1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "started")
	if msgType != "started" || payload == nil {
		t.Fatalf("expected started payload, got %s %v", msgType, payload)
	}
	quiz, _ := payload["quiz"].(map[string]any)
	questions, _ := quiz["questions"].([]any)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question in view, got %v", quiz)
	}
	if _, leaked := questions[0].(map[string]any)["correctAnswers"]; leaked {
		t.Fatalf("correct answers must not reach the client during the attempt")
	}

	if err := conn.WriteJSON(map[string]any{"type": "toggle", "payload": map[string]string{"option": "4"}}); err != nil {
		t.Fatalf("write toggle: %v", err)
	}
	stateSeen := false
	for i := 0; i < 5 && !stateSeen; i++ {
		typ, p := readNext(conn, t, "")
		if typ == "state" {
			stateSeen = true
			selected, _ := p["selected"].([]any)
			if len(selected) != 1 || selected[0] != "4" {
				t.Fatalf("expected selection [4], got %v", selected)
			}
		}
	}
	if !stateSeen {
		t.Fatalf("never saw state message after toggle")
	}

	if err := conn.WriteJSON(map[string]any{"type": "finish"}); err != nil {
		t.Fatalf("write finish: %v", err)
	}
	for i := 0; i < 10; i++ {
		typ, p := readNext(conn, t, "")
		if typ != "result" {
			continue
		}
		if p["score"] != float64(1) || p["total"] != float64(1) || p["percentage"] != float64(100) {
			t.Fatalf("expected full score, got %v", p)
		}
		return
	}
	t.Fatalf("never saw result message after finish")
}

func TestWebSocketRejectsUnknownQuiz(t *testing.T) {
	service := newWSTestService()
	handler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/attempt", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/attempt?quizId=missing&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, payload := readNext(conn, t, "error")
	if typ != "error" || payload["message"] != "quiz not found" {
		t.Fatalf("expected quiz not found error, got %s %v", typ, payload)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newWSTestService() *app.AttemptService {
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Arithmetic",
			Questions: []domain.Question{
				{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswers: []string{"4"}},
			},
		},
	}), time.Minute)
	users := memory.NewUserRepository(map[string]domain.User{
		"u1": {ID: "u1", SubscriptionType: domain.TierGratuit},
	})
	subs := app.NewSubscriptionService(users, nil, nil)
	return app.NewAttemptService(memory.NewSessionStore(), quizzes, memory.NewAttemptStore(), subs)
}
