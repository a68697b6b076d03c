package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"prepquiz-service/internal/domain"
)

// EventType tags the updates a session pushes to its subscribers.
type EventType string

const (
	EventTick     EventType = "tick"
	EventState    EventType = "state"
	EventFinished EventType = "finished"
	EventNotice   EventType = "notice"
)

// Event is a session update delivered to transport subscribers.
type Event struct {
	Type      EventType      `json:"type"`
	Remaining int            `json:"remaining,omitempty"`
	Display   string         `json:"display,omitempty"`
	Index     int            `json:"index"`
	Result    *domain.Result `json:"result,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Session is one user's in-progress timed attempt at a quiz. All state is
// guarded by mu; the countdown goroutine and the transport mutate it through
// the same lock, so the decrement and the zero-check-and-auto-finish are a
// single step and finish stays idempotent.
type Session struct {
	id       string
	userID   string
	quiz     domain.Quiz
	recorder AttemptRecorder
	now      func() time.Time

	mu           sync.Mutex
	currentIndex int
	answers      []domain.Selection
	remaining    int
	finished     bool
	result       domain.Result
	subscribers  map[chan Event]struct{}

	stop       chan struct{}
	stopOnce   sync.Once
	recordOnce sync.Once
}

func newSession(id, userID string, quiz domain.Quiz, recorder AttemptRecorder, now func() time.Time) *Session {
	answers := make([]domain.Selection, len(quiz.Questions))
	for i := range answers {
		answers[i] = domain.NewSelection()
	}
	seconds := quiz.DurationMinutes * 60
	if seconds <= 0 {
		// one minute per question when no duration is set
		seconds = len(quiz.Questions) * 60
	}
	return &Session{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		recorder:    recorder,
		now:         now,
		answers:     answers,
		remaining:   seconds,
		subscribers: make(map[chan Event]struct{}),
		stop:        make(chan struct{}),
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) UserID() string    { return s.userID }
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// State returns the current position, remaining seconds, and finished flag.
func (s *Session) State() (index, remaining int, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex, s.remaining, s.finished
}

// Selected returns the selection for the question at index, sorted.
func (s *Session) Selected(index int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.answers) {
		return nil
	}
	return s.answers[index].Values()
}

// Next moves to the following question; clamped at the last one. Navigation
// never touches recorded answers.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished && s.currentIndex < len(s.quiz.Questions)-1 {
		s.currentIndex++
	}
	idx := s.currentIndex
	s.broadcastLocked(Event{Type: EventState, Index: idx, Remaining: s.remaining, Display: FormatRemaining(s.remaining)})
	return idx
}

// Previous moves back one question; clamped at the first.
func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished && s.currentIndex > 0 {
		s.currentIndex--
	}
	idx := s.currentIndex
	s.broadcastLocked(Event{Type: EventState, Index: idx, Remaining: s.remaining, Display: FormatRemaining(s.remaining)})
	return idx
}

// Toggle flips option membership in the current question's selection. There is
// no cap on how many options may be selected; over-selection is a valid
// (incorrect) end state.
func (s *Session) Toggle(option string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s.answers[s.currentIndex].Values(), nil
	}
	question := s.quiz.Questions[s.currentIndex]
	known := false
	for _, opt := range question.Options {
		if opt == option {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", domain.ErrOptionUnknown, option)
	}
	s.answers[s.currentIndex].Toggle(option)
	return s.answers[s.currentIndex].Values(), nil
}

// Finish scores the attempt and returns the result. Idempotent: later calls
// return the same result and the attempt is recorded at most once.
func (s *Session) Finish() domain.Result {
	s.mu.Lock()
	result := s.finishLocked()
	s.mu.Unlock()
	s.stopTimer()
	s.recordOnce.Do(func() { go s.record(result) })
	return result
}

// finishLocked computes the result exactly once. Scoring compares each
// selection to the correct set with exact set equality; an empty selection
// never matches a non-empty correct set.
func (s *Session) finishLocked() domain.Result {
	if s.finished {
		return s.result
	}
	s.finished = true

	total := len(s.quiz.Questions)
	score := 0
	perQuestion := make([]domain.QuestionResult, 0, total)
	for i, question := range s.quiz.Questions {
		correct := s.answers[i].Equals(question.CorrectAnswers)
		if correct {
			score++
		}
		perQuestion = append(perQuestion, domain.QuestionResult{
			Question:    question.Text,
			Options:     question.Options,
			Selected:    s.answers[i].Values(),
			Correct:     question.CorrectAnswers,
			IsCorrect:   correct,
			Explanation: question.Explanation,
		})
	}
	s.result = domain.Result{
		PerQuestion: perQuestion,
		Score:       score,
		Total:       total,
		Percentage:  roundPercentage(score, total),
	}
	result := s.result
	s.broadcastLocked(Event{Type: EventFinished, Index: s.currentIndex, Result: &result})
	return s.result
}

// record hands the aggregate to the attempt recorder. Ephemeral quizzes are
// skipped; a failed write is logged and surfaced as a notice, never rolled
// into the already-computed result.
func (s *Session) record(result domain.Result) {
	if s.recorder == nil || s.quiz.Ephemeral() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	attempt := domain.Attempt{
		ID:         s.id,
		UserID:     s.userID,
		QuizID:     s.quiz.ID,
		QuizTitle:  s.quiz.Title,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		TakenAt:    s.now(),
	}
	if err := s.recorder.RecordAttempt(ctx, attempt); err != nil {
		log.Printf("record attempt %s (quiz %s, user %s): %v", s.id, s.quiz.ID, s.userID, err)
		s.mu.Lock()
		s.broadcastLocked(Event{Type: EventNotice, Index: s.currentIndex, Message: "result could not be saved"})
		s.mu.Unlock()
	}
}

// runTimer decrements once per tick of wall-clock time and auto-finishes at
// zero. It exits when the session finishes or is abandoned.
func (s *Session) runTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.tick() {
				return
			}
		case <-s.stop:
			return
		}
	}
}

// tick performs one countdown step under the lock. Reaching zero finishes the
// session in the same step so a concurrent manual Finish cannot double-score.
func (s *Session) tick() (done bool) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return true
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		result := s.finishLocked()
		s.mu.Unlock()
		s.stopTimer()
		s.recordOnce.Do(func() { go s.record(result) })
		return true
	}
	s.broadcastLocked(Event{Type: EventTick, Index: s.currentIndex, Remaining: s.remaining, Display: FormatRemaining(s.remaining)})
	s.mu.Unlock()
	return false
}

func (s *Session) stopTimer() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Subscribe returns a channel of session events plus a cancel that must be
// called to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(event Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// drop the oldest update so a slow client never blocks the timer
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// FormatRemaining renders seconds as m:ss with zero-padded seconds.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// roundPercentage is 100*score/total with half-up rounding.
func roundPercentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return (100*score + total/2) / total
}
