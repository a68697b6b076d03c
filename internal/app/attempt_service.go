package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"prepquiz-service/internal/domain"
)

// SessionRepository abstracts how attempt sessions are stored (in-memory, Redis-backed, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	GetByUser(userID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRecorder persists the aggregate of a finished attempt.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	ListAttempts(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// SubscriptionReader exposes the lazily-expired subscription view used to
// gate premium quizzes.
type SubscriptionReader interface {
	GetSubscription(ctx context.Context, userID string) (domain.User, error)
}

// AttemptService drives timed attempts from load to scored result.
type AttemptService struct {
	sessions     SessionRepository
	quizzes      QuizRepository
	recorder     AttemptRecorder
	subs         SubscriptionReader
	now          func() time.Time
	tickInterval time.Duration
}

func NewAttemptService(sessions SessionRepository, quizzes QuizRepository, recorder AttemptRecorder, subs SubscriptionReader) *AttemptService {
	return &AttemptService{
		sessions:     sessions,
		quizzes:      quizzes,
		recorder:     recorder,
		subs:         subs,
		now:          time.Now,
		tickInterval: time.Second,
	}
}

// WithClock is a test hook for deterministic timestamps and fast countdowns.
func (s *AttemptService) WithClock(now func() time.Time, tick time.Duration) *AttemptService {
	s.now = now
	s.tickInterval = tick
	return s
}

// Start loads the quiz, checks tier and schedule gates, and opens a timed
// session. A user has a single active session; starting a new one abandons
// the previous.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, quiz, userID)
}

// StartEphemeral opens a session on a quiz that has never been persisted
// (e.g. freshly AI-generated); its result is shown but not recorded.
func (s *AttemptService) StartEphemeral(ctx context.Context, quiz domain.Quiz, userID string) (*Session, error) {
	quiz.ID = ""
	return s.start(ctx, quiz, userID)
}

func (s *AttemptService) start(ctx context.Context, quiz domain.Quiz, userID string) (*Session, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if quiz.AccessTier == domain.TierPremium {
		user, err := s.subs.GetSubscription(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user.SubscriptionType != domain.TierPremium {
			return nil, domain.ErrPremiumRequired
		}
	}
	if quiz.IsMockExam && quiz.ScheduledFor != nil && s.now().Before(*quiz.ScheduledFor) {
		return nil, domain.ErrExamNotOpen
	}

	if previous, ok := s.sessions.GetByUser(userID); ok {
		s.abandon(previous)
	}

	session := newSession(uuid.NewString(), userID, quiz, s.recorder, s.now)
	s.sessions.Put(session)
	go session.runTimer(s.tickInterval)
	return session, nil
}

// Get returns an active session by ID.
func (s *AttemptService) Get(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Abandon tears a session down without scoring: the timer is stopped and the
// session discarded.
func (s *AttemptService) Abandon(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	s.abandon(session)
}

func (s *AttemptService) abandon(session *Session) {
	session.stopTimer()
	s.sessions.Delete(session.ID())
}

// Finish scores the session and drops it from the repository; the result
// stays with the caller.
func (s *AttemptService) Finish(sessionID string) (domain.Result, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	result := session.Finish()
	s.sessions.Delete(session.ID())
	return result, nil
}

// History lists a user's recorded attempts, newest first.
func (s *AttemptService) History(ctx context.Context, userID string) ([]domain.Attempt, error) {
	return s.recorder.ListAttempts(ctx, userID)
}
