package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prepquiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions stay in a local in-memory map because the countdown goroutine
//     and subscriber channels are in-process state.
//   - Redis marks session liveness per session and per user, so another
//     instance can tell a user already has an active attempt.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
	byUser   map[string]string
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
		byUser:   make(map[string]string),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.byUser[session.UserID()] = session.ID()
	// best-effort liveness markers
	ctx := context.Background()
	_ = s.client.Set(ctx, s.sessionKey(session.ID()), session.UserID(), s.ttl).Err()
	_ = s.client.Set(ctx, s.userKey(session.UserID()), session.ID(), s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) GetByUser(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(s.sessions, sessionID)
	ctx := context.Background()
	_ = s.client.Del(ctx, s.sessionKey(sessionID)).Err()
	if s.byUser[session.UserID()] == sessionID {
		delete(s.byUser, session.UserID())
		_ = s.client.Del(ctx, s.userKey(session.UserID())).Err()
	}
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return "attempt:session:" + sessionID
}

func (s *SessionStore) userKey(userID string) string {
	return "attempt:user:" + userID
}
