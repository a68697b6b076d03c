package memory

import (
	"sync"

	"prepquiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository. It
// also indexes by user so a user can hold one active attempt at a time.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	byUser   map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
		byUser:   make(map[string]string),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.byUser[session.UserID()] = session.ID()
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
	if s.byUser[session.UserID()] == sessionID {
		delete(s.byUser, session.UserID())
	}
}
