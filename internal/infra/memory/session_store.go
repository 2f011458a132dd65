package memory

import (
	"context"
	"sync"
	"time"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	clock    func() time.Time
	sessions map[string]startMarker
}

type startMarker struct {
	startedAt time.Time
	expiresAt time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		clock:    time.Now,
		sessions: make(map[string]startMarker),
	}
}

func (s *SessionStore) MarkStarted(_ context.Context, quizID, userID string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	marker := startMarker{startedAt: at}
	if ttl > 0 {
		marker.expiresAt = s.clock().Add(ttl)
	}
	s.sessions[key(quizID, userID)] = marker
	return nil
}

func (s *SessionStore) StartedAt(_ context.Context, quizID, userID string) (time.Time, bool, error) {
	s.mu.RLock()
	marker, ok := s.sessions[key(quizID, userID)]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false, nil
	}
	if !marker.expiresAt.IsZero() && !marker.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.sessions, key(quizID, userID))
		s.mu.Unlock()
		return time.Time{}, false, nil
	}
	return marker.startedAt, true, nil
}

func (s *SessionStore) Clear(_ context.Context, quizID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key(quizID, userID))
	return nil
}

func key(quizID, userID string) string {
	return quizID + "/" + userID
}
