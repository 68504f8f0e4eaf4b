package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Engine state stays in a local map; sessions are never restored after a
//     restart.
//   - Redis holds a liveness marker per session (quiz:session:{id} -> quiz ID)
//     so operators and other instances can count and expire live attempts.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.QuizID(), s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Touch refreshes the liveness marker TTL.
func (s *SessionStore) Touch(sessionID string) {
	if s.ttl <= 0 {
		return
	}
	_ = s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err()
}

func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
	}
	return ok
}

// DeleteIdle removes sessions whose last activity is before the cutoff.
func (s *SessionStore) DeleteIdle(before time.Time) int {
	s.mu.Lock()
	var idle []string
	for id, session := range s.sessions {
		if session.LastActive().Before(before) {
			idle = append(idle, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	if len(idle) == 0 {
		return 0
	}
	keys := make([]string, len(idle))
	for i, id := range idle {
		keys[i] = s.key(id)
	}
	_ = s.client.Del(context.Background(), keys...).Err()
	return len(idle)
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
