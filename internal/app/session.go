package app

import (
	"sync"
	"time"

	"quiz-session-service/internal/engine"
)

// Session is one live attempt held by a SessionRepository.
type Session struct {
	id        string
	quizID    int64
	startedAt time.Time

	mu         sync.Mutex
	state      engine.SessionState
	lastActive time.Time
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, quizID int64, state engine.SessionState, now time.Time) *Session {
	return &Session{
		id:         id,
		quizID:     quizID,
		startedAt:  now,
		state:      state,
		lastActive: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) QuizID() int64 { return s.quizID }

// State returns the current engine state.
func (s *Session) State() engine.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive is the time of the last accepted transition, read or touch.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// touch records activity without changing state.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
}

func (s *Session) apply(now time.Time, fn func(engine.SessionState) (engine.SessionState, error)) (engine.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = next
	s.lastActive = now
	return next, nil
}
