package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/engine"
	"quiz-session-service/internal/metrics"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Touch(sessionID string)
	Delete(sessionID string) bool
	DeleteIdle(before time.Time) int
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// SessionService contains the quiz-taking use cases.
type SessionService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	now      func() time.Time
	newID    func() string
}

func NewSessionService(store SessionRepository, quizzes QuizRepository) *SessionService {
	return NewSessionServiceWithClock(store, quizzes, time.Now)
}

// NewSessionServiceWithClock is test-only for deterministic timestamps.
func NewSessionServiceWithClock(store SessionRepository, quizzes QuizRepository, now func() time.Time) *SessionService {
	return &SessionService{
		sessions: store,
		quizzes:  quizzes,
		now:      now,
		newID:    uuid.NewString,
	}
}

// Start loads a quiz and opens a fresh attempt at it.
func (s *SessionService) Start(ctx context.Context, quizID int64) (domain.SessionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionView{}, err
	}

	state, err := engine.LoadSession(quiz)
	if err != nil {
		recordRejection(err)
		return domain.SessionView{}, fmt.Errorf("quiz %d: %w", quizID, err)
	}

	session := NewSession(s.newID(), quizID, state, s.now())
	s.sessions.Put(session)
	metrics.SessionsStarted.Inc()
	metrics.SessionsActive.Inc()

	return buildView(session.ID(), session.startedAt, state), nil
}

// Get returns the current view of a session. Reading counts as activity.
func (s *SessionService) Get(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	s.markActive(session)
	return buildView(session.ID(), session.startedAt, session.State()), nil
}

// Touch keeps a session from being reaped while its owner is still around.
func (s *SessionService) Touch(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.markActive(session)
	return nil
}

func (s *SessionService) markActive(session *Session) {
	session.touch(s.now())
	s.sessions.Touch(session.ID())
}

// SelectAnswer records a choice for a question of an open session.
func (s *SessionService) SelectAnswer(_ context.Context, sessionID string, questionIndex, choiceIndex int) (domain.SessionView, error) {
	return s.transition(sessionID, func(state engine.SessionState) (engine.SessionState, error) {
		return engine.SelectAnswer(state, questionIndex, choiceIndex)
	})
}

// Submit scores and locks a session.
func (s *SessionService) Submit(_ context.Context, sessionID string) (domain.SessionView, error) {
	view, err := s.transition(sessionID, engine.Submit)
	if err != nil {
		return view, err
	}
	metrics.SessionsSubmitted.Inc()
	if view.Total > 0 && view.Score != nil {
		metrics.ScoreRatio.Observe(float64(*view.Score) / float64(view.Total))
	}
	return view, nil
}

// Discard drops a session, e.g. when its owner navigates away.
func (s *SessionService) Discard(_ context.Context, sessionID string) {
	if s.sessions.Delete(sessionID) {
		metrics.SessionsActive.Dec()
	}
}

// ReapIdle discards sessions untouched for longer than maxIdle and reports how many went.
func (s *SessionService) ReapIdle(maxIdle time.Duration) int {
	n := s.sessions.DeleteIdle(s.now().Add(-maxIdle))
	metrics.SessionsActive.Sub(float64(n))
	return n
}

// transition applies fn under the session lock; the stored state is only
// replaced when fn succeeds.
func (s *SessionService) transition(sessionID string, fn func(engine.SessionState) (engine.SessionState, error)) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}

	state, err := session.apply(s.now(), fn)
	view := buildView(session.ID(), session.startedAt, state)
	if err != nil {
		recordRejection(err)
		return view, err
	}
	s.sessions.Touch(sessionID)
	return view, nil
}

func recordRejection(err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrSessionLocked):
		reason = "session_locked"
	case errors.Is(err, domain.ErrIndexOutOfRange):
		reason = "index_out_of_range"
	case errors.Is(err, domain.ErrInvalidQuizData):
		reason = "invalid_quiz_data"
	}
	metrics.RejectedTransitions.WithLabelValues(reason).Inc()
}

// buildView hides the answer key until the session is submitted.
func buildView(sessionID string, startedAt time.Time, state engine.SessionState) domain.SessionView {
	quiz := state.Quiz()
	view := domain.SessionView{
		SessionID:   sessionID,
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		CreatorID:   quiz.CreatorID,
		Questions:   make([]domain.QuestionView, len(quiz.Questions)),
		Answered:    state.Answered(),
		Total:       state.Total(),
		Submitted:   state.Submitted(),
		StartedAt:   startedAt,
	}

	for i, q := range quiz.Questions {
		qv := domain.QuestionView{ID: q.ID, Text: q.Text, Choices: q.Choices}
		if choice, ok := state.Answer(i); ok {
			qv.Selected = &choice
		}
		if correct, determined := state.IsCorrect(i); determined {
			correctIndex := q.CorrectIndex
			qv.CorrectIndex = &correctIndex
			qv.Correct = &correct
		}
		view.Questions[i] = qv
	}

	if state.Submitted() {
		score := state.Score()
		view.Score = &score
	}
	return view
}
