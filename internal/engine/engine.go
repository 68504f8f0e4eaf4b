// Package engine holds the quiz-taking state machine. Every function is pure:
// transitions return a new SessionState and never modify their input.
package engine

import (
	"fmt"

	"quiz-session-service/internal/domain"
)

// SessionState is one attempt at a quiz. The zero value is an attempt at an
// empty quiz; use LoadSession to build a real one.
type SessionState struct {
	quiz      domain.Quiz
	answers   map[int]int
	submitted bool
	score     int
}

// Validate checks that every question has choices and a correct index
// pointing into them.
func Validate(quiz domain.Quiz) error {
	for i, q := range quiz.Questions {
		if len(q.Choices) == 0 {
			return fmt.Errorf("%w: question %d has no choices", domain.ErrInvalidQuizData, i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
			return fmt.Errorf("%w: question %d correct index %d outside %d choices",
				domain.ErrInvalidQuizData, i, q.CorrectIndex, len(q.Choices))
		}
	}
	return nil
}

// LoadSession starts an open attempt with no answers.
func LoadSession(quiz domain.Quiz) (SessionState, error) {
	if err := Validate(quiz); err != nil {
		return SessionState{}, err
	}
	return SessionState{
		quiz:    quiz.Clone(),
		answers: make(map[int]int),
	}, nil
}

// SelectAnswer records choiceIndex for questionIndex, replacing any earlier
// selection. A submitted state always yields ErrSessionLocked. On error the
// input state is returned unchanged.
func SelectAnswer(state SessionState, questionIndex, choiceIndex int) (SessionState, error) {
	if state.submitted {
		return state, domain.ErrSessionLocked
	}
	if questionIndex < 0 || questionIndex >= len(state.quiz.Questions) {
		return state, fmt.Errorf("%w: question %d of %d", domain.ErrIndexOutOfRange, questionIndex, len(state.quiz.Questions))
	}
	choices := state.quiz.Questions[questionIndex].Choices
	if choiceIndex < 0 || choiceIndex >= len(choices) {
		return state, fmt.Errorf("%w: choice %d of %d for question %d", domain.ErrIndexOutOfRange, choiceIndex, len(choices), questionIndex)
	}

	next := state
	next.answers = copyAnswers(state.answers)
	next.answers[questionIndex] = choiceIndex
	return next, nil
}

// Submit locks the attempt and fixes its score. Unanswered questions count
// as wrong.
func Submit(state SessionState) (SessionState, error) {
	if state.submitted {
		return state, domain.ErrSessionLocked
	}

	score := 0
	for i, q := range state.quiz.Questions {
		if selected, ok := state.answers[i]; ok && selected == q.CorrectIndex {
			score++
		}
	}

	next := state
	next.answers = copyAnswers(state.answers)
	next.submitted = true
	next.score = score
	return next, nil
}

// IsCorrect reports whether the question was answered correctly. determined
// is false until the attempt is submitted, and for indexes outside the quiz.
func (s SessionState) IsCorrect(questionIndex int) (correct, determined bool) {
	if !s.submitted || questionIndex < 0 || questionIndex >= len(s.quiz.Questions) {
		return false, false
	}
	selected, ok := s.answers[questionIndex]
	return ok && selected == s.quiz.Questions[questionIndex].CorrectIndex, true
}

// Quiz returns a copy of the quiz being taken.
func (s SessionState) Quiz() domain.Quiz {
	return s.quiz.Clone()
}

// Answer returns the selected choice for a question, if any.
func (s SessionState) Answer(questionIndex int) (int, bool) {
	choice, ok := s.answers[questionIndex]
	return choice, ok
}

// Answers returns a copy of the question-index to choice-index mapping.
func (s SessionState) Answers() map[int]int {
	return copyAnswers(s.answers)
}

func (s SessionState) Submitted() bool { return s.submitted }

// Score is meaningful only once Submitted is true.
func (s SessionState) Score() int { return s.score }

func (s SessionState) Total() int { return len(s.quiz.Questions) }

func (s SessionState) Answered() int { return len(s.answers) }

func copyAnswers(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
