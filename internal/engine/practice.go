package engine

import (
	"fmt"

	"quiz-session-service/internal/domain"
)

// Practice is an instant-feedback attempt: each answer is judged immediately
// and its question cannot be answered again.
type Practice struct {
	quiz    domain.Quiz
	answers map[int]int
}

// StartPractice validates the quiz and returns an attempt with no answers.
func StartPractice(quiz domain.Quiz) (Practice, error) {
	if err := Validate(quiz); err != nil {
		return Practice{}, err
	}
	return Practice{quiz: quiz.Clone(), answers: make(map[int]int)}, nil
}

// Answer judges choiceIndex for questionIndex. A second answer to the same
// question fails with ErrQuestionLocked and returns p unchanged.
func (p Practice) Answer(questionIndex, choiceIndex int) (Practice, bool, error) {
	if questionIndex < 0 || questionIndex >= len(p.quiz.Questions) {
		return p, false, fmt.Errorf("%w: question %d of %d", domain.ErrIndexOutOfRange, questionIndex, len(p.quiz.Questions))
	}
	if _, done := p.answers[questionIndex]; done {
		return p, false, domain.ErrQuestionLocked
	}
	question := p.quiz.Questions[questionIndex]
	if choiceIndex < 0 || choiceIndex >= len(question.Choices) {
		return p, false, fmt.Errorf("%w: choice %d of %d for question %d", domain.ErrIndexOutOfRange, choiceIndex, len(question.Choices), questionIndex)
	}

	next := Practice{quiz: p.quiz, answers: copyAnswers(p.answers)}
	next.answers[questionIndex] = choiceIndex
	return next, choiceIndex == question.CorrectIndex, nil
}

// Correct counts the questions answered correctly so far.
func (p Practice) Correct() int {
	n := 0
	for i, choice := range p.answers {
		if p.quiz.Questions[i].CorrectIndex == choice {
			n++
		}
	}
	return n
}

func (p Practice) Answered() int { return len(p.answers) }
