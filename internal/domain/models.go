package domain

import "time"

// Question models a multiple-choice prompt. CorrectIndex points into Choices.
type Question struct {
	ID           int64    `json:"id"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}

// Quiz is an ordered collection of questions. Question order is the display
// and indexing order.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatorID   int64      `json:"creatorId"`
	Questions   []Question `json:"questions"`
}

// Clone returns a deep copy of the quiz.
func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions == nil {
		return out
	}
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Choices = append([]string(nil), question.Choices...)
		out.Questions[i] = question
	}
	return out
}

// QuizSummary is the list view of a quiz.
type QuizSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

// QuestionView is a question as shown to the quiz taker. Correctness fields
// stay nil until the session is submitted.
type QuestionView struct {
	ID           int64    `json:"id"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices"`
	Selected     *int     `json:"selected,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Correct      *bool    `json:"correct,omitempty"`
}

// SessionView is the client-facing snapshot of a quiz attempt.
type SessionView struct {
	SessionID   string         `json:"sessionId"`
	QuizID      int64          `json:"quizId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatorID   int64          `json:"creatorId"`
	Questions   []QuestionView `json:"questions"`
	Answered    int            `json:"answered"`
	Total       int            `json:"total"`
	Submitted   bool           `json:"submitted"`
	Score       *int           `json:"score,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
}

// Result summarizes a submitted attempt.
type Result struct {
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
}
