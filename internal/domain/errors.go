package domain

import "errors"

var (
	// ErrInvalidQuizData is returned when quiz content violates its structural invariants.
	ErrInvalidQuizData = errors.New("invalid quiz data")
	// ErrSessionLocked is returned when a submitted session receives another transition.
	ErrSessionLocked = errors.New("session already submitted")
	// ErrIndexOutOfRange indicates a question or choice index outside the quiz bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrQuestionLocked is returned when a practice question is answered twice.
	ErrQuestionLocked = errors.New("question already answered")
	// ErrSessionNotFound is returned when a quiz session does not exist or was discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
