package engine

import (
	"errors"
	"reflect"
	"testing"

	"quiz-session-service/internal/domain"
)

func TestLoadSessionStartsOpen(t *testing.T) {
	state, err := LoadSession(sampleQuiz())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Submitted() {
		t.Fatalf("expected open session")
	}
	if state.Answered() != 0 || len(state.Answers()) != 0 {
		t.Fatalf("expected no answers, got %v", state.Answers())
	}
	if state.Score() != 0 {
		t.Fatalf("expected zero score, got %d", state.Score())
	}
	if state.Total() != 3 {
		t.Fatalf("expected 3 questions, got %d", state.Total())
	}
}

func TestLoadSessionRejectsInvalidQuiz(t *testing.T) {
	empty := sampleQuiz()
	empty.Questions[1].Choices = nil
	if _, err := LoadSession(empty); !errors.Is(err, domain.ErrInvalidQuizData) {
		t.Fatalf("expected invalid quiz data for empty choices, got %v", err)
	}

	tooHigh := sampleQuiz()
	tooHigh.Questions[2].CorrectIndex = 4
	if _, err := LoadSession(tooHigh); !errors.Is(err, domain.ErrInvalidQuizData) {
		t.Fatalf("expected invalid quiz data for correct index 4, got %v", err)
	}

	negative := sampleQuiz()
	negative.Questions[0].CorrectIndex = -1
	if _, err := LoadSession(negative); !errors.Is(err, domain.ErrInvalidQuizData) {
		t.Fatalf("expected invalid quiz data for negative index, got %v", err)
	}
}

func TestLoadSessionCopiesQuiz(t *testing.T) {
	quiz := sampleQuiz()
	state, err := LoadSession(quiz)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	quiz.Questions[0].CorrectIndex = 3
	quiz.Questions[0].Choices[0] = "mutated"

	state, _ = SelectAnswer(state, 0, 1)
	state, _ = Submit(state)
	if state.Score() != 1 {
		t.Fatalf("expected caller mutation to be ignored, score %d", state.Score())
	}
	if state.Quiz().Questions[0].Choices[0] != "a" {
		t.Fatalf("expected loaded choices untouched, got %v", state.Quiz().Questions[0].Choices)
	}
}

func TestScoreCountsOnlyCorrectAnswers(t *testing.T) {
	state := mustLoad(t)

	state = mustSelect(t, state, 0, 1)
	state = mustSelect(t, state, 1, 3)

	state, err := Submit(state)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !state.Submitted() {
		t.Fatalf("expected submitted")
	}
	if state.Score() != 1 {
		t.Fatalf("expected score 1, got %d", state.Score())
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	state := mustLoad(t)
	state = mustSelect(t, state, 0, 2)
	state = mustSelect(t, state, 0, 1)
	state = mustSelect(t, state, 2, 0)
	state = mustSelect(t, state, 2, 0)

	want := map[int]int{0: 1, 2: 0}
	if got := state.Answers(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if state.Submitted() || state.Score() != 0 {
		t.Fatalf("expected select to leave submission untouched")
	}
}

func TestSelectAnswerDoesNotMutateInput(t *testing.T) {
	before := mustSelect(t, mustLoad(t), 0, 2)
	snapshot := before.Answers()

	after := mustSelect(t, before, 0, 1)

	if !reflect.DeepEqual(before.Answers(), snapshot) {
		t.Fatalf("expected prior state unchanged, got %v", before.Answers())
	}
	if choice, _ := after.Answer(0); choice != 1 {
		t.Fatalf("expected new state to carry choice 1, got %d", choice)
	}
}

func TestSelectAnswerOutOfRange(t *testing.T) {
	state := mustLoad(t)

	cases := []struct {
		name             string
		question, choice int
	}{
		{"question past end", 5, 0},
		{"negative question", -1, 0},
		{"choice past end", 0, 4},
		{"negative choice", 1, -1},
	}
	for _, tc := range cases {
		got, err := SelectAnswer(state, tc.question, tc.choice)
		if !errors.Is(err, domain.ErrIndexOutOfRange) {
			t.Fatalf("%s: expected index out of range, got %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, state) {
			t.Fatalf("%s: expected state unchanged", tc.name)
		}
	}
}

func TestSubmitTwiceIsLocked(t *testing.T) {
	state := mustSelect(t, mustLoad(t), 0, 1)

	submitted, err := Submit(state)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	again, err := Submit(submitted)
	if !errors.Is(err, domain.ErrSessionLocked) {
		t.Fatalf("expected session locked, got %v", err)
	}
	if again.Score() != 1 || !reflect.DeepEqual(again, submitted) {
		t.Fatalf("expected first score preserved, got %d", again.Score())
	}
}

func TestSelectAfterSubmitIsLocked(t *testing.T) {
	submitted, err := Submit(mustSelect(t, mustLoad(t), 0, 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, idx := range [][2]int{{0, 0}, {1, 0}, {99, 99}} {
		got, err := SelectAnswer(submitted, idx[0], idx[1])
		if !errors.Is(err, domain.ErrSessionLocked) {
			t.Fatalf("select %v: expected session locked, got %v", idx, err)
		}
		if !reflect.DeepEqual(got, submitted) {
			t.Fatalf("select %v: expected state unchanged", idx)
		}
	}
	if submitted.Score() != 1 || !reflect.DeepEqual(submitted.Answers(), map[int]int{0: 1}) {
		t.Fatalf("expected answers and score unchanged, got %v / %d", submitted.Answers(), submitted.Score())
	}
}

func TestIsCorrect(t *testing.T) {
	state := mustSelect(t, mustSelect(t, mustLoad(t), 0, 1), 1, 3)

	if _, determined := state.IsCorrect(0); determined {
		t.Fatalf("expected verdict undetermined before submit")
	}

	state, err := Submit(state)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	expect := []bool{true, false, false}
	for i, want := range expect {
		correct, determined := state.IsCorrect(i)
		if !determined {
			t.Fatalf("question %d: expected determined verdict", i)
		}
		if correct != want {
			t.Fatalf("question %d: expected correct=%v, got %v", i, want, correct)
		}
	}
	if _, determined := state.IsCorrect(7); determined {
		t.Fatalf("expected out-of-range verdict undetermined")
	}
}

func TestScoreMatchesAnswerKey(t *testing.T) {
	quiz := sampleQuiz()
	selections := [][]int{
		{},
		{1, 0, 2},
		{0, 1, 3},
		{1, 1, 2},
		{-1, 0, -1},
	}
	for _, sel := range selections {
		state := mustLoad(t)
		want := 0
		for q, c := range sel {
			if c < 0 {
				continue
			}
			state = mustSelect(t, state, q, c)
			if quiz.Questions[q].CorrectIndex == c {
				want++
			}
		}
		state, err := Submit(state)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if state.Score() != want {
			t.Fatalf("selection %v: expected score %d, got %d", sel, want, state.Score())
		}
	}
}

func TestEmptyQuizSubmitsWithZeroScore(t *testing.T) {
	state, err := LoadSession(domain.Quiz{ID: 9})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	state, err = Submit(state)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Score() != 0 || state.Total() != 0 {
		t.Fatalf("expected 0/0, got %d/%d", state.Score(), state.Total())
	}
}

func mustLoad(t *testing.T) SessionState {
	t.Helper()
	state, err := LoadSession(sampleQuiz())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return state
}

func mustSelect(t *testing.T, state SessionState, question, choice int) SessionState {
	t.Helper()
	next, err := SelectAnswer(state, question, choice)
	if err != nil {
		t.Fatalf("select (%d,%d): %v", question, choice, err)
	}
	return next
}

func sampleQuiz() domain.Quiz {
	choices := func() []string { return []string{"a", "b", "c", "d"} }
	return domain.Quiz{
		ID:          1,
		Title:       "Basics",
		Description: "Warm-up questions",
		CreatorID:   42,
		Questions: []domain.Question{
			{ID: 11, Text: "first", Choices: choices(), CorrectIndex: 1},
			{ID: 12, Text: "second", Choices: choices(), CorrectIndex: 0},
			{ID: 13, Text: "third", Choices: choices(), CorrectIndex: 2},
		},
	}
}
