package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/engine"
)

// NewTakeCmd runs a quiz attempt in the terminal.
func NewTakeCmd(configPath *string) *cobra.Command {
	var (
		quizID   int64
		practice bool
	)
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a quiz in the terminal",
		Long: "Take a quiz in the terminal. Answers are entered as choice numbers; a blank line skips the question.\n" +
			"With --practice every answer is judged immediately and cannot be changed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			source, _, closeSource, err := openQuizSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSource()

			quiz, err := source.LoadQuiz(cmd.Context(), quizID)
			if err != nil {
				return err
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			if practice {
				return runPractice(quiz, in, out)
			}
			return runAttempt(quiz, in, out)
		},
	}
	cmd.Flags().Int64Var(&quizID, "quiz", 0, "quiz ID to take")
	cmd.Flags().BoolVar(&practice, "practice", false, "judge each answer immediately")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func runAttempt(quiz domain.Quiz, in *bufio.Scanner, out io.Writer) error {
	state, err := engine.LoadSession(quiz)
	if err != nil {
		return err
	}
	printHeader(out, quiz)

	for i, q := range quiz.Questions {
		printQuestion(out, i, len(quiz.Questions), q)
		choice, ok, err := readChoice(in, out, len(q.Choices))
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if state, err = engine.SelectAnswer(state, i, choice); err != nil {
			return err
		}
	}

	if state, err = engine.Submit(state); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nYou scored %d / %d\n\n", state.Score(), state.Total())

	for i, q := range quiz.Questions {
		correct, _ := state.IsCorrect(i)
		mark := "x"
		if correct {
			mark = "ok"
		}
		given := "skipped"
		if choice, answered := state.Answer(i); answered {
			given = q.Choices[choice]
		}
		fmt.Fprintf(out, "[%s] %d. %s\n     your answer: %s\n     correct: %s\n",
			mark, i+1, q.Text, given, q.Choices[q.CorrectIndex])
	}
	return nil
}

func runPractice(quiz domain.Quiz, in *bufio.Scanner, out io.Writer) error {
	attempt, err := engine.StartPractice(quiz)
	if err != nil {
		return err
	}
	printHeader(out, quiz)

	for i, q := range quiz.Questions {
		printQuestion(out, i, len(quiz.Questions), q)
		choice, ok, err := readChoice(in, out, len(q.Choices))
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		next, correct, err := attempt.Answer(i, choice)
		if err != nil {
			return err
		}
		attempt = next
		if correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong! The answer is %d. %s\n", q.CorrectIndex+1, q.Choices[q.CorrectIndex])
		}
	}

	fmt.Fprintf(out, "\nPractice finished: %d / %d correct\n", attempt.Correct(), len(quiz.Questions))
	return nil
}

func printHeader(out io.Writer, quiz domain.Quiz) {
	fmt.Fprintln(out, quiz.Title)
	if quiz.Description != "" {
		fmt.Fprintln(out, quiz.Description)
	}
}

func printQuestion(out io.Writer, index, total int, q domain.Question) {
	fmt.Fprintf(out, "\nQuestion %d of %d: %s\n", index+1, total, q.Text)
	for i, choice := range q.Choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, choice)
	}
}

// readChoice prompts until it gets a choice number in [1, n] or a blank line.
// It returns a zero-based index; ok is false when the question was skipped.
func readChoice(in *bufio.Scanner, out io.Writer, n int) (choice int, ok bool, err error) {
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return 0, false, err
			}
			return 0, false, io.EOF
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			return 0, false, nil
		}
		v, convErr := strconv.Atoi(line)
		if convErr != nil || v < 1 || v > n {
			fmt.Fprintf(out, "enter a number from 1 to %d, or leave blank to skip\n", n)
			continue
		}
		return v - 1, true, nil
	}
}
