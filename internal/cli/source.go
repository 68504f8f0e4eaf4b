package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	"quiz-session-service/internal/infra/postgres"
	"quiz-session-service/internal/infra/restapi"
)

// quizSource is a quiz loader that can also enumerate what it holds.
type quizSource interface {
	memory.QuizLoader
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// openQuizSource picks Postgres snapshots when configured, then the REST
// backend, then the built-in sample quizzes. The returned func releases
// any pool that was opened.
func openQuizSource(ctx context.Context, cfg config.Config) (quizSource, string, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, "", nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewQuizLoader(pool), "postgres", pool.Close, nil
	}
	if cfg.API.BaseURL != "" {
		return newQuizClient(cfg), "api", func() {}, nil
	}
	return memory.NewStaticQuizLoader(sampleQuizzes()), "static", func() {}, nil
}

func newQuizClient(cfg config.Config) *restapi.QuizClient {
	return restapi.NewQuizClient(cfg.API.BaseURL, cfg.API.Token, config.TTLDuration(cfg.API.Timeout, 10*time.Second))
}

// sampleQuizzes is served when no backend is configured.
func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		1: {
			ID:          1,
			Title:       "Go basics",
			Description: "A warm-up on the Go toolchain and language",
			Questions: []domain.Question{
				{ID: 1, Text: "Which keyword starts a goroutine?", Choices: []string{"async", "go", "spawn", "thread"}, CorrectIndex: 1},
				{ID: 2, Text: "What does len(nil map) return?", Choices: []string{"panic", "-1", "0"}, CorrectIndex: 2},
				{ID: 3, Text: "Which package holds Context?", Choices: []string{"context", "sync", "runtime"}, CorrectIndex: 0},
			},
		},
		2: {
			ID:          2,
			Title:       "Arithmetic",
			Description: "Quick sums",
			Questions: []domain.Question{
				{ID: 4, Text: "What is 2 + 2?", Choices: []string{"3", "4", "5"}, CorrectIndex: 1},
				{ID: 5, Text: "What is 7 * 6?", Choices: []string{"42", "36", "48"}, CorrectIndex: 0},
			},
		},
	}
}
