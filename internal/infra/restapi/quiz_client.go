package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quiz-session-service/internal/domain"
)

// QuizClient reads quizzes from the quiz REST backend:
//
//	GET {base}/api/quizzes       -> [quiz...]
//	GET {base}/api/quizzes/{id}  -> quiz
type QuizClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewQuizClient(baseURL, token string, timeout time.Duration) *QuizClient {
	return &QuizClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoadQuiz fetches one quiz. A 404 maps to domain.ErrQuizNotFound.
func (c *QuizClient) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.get(ctx, "/api/quizzes/"+strconv.FormatInt(quizID, 10), &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %d: %w", quizID, err)
	}
	return quiz, nil
}

// ListQuizzes fetches every quiz and summarizes it.
func (c *QuizClient) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var quizzes []domain.Quiz
	if err := c.get(ctx, "/api/quizzes", &quizzes); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.QuizSummary, len(quizzes))
	for i, q := range quizzes {
		out[i] = domain.QuizSummary{
			ID:            q.ID,
			Title:         q.Title,
			Description:   q.Description,
			QuestionCount: len(q.Questions),
		}
	}
	return out, nil
}

func (c *QuizClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrQuizNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
