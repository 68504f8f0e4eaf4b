package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-session-service/internal/domain"
)

type quizSnapshot struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        int64           `bun:"id,pk"`
	Title     string          `bun:"title"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at"`
}

// OpenBun opens a bun handle on the given Postgres DSN.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// SnapshotStore writes quiz snapshots fetched from the REST backend.
type SnapshotStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewSnapshotStore(db *bun.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

// Save upserts the quiz under its ID.
func (s *SnapshotStore) Save(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	row := &quizSnapshot{
		ID:        quiz.ID,
		Title:     quiz.Title,
		Data:      data,
		UpdatedAt: s.now(),
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save quiz %d: %w", quiz.ID, err)
	}
	return nil
}

// Delete removes a snapshot; missing rows are not an error.
func (s *SnapshotStore) Delete(ctx context.Context, quizID int64) error {
	_, err := s.db.NewDelete().
		Model((*quizSnapshot)(nil)).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz %d: %w", quizID, err)
	}
	return nil
}
