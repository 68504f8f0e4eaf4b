package migrations

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quizzes.sql
var createQuizzesSQL string

// Migrations holds the schema for quiz snapshots; run it with bun's migrator.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(createQuizSnapshots, dropQuizSnapshots)
}

func createQuizSnapshots(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, createQuizzesSQL); err != nil {
		return fmt.Errorf("create quizzes: %w", err)
	}
	return nil
}

func dropQuizSnapshots(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS quizzes`); err != nil {
		return fmt.Errorf("drop quizzes: %w", err)
	}
	return nil
}
