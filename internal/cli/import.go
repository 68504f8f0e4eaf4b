package cli

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/engine"
	"quiz-session-service/internal/infra/postgres"
	redisinfra "quiz-session-service/internal/infra/redis"
	"quiz-session-service/internal/logging"
)

// NewImportCmd copies quizzes from the REST backend into Postgres snapshots.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		quizIDs []int64
		remove  bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Snapshot quizzes from the REST backend into Postgres",
		Long:  "Snapshot quizzes from the REST backend into Postgres. With --remove the listed snapshots are deleted instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.API.BaseURL == "" && !remove {
				return fmt.Errorf("api baseURL not configured")
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			snapshots := postgres.NewSnapshotStore(db)
			client := newQuizClient(cfg)

			var cache *redisinfra.QuizRepository
			if cfg.Redis.Addr != "" {
				redisClient := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer redisClient.Close()
				cache = redisinfra.NewQuizRepository(redisClient, client, 0)
			}
			invalidate := func(id int64) {
				if cache == nil {
					return
				}
				if err := cache.Invalidate(ctx, id); err != nil {
					logger.Warn("cache invalidation failed", zap.Int64("quiz", id), zap.Error(err))
				}
			}

			for _, id := range quizIDs {
				if remove {
					if err := snapshots.Delete(ctx, id); err != nil {
						return err
					}
					invalidate(id)
					logger.Info("quiz snapshot removed", zap.Int64("quiz", id))
					fmt.Fprintf(cmd.OutOrStdout(), "removed quiz %d\n", id)
					continue
				}

				quiz, err := client.LoadQuiz(ctx, id)
				if err != nil {
					return err
				}
				if err := engine.Validate(quiz); err != nil {
					return fmt.Errorf("quiz %d: %w", id, err)
				}
				if err := snapshots.Save(ctx, quiz); err != nil {
					return err
				}
				invalidate(id)
				logger.Info("quiz imported", zap.Int64("quiz", id), zap.Int("questions", len(quiz.Questions)))
				fmt.Fprintf(cmd.OutOrStdout(), "imported quiz %d: %s\n", quiz.ID, quiz.Title)
			}
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&quizIDs, "quiz", nil, "quiz IDs to import (repeatable)")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the snapshots instead of importing them")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
