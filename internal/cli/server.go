package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/config"
	"quiz-session-service/internal/infra/memory"
	redisinfra "quiz-session-service/internal/infra/redis"
	"quiz-session-service/internal/logging"
	"quiz-session-service/internal/metrics"
	transport "quiz-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServer(cmd.Context(), cfg, *port, logger)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, portFlag string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loader, sourceName, closeSource, err := openQuizSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	idleTTL := config.TTLDuration(cfg.Session.IdleTTL, 30*time.Minute)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var quizRepo app.QuizRepository
	var store app.SessionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		store = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, idleTTL))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
	}
	service := app.NewSessionService(store, quizRepo)

	metrics.Init()
	handler := buildHandler(cfg, service, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting quiz session service",
			zap.String("addr", server.Addr),
			zap.String("quizSource", sourceName),
			zap.Bool("redis", redisClient != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		reapIdle(ctx, service, idleTTL, config.TTLDuration(cfg.Session.ReapInterval, time.Minute), logger)
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func buildHandler(cfg config.Config, service *app.SessionService, logger *zap.Logger) http.Handler {
	messageRate := rate.Limit(cfg.Session.MessageRate)
	if cfg.Session.MessageRate <= 0 {
		messageRate = 20
	}
	burst := cfg.Session.MessageBurst
	if burst <= 0 {
		burst = 10
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	transport.NewRESTHandler(service, logger.Named("rest")).Register(mux)
	mux.HandleFunc("GET /ws", transport.NewWSHandler(service, logger.Named("ws"), messageRate, burst).ServeWS)
	return metrics.Middleware(mux)
}

func reapIdle(ctx context.Context, service *app.SessionService, idleTTL, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := service.ReapIdle(idleTTL); n > 0 {
				logger.Info("reaped idle sessions", zap.Int("count", n))
			}
		}
	}
}
