// Command server starts the answer evaluator HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/gradeworks/answer-evaluator/internal/adapter/ai/openai"
	"github.com/gradeworks/answer-evaluator/internal/adapter/cache"
	"github.com/gradeworks/answer-evaluator/internal/adapter/events"
	httpserver "github.com/gradeworks/answer-evaluator/internal/adapter/httpserver"
	"github.com/gradeworks/answer-evaluator/internal/adapter/observability"
	"github.com/gradeworks/answer-evaluator/internal/adapter/repo/postgres"
	"github.com/gradeworks/answer-evaluator/internal/app"
	"github.com/gradeworks/answer-evaluator/internal/config"
	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/scoring"
	"github.com/gradeworks/answer-evaluator/internal/usecase"
)

// redisAdapter narrows *redis.Client to the readiness interface.
type redisAdapter struct{ *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult {
	return r.Client.Ping(ctx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	qRepo := postgres.NewQuestionRepo(pool)
	eRepo := postgres.NewEvaluationRepo(pool)

	// Optional question cache
	var qCache domain.QuestionCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		qCache = cache.NewQuestionCache(rdb, cfg.QuestionCacheTTL)
		slog.Info("question cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	// Optional remote grader
	var remote domain.RemoteGrader
	if cfg.RemoteGraderEnabled() {
		remote = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GraderModel, cfg.GraderMaxPromptTokens)
		slog.Info("remote grader enabled", slog.String("model", cfg.GraderModel))
	}

	// Optional completion events
	var publisher domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.EvaluationTopic)
		if err != nil {
			slog.Error("kafka producer connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
		slog.Info("evaluation events enabled", slog.String("topic", cfg.EvaluationTopic))
	}

	questionSvc := usecase.NewQuestionService(qRepo, qCache)
	evalSvc := usecase.NewEvaluateService(questionSvc, eRepo, remote, publisher, scoring.NewPolicy(nil), cfg.GraderTimeout)
	reviewSvc := usecase.NewReviewService(eRepo)

	if cfg.QuestionSeedFile != "" {
		if err := seedQuestions(ctx, questionSvc, cfg.QuestionSeedFile); err != nil {
			slog.Error("question seeding failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var redisCheck app.RedisClient
	if rdb != nil {
		redisCheck = redisAdapter{rdb}
	}
	dbCheck, rdbCheck := app.BuildReadinessChecks(pool, redisCheck)
	if rdb == nil {
		rdbCheck = nil
	}

	srv := httpserver.NewServer(cfg, questionSvc, evalSvc, reviewSvc, dbCheck, rdbCheck)
	handler := app.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
