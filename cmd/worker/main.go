package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/commesse/internal/analytics"
	"github.com/odyssey-erp/commesse/internal/app"
	"github.com/odyssey-erp/commesse/internal/attachments"
	jobmetrics "github.com/odyssey-erp/commesse/internal/jobs"
	"github.com/odyssey-erp/commesse/internal/platform/cache"
	"github.com/odyssey-erp/commesse/internal/platform/db"
	"github.com/odyssey-erp/commesse/internal/shared"
	"github.com/odyssey-erp/commesse/internal/store"
	"github.com/odyssey-erp/commesse/jobs"
)

// metricsAddr is where the worker exposes its job metrics.
const metricsAddr = ":9091"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	go func() {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()

	st := store.New(pool)
	analyticsService := analytics.NewService(st, analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL), logger)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, st, logger, metrics)

	objectStorage, err := attachments.NewS3Storage(ctx, attachments.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		logger.Error("init object storage", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupJob := jobs.NewAttachmentsCleanupJob(attachments.NewService(objectStorage, cfg.SignedURLTTL, logger), logger, metrics)
	purgeJob := jobs.NewIdempotencyPurgeJob(shared.NewIdempotencyStore(pool), 0, logger, metrics)

	warmupTask, err := jobs.NewWarmupTask(nil)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskAttachmentsCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskIdempotencyPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: asynq.NewTask(jobs.TaskIdempotencyPurge, nil), Options: []asynq.Option{asynq.Queue(jobs.QueueMaintenance), asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
