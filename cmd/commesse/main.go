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
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/commesse/cmd/commesse/cli"
	"github.com/odyssey-erp/commesse/internal/analytics"
	"github.com/odyssey-erp/commesse/internal/analytics/export"
	analytichttp "github.com/odyssey-erp/commesse/internal/analytics/http"
	"github.com/odyssey-erp/commesse/internal/app"
	"github.com/odyssey-erp/commesse/internal/attachments"
	"github.com/odyssey-erp/commesse/internal/auth"
	"github.com/odyssey-erp/commesse/internal/expenses"
	"github.com/odyssey-erp/commesse/internal/observability"
	"github.com/odyssey-erp/commesse/internal/platform/cache"
	"github.com/odyssey-erp/commesse/internal/platform/db"
	"github.com/odyssey-erp/commesse/internal/records"
	"github.com/odyssey-erp/commesse/internal/shared"
	"github.com/odyssey-erp/commesse/internal/store"
	"github.com/odyssey-erp/commesse/jobs"
	"github.com/odyssey-erp/commesse/report"
)

const jobsUsage = "usage: commesse jobs [trigger NAME [TENANT]|stats]"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobs(cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping, reports will be built uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	st := store.New(dbpool)
	metrics := observability.NewMetrics()

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	analyticsService := analytics.NewService(st, analyticsCache, logger)
	err = analyticsCache.ListenForInvalidation(ctx, func(tenantID uuid.UUID, version int64) {
		logger.Debug("analytics version bumped", slog.String("tenant_id", tenantID.String()), slog.Int64("version", version))
	})
	if err != nil {
		logger.Warn("analytics invalidation listener", slog.Any("error", err))
	}

	gotenberg := report.NewClient(cfg.GotenbergURL)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, export.NewPDFExporter(gotenberg), cfg.ExportRateLimit)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	authService := auth.NewService(verifier, auth.NewRepository(dbpool))
	authMiddleware := auth.Middleware{Auth: authService, Logger: logger}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	recordsService := records.NewService(st, logger,
		records.WithInvalidator(analyticsService),
		records.WithAuditor(shared.NewAuditLogger(dbpool)),
		records.WithCleanup(jobClient),
	)
	expensesService := expenses.NewService(st, analyticsService, shared.NewApprovalRecorder(dbpool, logger), logger)

	objectStorage, err := attachments.NewS3Storage(ctx, attachments.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Auth:               authMiddleware,
		AuthHandler:        auth.NewHandler(logger, authService),
		AnalyticsHandler:   analyticsHandler,
		ExpensesHandler:    expenses.NewHandler(logger, expensesService),
		RecordsHandler:     records.NewHandler(logger, recordsService, shared.NewIdempotencyStore(dbpool)),
		AttachmentsHandler: attachments.NewHandler(logger, attachments.NewService(objectStorage, cfg.SignedURLTTL, logger)),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
		ReadyChecks: map[string]app.Pinger{
			"postgres":  app.PingFunc(dbpool.Ping),
			"redis":     app.PingFunc(func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }),
			"gotenberg": gotenberg,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runJobs(cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return errors.New(jobsUsage)
	}
	c := cli.NewJobsCLI(cfg.RedisAddr)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New(jobsUsage)
		}
		tenant := ""
		if len(args) > 2 {
			tenant = args[2]
		}
		info, err := c.Trigger(ctx, args[1], tenant)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	default:
		return errors.New(jobsUsage)
	}
	return nil
}
