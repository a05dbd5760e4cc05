package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/forge-erp/forge-erp/internal/app"
	"github.com/forge-erp/forge-erp/internal/costing"
	"github.com/forge-erp/forge-erp/internal/integration"
	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/reports"
	"github.com/forge-erp/forge-erp/internal/shared"
	"github.com/forge-erp/forge-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	auditLogger := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	accountsRepo := accounts.NewRepository(pool)
	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, auditLogger, reportCache)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reportCache)

	resolver := accounts.CodeResolver{Repo: accountsRepo}
	postingMap := journals.DefaultMovementPostingMap()
	if err := postingMap.Resolve(ctx, resolver); err != nil {
		logger.Error("resolve movement posting map", slog.Any("error", err))
		os.Exit(1)
	}

	accountMap := integration.DefaultAccountMap()
	if err := accountMap.Resolve(ctx, resolver); err != nil {
		logger.Error("resolve integration account map", slog.Any("error", err))
		os.Exit(1)
	}
	integrationService := integration.NewService(logger, journalsService, accountMap, integration.NewAssetRepository(pool))

	costingRepo := costing.NewRepository(pool)
	costingService := costing.NewService(costingRepo, postingMap, idemStore, auditLogger, reportCache, cfg.AllowNegativeStock)

	inventoryAccount, err := accountsRepo.GetByCode(ctx, "1400")
	if err != nil {
		logger.Error("resolve inventory account", slog.Any("error", err))
		os.Exit(1)
	}
	inventoryBalance := app.NewInventoryBalance(reportsService, inventoryAccount.ID)

	jobMetrics := jobs.NewMetrics(nil)

	depreciationTask, err := jobs.NewDepreciationTask(jobs.DepreciationPayload{})
	if err != nil {
		logger.Error("build depreciation task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   jobMetrics,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDepreciationRun, Handler: jobs.NewDepreciationHandler(logger, integrationService)},
			{Type: jobs.TaskInventoryReconcile, Handler: jobs.NewInventoryReconcileHandler(logger, costingService, inventoryBalance, jobMetrics)},
			{Type: jobs.TaskGLIntegrity, Handler: jobs.NewGLIntegrityHandler(logger, pool)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(logger, idemStore)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 1 * *", Task: depreciationTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: jobs.NewInventoryReconcileTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewGLIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 4 * * 0", Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
