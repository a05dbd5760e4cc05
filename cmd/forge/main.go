package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/forge-erp/forge-erp/internal/app"
	"github.com/forge-erp/forge-erp/internal/costing"
	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
	"github.com/forge-erp/forge-erp/internal/ledger/budgets"
	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/reports"
	"github.com/forge-erp/forge-erp/internal/observability"
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idemStore := shared.NewIdempotencyStore(dbpool)
	locker := shared.NewLocker(redisClient, 30*time.Second)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)

	periodsRepo := periods.NewRepository(dbpool)
	periodsService := periods.NewService(periodsRepo, auditLogger, locker)

	journalsRepo := journals.NewRepository(dbpool)
	journalsService := journals.NewService(journalsRepo, auditLogger, reportCache)

	budgetsRepo := budgets.NewRepository(dbpool)
	budgetsService := budgets.NewService(budgetsRepo)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, reportCache)

	resolver := accounts.CodeResolver{Repo: accountsRepo}
	postingMap := journals.DefaultMovementPostingMap()
	if err := postingMap.Resolve(ctx, resolver); err != nil {
		logger.Error("resolve movement posting map", slog.Any("error", err))
		os.Exit(1)
	}

	costingRepo := costing.NewRepository(dbpool)
	costingService := costing.NewService(costingRepo, postingMap, idemStore, auditLogger, reportCache, cfg.AllowNegativeStock)

	inventoryAccount, err := accountsRepo.GetByCode(ctx, "1400")
	if err != nil {
		logger.Error("resolve inventory account", slog.Any("error", err))
		os.Exit(1)
	}
	inventoryBalance := app.NewInventoryBalance(reportsService, inventoryAccount.ID)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Metrics:  observability.NewMetrics(),
		Accounts: accounts.NewHandler(logger, accountsService),
		Journals: journals.NewHandler(logger, journalsService),
		Periods:  periods.NewHandler(logger, periodsService),
		Budgets:  budgets.NewHandler(logger, budgetsService),
		Reports:  reports.NewHandler(logger, reportsService),
		Costing:  costing.NewHandler(logger, costingService, inventoryBalance),
		Jobs:     jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
