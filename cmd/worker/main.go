package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/paydesk-hq/paydesk/internal/app"
	"github.com/paydesk-hq/paydesk/internal/audit"
	jobmetrics "github.com/paydesk-hq/paydesk/internal/jobs"
	"github.com/paydesk-hq/paydesk/internal/moneymoov"
	"github.com/paydesk-hq/paydesk/internal/platform/db"
	"github.com/paydesk-hq/paydesk/internal/shared"
	"github.com/paydesk-hq/paydesk/jobs"
)

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

	apiClient := moneymoov.NewClient(cfg.MoneyMoovBaseURL, cfg.MoneyMoovToken)
	auditRepo := audit.NewSQLRepository(pool)
	auditService := audit.NewService(auditRepo, logger)

	pruneTask, err := jobs.NewAuditPruneTask(cfg.AuditRetention)
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: jobs.Handlers{
			Logger:      logger,
			Submitter:   apiClient,
			Audit:       auditService,
			Pruner:      auditRepo,
			Metrics:     jobmetrics.NewMetrics(nil),
			Idempotency: shared.NewIdempotencyStore(pool),
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AuditPruneSchedule, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
