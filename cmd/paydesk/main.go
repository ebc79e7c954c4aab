package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/paydesk-hq/paydesk/internal/app"
	"github.com/paydesk-hq/paydesk/internal/audit"
	audithttp "github.com/paydesk-hq/paydesk/internal/audit/http"
	"github.com/paydesk-hq/paydesk/internal/capability"
	"github.com/paydesk-hq/paydesk/internal/moneymoov"
	"github.com/paydesk-hq/paydesk/internal/observability"
	"github.com/paydesk-hq/paydesk/internal/payrun"
	"github.com/paydesk-hq/paydesk/internal/platform/cache"
	"github.com/paydesk-hq/paydesk/internal/platform/db"
	"github.com/paydesk-hq/paydesk/internal/prefs"
	"github.com/paydesk-hq/paydesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	apiClient := moneymoov.NewClient(cfg.MoneyMoovBaseURL, cfg.MoneyMoovToken)
	sessionStore := payrun.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	dispatcher := jobs.NewDispatcher(queueClient)
	composer := payrun.Composer{HorizonDays: cfg.PayrunHorizonDays}
	payrunService := payrun.NewService(apiClient, sessionStore, dispatcher, composer, logger)
	payrunHandler := payrun.NewHandler(logger, payrunService)

	auditRepo := audit.NewSQLRepository(dbpool)
	auditService := audit.NewService(auditRepo, logger)
	auditHandler := audithttp.NewHandler(logger, auditService)

	prefsStore := prefs.NewRedisStore(redisClient, 0)
	prefsHandler := prefs.NewHandler(logger, prefsStore)

	caps := capability.Middleware{Table: capability.DefaultTable()}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()
	payrunService.SetSessionGauge(metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Capability:    caps,
		PayrunHandler: payrunHandler,
		AuditHandler:  auditHandler,
		PrefsHandler:  prefsHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
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
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
