package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/internal/cron"
	"github.com/ecomjrm/ecomjrm-backend/internal/retention"
	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/metrics"
	"github.com/ecomjrm/ecomjrm-backend/pkg/migrate"
	"github.com/ecomjrm/ecomjrm-backend/pkg/redis"
)

const lockKeyFormat = "jrm:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	archiveCfg := chatarchive.Config{
		DefaultRetentionDays:    cfg.Archive.DefaultRetentionDays,
		BatchSize:               cfg.Archive.BatchSize,
		MaxBatchIDs:             cfg.Archive.MaxBatchIDs,
		AutoArchiveInactiveDays: cfg.Archive.AutoArchiveInactiveDays,
		AutoArchiveLimit:        cfg.Archive.AutoArchiveLimit,
		PurgeLimit:              cfg.Archive.PurgeLimit,
	}
	chatService, err := chatarchive.NewService(chatarchive.NewRepository(dbClient.DB()), dbClient, archiveCfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat archive service", err)
		os.Exit(1)
	}

	retentionService, err := retention.NewService(chatService, nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create retention service", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewRetentionPolicyJob(cron.RetentionPolicyJobParams{
		Logger:    logg,
		Retention: retentionService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retention policy job", err)
		os.Exit(1)
	}

	autoArchiveJob, err := cron.NewChatAutoArchiveJob(cron.ChatAutoArchiveJobParams{
		Logger:  logg,
		Archive: chatService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat auto-archive job", err)
		os.Exit(1)
	}

	purgeJob, err := cron.NewChatPurgeJob(cron.ChatPurgeJobParams{
		Logger:  logg,
		Archive: chatService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat purge job", err)
		os.Exit(1)
	}

	auditJob, err := cron.NewAuditCleanupJob(cron.AuditCleanupJobParams{
		Logger:     logg,
		Repository: audit.NewRepository(dbClient.DB()),
		Retention:  cfg.Retention.AuditLogDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(retentionJob, autoArchiveJob, purgeJob, auditJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Retention.CronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
