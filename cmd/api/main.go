package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ecomjrm/ecomjrm-backend/api/routes"
	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/internal/auth"
	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/internal/customers"
	"github.com/ecomjrm/ecomjrm-backend/internal/dashboard"
	"github.com/ecomjrm/ecomjrm-backend/internal/discounts"
	"github.com/ecomjrm/ecomjrm-backend/internal/media"
	"github.com/ecomjrm/ecomjrm-backend/internal/orders"
	"github.com/ecomjrm/ecomjrm-backend/internal/products"
	"github.com/ecomjrm/ecomjrm-backend/internal/retention"
	"github.com/ecomjrm/ecomjrm-backend/internal/shipping"
	"github.com/ecomjrm/ecomjrm-backend/internal/telegram"
	"github.com/ecomjrm/ecomjrm-backend/pkg/auth/session"
	"github.com/ecomjrm/ecomjrm-backend/pkg/cache"
	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/easyparcel"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/mailer"
	"github.com/ecomjrm/ecomjrm-backend/pkg/migrate"
	"github.com/ecomjrm/ecomjrm-backend/pkg/redis"
	"github.com/ecomjrm/ecomjrm-backend/pkg/storage/gcs"
	tg "github.com/ecomjrm/ecomjrm-backend/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create audit service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       auth.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Auditor:        auditService,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	easyparcelClient, err := easyparcel.NewClient(ctx, cfg.EasyParcel, logg)
	if err != nil {
		logg.Error(ctx, "failed to create easyparcel client", err)
		os.Exit(1)
	}

	var mailSender mailer.Sender
	if cfg.Mailer.APIKey != "" {
		sg, err := mailer.NewSendGrid(ctx, cfg.Mailer, logg)
		if err != nil {
			logg.Error(ctx, "failed to create mailer", err)
			os.Exit(1)
		}
		mailSender = sg
	} else {
		logg.Warn(ctx, "mailer API key missing, shipment emails disabled")
	}

	var telegramBot *tg.Client
	if cfg.Telegram.BotToken != "" {
		telegramBot, err = tg.NewClient(ctx, cfg.Telegram, logg)
		if err != nil {
			logg.Error(ctx, "failed to create telegram client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "telegram bot token missing, notifications disabled")
	}

	var telegramService telegram.Service
	if telegramBot != nil {
		telegramService, err = telegram.NewService(telegram.NewRepository(dbClient.DB()), telegramBot, auditService, logg)
	} else {
		telegramService, err = telegram.NewService(telegram.NewRepository(dbClient.DB()), nil, auditService, logg)
	}
	if err != nil {
		logg.Error(ctx, "failed to create telegram service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		easyparcelClient,
		mailSender,
		telegramService,
		auditService,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

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
		logg.Error(ctx, "failed to create chat archive service", err)
		os.Exit(1)
	}

	retentionService, err := retention.NewService(chatService, nil, logg)
	if err != nil {
		logg.Error(ctx, "failed to create retention service", err)
		os.Exit(1)
	}

	discountService, err := discounts.NewService(discounts.NewRepository(dbClient.DB()), auditService)
	if err != nil {
		logg.Error(ctx, "failed to create discounts service", err)
		os.Exit(1)
	}

	productCache := cache.New(redisClient, logg)
	productService, err := products.NewService(
		products.NewRepository(dbClient.DB()),
		productCache,
		cfg.Cache.ProductTTL,
		auditService,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create products service", err)
		os.Exit(1)
	}

	var gcsClient *gcs.Client
	var mediaService media.Service
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(ctx, "failed to create gcs client", err)
			os.Exit(1)
		}
		mediaService, err = media.NewService(gcsClient, cfg.GCS.BucketName, cfg.GCS.UploadURLExpiry, cfg.GCS.DownloadURLExpiry, cfg.Media.MaxUploadMB)
		if err != nil {
			logg.Error(ctx, "failed to create media service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "gcs bucket missing, media presign disabled")
	}

	shippingService, err := shipping.NewService(shipping.NewRepository(dbClient.DB()), auditService)
	if err != nil {
		logg.Error(ctx, "failed to create shipping service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.NewRepository(dbClient.DB()), auditService)
	if err != nil {
		logg.Error(ctx, "failed to create customers service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(ordersService, chatService)
	if err != nil {
		logg.Error(ctx, "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var gcsPinger gcs.Pinger
	if gcsClient != nil {
		gcsPinger = gcsClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			GCS:            gcsPinger,
			SessionChecker: sessionManager,
			Auth:           authService,
			Orders:         ordersService,
			Chats:          chatService,
			Retention:      retentionService,
			Discounts:      discountService,
			Products:       productService,
			Telegram:       telegramService,
			Media:          mediaService,
			Dashboard:      dashboardService,
			Audit:          auditService,
			Shipping:       shippingService,
			Customers:      customersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
